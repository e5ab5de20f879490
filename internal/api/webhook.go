package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xnox-me/Streamin/internal/dispatch"
	"github.com/xnox-me/Streamin/internal/observability/metrics"
	"github.com/xnox-me/Streamin/pkg/logger"
)

// webhookRequest 是对话框架回调动作服务时的请求体。
type webhookRequest struct {
	NextAction string  `json:"next_action"`
	SenderID   string  `json:"sender_id"`
	Tracker    tracker `json:"tracker"`
}

type tracker struct {
	SenderID      string         `json:"sender_id"`
	Slots         map[string]any `json:"slots"`
	LatestMessage latestMessage  `json:"latest_message"`
}

type latestMessage struct {
	Text   string `json:"text"`
	Intent intent `json:"intent"`
}

type intent struct {
	Name string `json:"name"`
}

// webhookResponse 遵循动作服务的回包格式：事件列表加回复列表。
type webhookResponse struct {
	Events    []slotEvent   `json:"events"`
	Responses []botResponse `json:"responses"`
}

type slotEvent struct {
	Event string `json:"event"`
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type botResponse struct {
	Text string `json:"text"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}
	if s.dispatcher == nil {
		http.Error(w, "分发器未初始化", http.StatusServiceUnavailable)
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "请求体解析失败", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.NextAction) == "" {
		http.Error(w, "next_action 不能为空", http.StatusBadRequest)
		return
	}

	senderID := req.Tracker.SenderID
	if senderID == "" {
		senderID = req.SenderID
	}

	dispatchReq := dispatch.Request{
		Intent:       req.NextAction,
		SenderID:     senderID,
		Message:      req.Tracker.LatestMessage.Text,
		LatestIntent: req.Tracker.LatestMessage.Intent.Name,
	}
	result := s.dispatcher.Dispatch(r.Context(), dispatchReq)
	metrics.ObserveDispatch(dispatch.Normalize(req.NextAction))

	logger.L().Debug("动作分发完成",
		slog.String("action", req.NextAction),
		slog.String("sender_id", senderID),
		slog.Bool("has_message", result.Message != ""),
	)

	resp := webhookResponse{
		Events:    make([]slotEvent, 0, len(result.SlotUpdates)),
		Responses: make([]botResponse, 0, 1),
	}
	for name, value := range result.SlotUpdates {
		resp.Events = append(resp.Events, slotEvent{Event: "slot", Name: name, Value: value})
	}
	if result.Message != "" {
		resp.Responses = append(resp.Responses, botResponse{Text: result.Message})
	}
	writeJSON(w, http.StatusOK, resp)
}
