package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xnox-me/Streamin/internal/dispatch"
	"github.com/xnox-me/Streamin/internal/interaction"
	"github.com/xnox-me/Streamin/internal/observability/metrics"
)

// Server 负责暴露动作服务的 HTTP 接口，供对话框架回调。
type Server struct {
	addr         string
	token        string
	dispatcher   *dispatch.Dispatcher
	interactions *interaction.Service
}

// ServerOption 定义可选配置。
type ServerOption func(*Server)

// WithAuthToken 为管理接口启用 Bearer Token 鉴权。
func WithAuthToken(token string) ServerOption {
	return func(s *Server) {
		s.token = strings.TrimSpace(token)
	}
}

// WithInteractionService 启用互动查询接口。
func WithInteractionService(svc *interaction.Service) ServerOption {
	return func(s *Server) {
		s.interactions = svc
	}
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, dispatcher *dispatch.Dispatcher, opts ...ServerOption) *Server {
	s := &Server{addr: addr, dispatcher: dispatcher}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.routes()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 启动服务器并监听关闭信号。
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/webhook", instrument("webhook", http.HandlerFunc(s.handleWebhook)))
	mux.Handle("/actions", instrument("actions", http.HandlerFunc(s.handleActions)))
	mux.Handle("/healthz", instrument("healthz", http.HandlerFunc(s.handleHealth)))
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/api/v1/interactions", instrument("interactions", s.requireAuth(http.HandlerFunc(s.handleListInteractions))))
	mux.Handle("/api/v1/interactions/stats", instrument("interaction_stats", s.requireAuth(http.HandlerFunc(s.handleInteractionStats))))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	if s.dispatcher == nil {
		http.Error(w, "分发器未初始化", http.StatusServiceUnavailable)
		return
	}
	type actionEntry struct {
		Name string `json:"name"`
	}
	intents := s.dispatcher.Intents()
	actions := make([]actionEntry, 0, len(intents))
	for _, intent := range intents {
		actions = append(actions, actionEntry{Name: "action_" + intent})
	}
	writeJSON(w, http.StatusOK, actions)
}

func (s *Server) handleListInteractions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	if s.interactions == nil {
		http.Error(w, "互动服务未启用", http.StatusServiceUnavailable)
		return
	}
	events, err := s.interactions.List(r.Context(), listOptionsFromQuery(r)...)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleInteractionStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	if s.interactions == nil {
		http.Error(w, "互动服务未启用", http.StatusServiceUnavailable)
		return
	}
	stats, err := s.interactions.Stats(r.Context(), listOptionsFromQuery(r)...)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func listOptionsFromQuery(r *http.Request) []interaction.ListOption {
	query := r.URL.Query()
	var opts []interaction.ListOption
	if raw := query.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			opts = append(opts, interaction.WithLimit(parsed))
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			opts = append(opts, interaction.WithOffset(parsed))
		}
	}
	if raw := query.Get("intent"); raw != "" {
		opts = append(opts, interaction.WithIntents(strings.Split(raw, ",")...))
	}
	if raw := query.Get("sender_id"); raw != "" {
		opts = append(opts, interaction.WithSenderID(raw))
	}
	if raw := query.Get("status"); raw != "" {
		parts := strings.Split(raw, ",")
		statuses := make([]interaction.Status, 0, len(parts))
		for _, part := range parts {
			statuses = append(statuses, interaction.Status(strings.TrimSpace(part)))
		}
		opts = append(opts, interaction.WithStatuses(statuses...))
	}
	if raw := query.Get("q"); raw != "" {
		opts = append(opts, interaction.WithQuery(raw))
	}
	return opts
}

// requireAuth 在配置了 Token 时校验 Authorization 头。
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		provided, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(provided)), []byte(s.token)) != 1 {
			http.Error(w, "未授权", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument 记录请求量与时延指标。
func instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)
		metrics.ObserveHTTPRequest(name, r.Method, recorder.status, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "服务已关闭", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
