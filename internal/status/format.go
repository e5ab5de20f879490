package status

import (
	"fmt"
	"strings"

	xerrors "github.com/xnox-me/Streamin/internal/errors"
)

// 降级话术。所有渲染函数都是全函数：任何输入都会得到一条确定的文案。
const (
	msgNoActiveStreams       = "📺 No active streams at the moment. Check back later!"
	msgStreamStatusBadStatus = "⚠️ Unable to check stream status right now. Please try again later."
	msgStreamStatusDown      = "❌ Error checking stream status. The streaming service might be unavailable."

	msgPlatformHeader      = "🌐 Platform Status:"
	msgNoPlatforms         = "📱 No platforms currently connected."
	msgPlatformBadStatus   = "⚠️ Unable to check platform status right now."
	msgPlatformUnavailable = "❌ Error checking platform information."

	labelLive     = "🟢 Live"
	labelChatOnly = "💬 Chat Only"
)

// RenderStreamStatus 将推流列表（或获取失败的错误）渲染为一条用户可读的消息。
func RenderStreamStatus(streams StreamList, err error) string {
	if err != nil {
		if xerrors.CodeOf(err) == xerrors.CodeUpstreamBadStatus {
			return msgStreamStatusBadStatus
		}
		return msgStreamStatusDown
	}
	if len(streams) == 0 {
		return msgNoActiveStreams
	}
	return fmt.Sprintf("🔴 Currently streaming live! %d active stream(s) across multiple platforms.", streams.ActiveCount())
}

// RenderPlatformStatus 将平台接入状态渲染为一条用户可读的消息。
// 仅渲染已接入的平台，顺序保持上游返回顺序。
func RenderPlatformStatus(platforms PlatformList, err error) string {
	if err != nil {
		if xerrors.CodeOf(err) == xerrors.CodeUpstreamBadStatus {
			return msgPlatformBadStatus
		}
		return msgPlatformUnavailable
	}

	connected := platforms.Connected()
	if len(connected) == 0 {
		return msgNoPlatforms
	}

	lines := make([]string, 0, len(connected)+1)
	lines = append(lines, msgPlatformHeader)
	for _, platform := range connected {
		label := labelChatOnly
		if platform.IsStreaming {
			label = labelLive
		}
		lines = append(lines, fmt.Sprintf("%s: %s", titleCase(platform.Name), label))
	}
	return strings.Join(lines, "\n")
}

// titleCase 将平台键名的每个单词首字母大写，对齐原有展示习惯。
func titleCase(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return name
	}
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
