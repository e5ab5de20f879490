package status

// StreamState 表示单路推流的状态枚举。
type StreamState string

const (
	// StreamActive 表示该路推流正在直播。
	StreamActive StreamState = "active"
	// StreamInactive 表示该路推流已停止。
	StreamInactive StreamState = "inactive"
)

// Stream 描述上游 /streams 接口返回的单路推流。
type Stream struct {
	ID     string      `json:"id"`
	Status StreamState `json:"status"`
}

// StreamList 是上游返回的推流集合，保持返回顺序。
type StreamList []Stream

// ActiveCount 统计处于直播状态的推流数量。
func (l StreamList) ActiveCount() int {
	count := 0
	for _, stream := range l {
		if stream.Status == StreamActive {
			count++
		}
	}
	return count
}

// Platform 描述某个社交平台的接入情况。
type Platform struct {
	// Name 为上游 JSON 对象的键名，保留原始大小写。
	Name        string
	IsConnected bool
	IsStreaming bool
}

// PlatformList 按上游 JSON 对象的键出现顺序保存平台状态。
// 顺序是接口契约的一部分，渲染时不得重排。
type PlatformList []Platform

// Connected 返回已接入的平台，保持原有顺序。
func (l PlatformList) Connected() PlatformList {
	connected := make(PlatformList, 0, len(l))
	for _, platform := range l {
		if platform.IsConnected {
			connected = append(connected, platform)
		}
	}
	return connected
}
