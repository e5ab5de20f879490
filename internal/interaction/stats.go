package interaction

// EventStats 聚合了互动事件的统计信息，常用于仪表盘或健康检查。
type EventStats struct {
	Total           int            `json:"total"`
	Pending         int            `json:"pending"`
	Archiving       int            `json:"archiving"`
	Archived        int            `json:"archived"`
	Failed          int            `json:"failed"`
	ByIntent        map[string]int `json:"by_intent,omitempty"`
	OldestUpdatedAt int64          `json:"oldest_updated_at,omitempty"`
	NewestUpdatedAt int64          `json:"newest_updated_at,omitempty"`
}
