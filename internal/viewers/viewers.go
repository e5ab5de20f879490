// Package viewers 预留了观众数聚合能力。上游多路推流服务目前没有
// 暴露观众数接口，因此默认回复占位文案；接入真实数据源时只需实现
// Provider 并注入分发器。
package viewers

import "context"

// Count 汇总各平台的观众数。
type Count struct {
	Total      int            `json:"total"`
	ByPlatform map[string]int `json:"by_platform,omitempty"`
}

// Provider 返回当前观众数。
type Provider interface {
	ViewerCount(ctx context.Context) (Count, error)
}
