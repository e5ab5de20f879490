// Package api 实现动作服务的 HTTP 层：对话框架通过 /webhook 回调触发
// 意图分发，运维侧通过 /healthz、/metrics 与 /api/v1/interactions 观察
// 服务状态与互动数据。
package api
