package migrations

import "embed"

// Files 暴露互动事件存储所需的全部 SQL 迁移文件。
//
//go:embed *.sql
var Files embed.FS
