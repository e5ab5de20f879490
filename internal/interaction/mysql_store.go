package interaction

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/xnox-me/Streamin/deploy/migrations"
	xerrors "github.com/xnox-me/Streamin/internal/errors"
)

var embeddedMigrations = migrations.Files

// MySQLStoreConfig 描述 MySQL 存储的连接参数。
type MySQLStoreConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MySQLStore 使用 MySQL 记录互动事件。
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore 创建一个新的 MySQLStore 并执行数据库迁移。
func NewMySQLStore(cfg MySQLStoreConfig) (*MySQLStore, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "MySQL DSN 不能为空")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "连接 MySQL 失败")
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 20
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 10
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 10 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "无法连接到 MySQL")
	}

	store := &MySQLStore{db: db}
	if err := store.runMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

type migrationFile struct {
	version    string
	name       string
	statements []string
}

func (s *MySQLStore) runMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
        version VARCHAR(32) NOT NULL PRIMARY KEY,
        applied_at BIGINT NOT NULL
)`); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "创建 schema_migrations 表失败")
	}

	applied, err := s.loadAppliedVersions(ctx)
	if err != nil {
		return err
	}

	files, err := loadMigrationFiles()
	if err != nil {
		return err
	}

	for _, migration := range files {
		if _, ok := applied[migration.version]; ok {
			continue
		}
		if err := s.applyMigration(ctx, migration); err != nil {
			return err
		}
	}
	return nil
}

func (s *MySQLStore) loadAppliedVersions(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询 schema_migrations 失败")
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析 schema_migrations 失败")
		}
		applied[version] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历 schema_migrations 失败")
	}
	return applied, nil
}

func (s *MySQLStore) applyMigration(ctx context.Context, migration migrationFile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "开启迁移事务失败")
	}

	for _, stmt := range migration.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, fmt.Sprintf("执行迁移 %s 失败", migration.name))
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, migration.version, time.Now().Unix()); err != nil {
		tx.Rollback()
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "记录迁移版本失败")
	}

	if err := tx.Commit(); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "提交迁移事务失败")
	}
	return nil
}

func loadMigrationFiles() ([]migrationFile, error) {
	entries, err := fs.ReadDir(embeddedMigrations, ".")
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取迁移目录失败")
	}

	var files []migrationFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		contentBytes, err := embeddedMigrations.ReadFile(name)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, fmt.Sprintf("读取迁移文件 %s 失败", name))
		}
		statements := splitSQLStatements(string(contentBytes))
		if len(statements) == 0 {
			continue
		}
		files = append(files, migrationFile{
			version:    parseMigrationVersion(name),
			name:       name,
			statements: statements,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].version == files[j].version {
			return files[i].name < files[j].name
		}
		return files[i].version < files[j].version
	})
	return files, nil
}

func splitSQLStatements(content string) []string {
	rawStatements := strings.Split(content, ";")
	var statements []string
	for _, stmt := range rawStatements {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			continue
		}
		statements = append(statements, trimmed)
	}
	return statements
}

func parseMigrationVersion(name string) string {
	if idx := strings.IndexRune(name, '_'); idx > 0 {
		return name[:idx]
	}
	if dot := strings.IndexRune(name, '.'); dot > 0 {
		return name[:dot]
	}
	return name
}

// Create 插入新的事件记录。
func (s *MySQLStore) Create(ctx context.Context, event *Event) error {
	if event == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "event 不能为空")
	}
	if strings.TrimSpace(event.ID) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "事件 ID 不能为空")
	}

	now := time.Now().Unix()
	event.CreatedAt = now
	event.UpdatedAt = now

	const stmt = `INSERT INTO interaction_events
        (id, sender_id, intent, message, reply, status, attempts, max_retries, last_error, error_code, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, '', '', ?, ?)`

	_, err := s.db.ExecContext(ctx, stmt,
		event.ID,
		event.SenderID,
		event.Intent,
		event.Message,
		event.Reply,
		event.Status,
		event.Attempts,
		event.MaxRetries,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if stdErrors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrEventConflict
		}
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "插入事件失败")
	}
	return nil
}

// Get 查询指定事件。
func (s *MySQLStore) Get(ctx context.Context, id string) (*Event, error) {
	const stmt = `SELECT id, sender_id, intent, message, reply, status, attempts, max_retries, last_error, error_code, created_at, updated_at
        FROM interaction_events WHERE id = ?`

	row := s.db.QueryRowContext(ctx, stmt, id)
	event, err := scanEvent(row.Scan)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询事件失败")
	}
	return event, nil
}

// Claim 将事件标记为归档中并返回最新状态。
func (s *MySQLStore) Claim(ctx context.Context, id string) (*Event, error) {
	const updateStmt = `UPDATE interaction_events SET status = ?, attempts = attempts + 1, updated_at = ?, last_error = '', error_code = ''
        WHERE id = ? AND status IN (?, ?) AND attempts < max_retries`

	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx, updateStmt,
		StatusArchiving,
		now,
		id,
		StatusPending,
		StatusFailed,
	)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "更新事件状态失败")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "获取影响行数失败")
	}
	if affected == 0 {
		event, getErr := s.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		switch event.Status {
		case StatusArchived:
			return event, ErrEventArchived
		case StatusArchiving:
			return event, ErrEventConflict
		default:
			if event.Attempts >= event.MaxRetries {
				return event, ErrEventExhausted
			}
			return event, ErrEventConflict
		}
	}
	return s.Get(ctx, id)
}

// MarkArchived 将事件标记为归档完成。
func (s *MySQLStore) MarkArchived(ctx context.Context, id string) error {
	const stmt = `UPDATE interaction_events SET status = ?, updated_at = ?, last_error = '', error_code = '' WHERE id = ?`

	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx, stmt, StatusArchived, now, id)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "标记事件归档失败")
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

// MarkFailed 将事件标记为失败，并在必要时终止重试。
func (s *MySQLStore) MarkFailed(ctx context.Context, id string, code xerrors.Code, lastError string, _ bool) error {
	const stmt = `UPDATE interaction_events SET status = ?, last_error = ?, error_code = ?, updated_at = ? WHERE id = ?`

	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx, stmt,
		StatusFailed,
		lastError,
		string(code),
		now,
		id,
	)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "标记事件失败状态出错")
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

// List 返回符合过滤条件的事件。
func (s *MySQLStore) List(ctx context.Context, opts ListOptions) ([]*Event, error) {
	opts.applyDefaults()

	query := `SELECT id, sender_id, intent, message, reply, status, attempts, max_retries, last_error, error_code, created_at, updated_at
        FROM interaction_events`

	clause, filterArgs := buildFilterClause(opts)
	if clause != "" {
		query += " WHERE " + clause
	}

	order := " ORDER BY updated_at DESC, created_at DESC, id DESC"
	if opts.Order == SortByUpdatedAsc {
		order = " ORDER BY updated_at ASC, created_at ASC, id ASC"
	}
	query += order + " LIMIT ? OFFSET ?"

	args := append(filterArgs, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询事件列表失败")
	}
	defer rows.Close()

	events := make([]*Event, 0, opts.Limit)
	for rows.Next() {
		event, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析事件记录失败")
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历事件失败")
	}
	return events, nil
}

// Stats 返回符合过滤条件的事件聚合信息。
func (s *MySQLStore) Stats(ctx context.Context, opts ListOptions) (EventStats, error) {
	opts.applyDefaults()

	query := `SELECT
        COUNT(*) AS total,
        SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS pending,
        SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS archiving,
        SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS archived,
        SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS failed,
        COALESCE(MIN(updated_at), 0) AS oldest,
        COALESCE(MAX(updated_at), 0) AS newest
        FROM interaction_events`

	clause, filterArgs := buildFilterClause(opts)
	if clause != "" {
		query += " WHERE " + clause
	}

	args := []any{string(StatusPending), string(StatusArchiving), string(StatusArchived), string(StatusFailed)}
	args = append(args, filterArgs...)

	row := s.db.QueryRowContext(ctx, query, args...)

	var stats EventStats
	if err := row.Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Archiving,
		&stats.Archived,
		&stats.Failed,
		&stats.OldestUpdatedAt,
		&stats.NewestUpdatedAt,
	); err != nil {
		return EventStats{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询事件统计失败")
	}
	if stats.Total == 0 {
		stats.OldestUpdatedAt = 0
		stats.NewestUpdatedAt = 0
		return stats, nil
	}

	intentQuery := `SELECT intent, COUNT(*) FROM interaction_events`
	if clause != "" {
		intentQuery += " WHERE " + clause
	}
	intentQuery += " GROUP BY intent"

	rows, err := s.db.QueryContext(ctx, intentQuery, filterArgs...)
	if err != nil {
		return EventStats{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询意图统计失败")
	}
	defer rows.Close()

	byIntent := make(map[string]int)
	for rows.Next() {
		var intent string
		var count int
		if err := rows.Scan(&intent, &count); err != nil {
			return EventStats{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析意图统计失败")
		}
		if intent != "" {
			byIntent[intent] = count
		}
	}
	if err := rows.Err(); err != nil {
		return EventStats{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历意图统计失败")
	}
	if len(byIntent) > 0 {
		stats.ByIntent = byIntent
	}
	return stats, nil
}

// Close 关闭底层数据库连接。
func (s *MySQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanEvent(scan func(dest ...any) error) (*Event, error) {
	var event Event
	var message, reply, lastError sql.NullString
	if err := scan(
		&event.ID,
		&event.SenderID,
		&event.Intent,
		&message,
		&reply,
		&event.Status,
		&event.Attempts,
		&event.MaxRetries,
		&lastError,
		&event.ErrorCode,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, err
	}
	event.Message = message.String
	event.Reply = reply.String
	event.LastError = lastError.String
	return &event, nil
}

func buildFilterClause(opts ListOptions) (string, []any) {
	conditions := make([]string, 0, 4)
	args := make([]any, 0, 6)

	if len(opts.Statuses) > 0 {
		placeholders := make([]string, 0, len(opts.Statuses))
		for range opts.Statuses {
			placeholders = append(placeholders, "?")
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
		for _, status := range opts.Statuses {
			args = append(args, status)
		}
	}
	if len(opts.Intents) > 0 {
		placeholders := make([]string, 0, len(opts.Intents))
		for range opts.Intents {
			placeholders = append(placeholders, "?")
		}
		conditions = append(conditions, fmt.Sprintf("intent IN (%s)", strings.Join(placeholders, ",")))
		for _, intent := range opts.Intents {
			args = append(args, intent)
		}
	}
	if opts.SenderID != "" {
		conditions = append(conditions, "sender_id = ?")
		args = append(args, opts.SenderID)
	}
	if opts.UpdatedGTE > 0 {
		conditions = append(conditions, "updated_at >= ?")
		args = append(args, opts.UpdatedGTE)
	}
	if opts.UpdatedLTE > 0 {
		conditions = append(conditions, "updated_at <= ?")
		args = append(args, opts.UpdatedLTE)
	}
	if opts.Query != "" {
		pattern := "%" + opts.Query + "%"
		conditions = append(conditions, "(id LIKE ? OR sender_id LIKE ? OR intent LIKE ? OR message LIKE ? OR reply LIKE ? OR last_error LIKE ?)")
		args = append(args, pattern, pattern, pattern, pattern, pattern, pattern)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return strings.Join(conditions, " AND "), args
}

var _ Store = (*MySQLStore)(nil)
