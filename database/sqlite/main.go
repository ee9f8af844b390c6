package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"salescoachdev/logger"

	_ "modernc.org/sqlite"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Timestamps are stored as fixed-width text so that string ordering in SQL
// matches chronological ordering.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

type DatabaseConnectProps struct {
	Logger *logger.LogMiddleware
	Path   string
}

type Database struct {
	db     *sql.DB
	logger *logger.LogMiddleware
}

type ScoreRow struct {
	Name  string
	Score int
}

type ChatRow struct {
	Name      string
	Chat      string
	Timestamp string
}

func Connect(ctx context.Context, args DatabaseConnectProps) *Database {
	tracer := otel.Tracer("sqlite/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	log := args.Logger.Logger(ctx)

	conn, err := sql.Open("sqlite", args.Path)
	if err == nil {
		err = conn.PingContext(ctx)
	}
	if err != nil {
		log.Error("[SQLite] Could not open database file",
			zap.Error(err),
			zap.String("path", args.Path))
		span.RecordError(err)
		os.Exit(1)
	}

	d := &Database{db: conn, logger: args.Logger}
	if err := d.createTables(ctx); err != nil {
		log.Error("[SQLite] Could not create record tables", zap.Error(err))
		span.RecordError(err)
		os.Exit(1)
	}

	log.Info("[SQLite] Database client started", zap.String("path", args.Path))
	return d
}

// Open is Connect without the fatal exit path, for callers that can handle
// the error themselves (tests use it against a temp file).
func Open(ctx context.Context, args DatabaseConnectProps) (*Database, error) {
	conn, err := sql.Open("sqlite", args.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	d := &Database{db: conn, logger: args.Logger}
	if err := d.createTables(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// All three record tables are append-only: nothing in this package updates or
// deletes a row, so every read runs over the full historical set.
func (d *Database) createTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS leaderboard (name TEXT, score INTEGER, session_id TEXT, timestamp TEXT)`,
		`CREATE TABLE IF NOT EXISTS chat_history (name TEXT, chat TEXT, session_id TEXT, timestamp TEXT)`,
		`CREATE TABLE IF NOT EXISTS performance_reports (name TEXT, avg_score REAL, summary TEXT, timestamp TEXT)`,
	}
	for _, statement := range statements {
		if _, err := d.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("create record tables: %w", err)
		}
	}
	return nil
}

func (d *Database) AddScore(ctx context.Context, name string, score int, sessionID string, ts time.Time) error {
	tracer := otel.Tracer("sqlite/AddScore")
	ctx, span := tracer.Start(ctx, "AddScore")
	defer span.End()

	span.SetAttributes(attribute.Int("score", score))

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO leaderboard (name, score, session_id, timestamp) VALUES (?, ?, ?, ?)`,
		name, score, sessionID, ts.Format(tsLayout),
	)
	if err != nil {
		span.RecordError(err)
		d.logger.Logger(ctx).Error("[SQLite] Could not append score record",
			zap.Error(err), zap.String("name", name))
		return fmt.Errorf("append score record: %w", err)
	}
	return nil
}

func (d *Database) AddChat(ctx context.Context, name string, chat string, sessionID string, ts time.Time) error {
	tracer := otel.Tracer("sqlite/AddChat")
	ctx, span := tracer.Start(ctx, "AddChat")
	defer span.End()

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO chat_history (name, chat, session_id, timestamp) VALUES (?, ?, ?, ?)`,
		name, chat, sessionID, ts.Format(tsLayout),
	)
	if err != nil {
		span.RecordError(err)
		d.logger.Logger(ctx).Error("[SQLite] Could not append chat record",
			zap.Error(err), zap.String("name", name))
		return fmt.Errorf("append chat record: %w", err)
	}
	return nil
}

func (d *Database) AddSummary(ctx context.Context, name string, avg float64, summary string, ts time.Time) error {
	tracer := otel.Tracer("sqlite/AddSummary")
	ctx, span := tracer.Start(ctx, "AddSummary")
	defer span.End()

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO performance_reports (name, avg_score, summary, timestamp) VALUES (?, ?, ?, ?)`,
		name, avg, summary, ts.Format(tsLayout),
	)
	if err != nil {
		span.RecordError(err)
		d.logger.Logger(ctx).Error("[SQLite] Could not append performance summary",
			zap.Error(err), zap.String("name", name))
		return fmt.Errorf("append performance summary: %w", err)
	}
	return nil
}

// TopScores ranks by score descending; ties go to the earlier timestamp, so
// the first trainee to reach a score keeps the higher placement.
func (d *Database) TopScores(ctx context.Context, limit int) ([]ScoreRow, error) {
	tracer := otel.Tracer("sqlite/TopScores")
	ctx, span := tracer.Start(ctx, "TopScores")
	defer span.End()

	rows, err := d.db.QueryContext(ctx,
		`SELECT name, score FROM leaderboard ORDER BY score DESC, timestamp ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query top scores: %w", err)
	}
	defer rows.Close()

	var results []ScoreRow
	for rows.Next() {
		var row ScoreRow
		if err := rows.Scan(&row.Name, &row.Score); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("scan top scores: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("iterate top scores: %w", err)
	}
	return results, nil
}

func (d *Database) AllChats(ctx context.Context) ([]ChatRow, error) {
	tracer := otel.Tracer("sqlite/AllChats")
	ctx, span := tracer.Start(ctx, "AllChats")
	defer span.End()

	rows, err := d.db.QueryContext(ctx,
		`SELECT name, chat, timestamp FROM chat_history ORDER BY timestamp DESC`,
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query chat history: %w", err)
	}
	defer rows.Close()

	var results []ChatRow
	for rows.Next() {
		var row ChatRow
		if err := rows.Scan(&row.Name, &row.Chat, &row.Timestamp); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("scan chat history: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("iterate chat history: %w", err)
	}
	return results, nil
}

// ScoresFor matches the trainee name exactly (case-sensitive).
func (d *Database) ScoresFor(ctx context.Context, name string) ([]int, error) {
	tracer := otel.Tracer("sqlite/ScoresFor")
	ctx, span := tracer.Start(ctx, "ScoresFor")
	defer span.End()

	rows, err := d.db.QueryContext(ctx,
		`SELECT score FROM leaderboard WHERE name = ?`, name,
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query scores for %q: %w", name, err)
	}
	defer rows.Close()

	var scores []int
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("scan scores for %q: %w", name, err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("iterate scores for %q: %w", name, err)
	}
	return scores, nil
}

func (d *Database) RecentChatsFor(ctx context.Context, name string, limit int) ([]string, error) {
	tracer := otel.Tracer("sqlite/RecentChatsFor")
	ctx, span := tracer.Start(ctx, "RecentChatsFor")
	defer span.End()

	rows, err := d.db.QueryContext(ctx,
		`SELECT chat FROM chat_history WHERE name = ? ORDER BY timestamp DESC LIMIT ?`,
		name, limit,
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query recent chats for %q: %w", name, err)
	}
	defer rows.Close()

	var chats []string
	for rows.Next() {
		var chat string
		if err := rows.Scan(&chat); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("scan recent chats for %q: %w", name, err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("iterate recent chats for %q: %w", name, err)
	}
	return chats, nil
}
