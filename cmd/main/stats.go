package main

import (
	"database/sql"
	"log/slog"
	"time"
)

const statsSchema = `
CREATE TABLE IF NOT EXISTS build_pages (
    page          TEXT NOT NULL,
    built_at      DATETIME NOT NULL,
    duration_ms   INTEGER NOT NULL,
    output_bytes  INTEGER NOT NULL
);
`

func setupStatsSchema(db *sql.DB) error {
	_, err := db.Exec(statsSchema)
	return err
}

// BuildRecorder persists per-page build results so successive runs can be
// compared. Recording failures are logged and otherwise ignored: statistics
// must never fail a build.
type BuildRecorder struct {
	db       *sql.DB
	logger   *slog.Logger
	runStart time.Time
}

func NewBuildRecorder(db *sql.DB, logger *slog.Logger) *BuildRecorder {
	return &BuildRecorder{db: db, logger: logger, runStart: time.Now()}
}

// RecordPage inserts one row for a finished page. Safe for concurrent use;
// database/sql serializes access through its connection pool.
func (r *BuildRecorder) RecordPage(page string, duration time.Duration, outputBytes int) {
	_, err := r.db.Exec(
		"INSERT INTO build_pages (page, built_at, duration_ms, output_bytes) VALUES (?, ?, ?, ?)",
		page, time.Now(), duration.Milliseconds(), outputBytes,
	)
	if err != nil {
		r.logger.Warn("Failed to record page build", "page", page, "error", err)
	}
}

// LogSummary logs aggregate numbers for the pages recorded during this run.
func (r *BuildRecorder) LogSummary() {
	var pages, outputBytes int64
	err := r.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(output_bytes), 0) FROM build_pages WHERE built_at >= ?",
		r.runStart,
	).Scan(&pages, &outputBytes)
	if err != nil {
		r.logger.Warn("Failed to query build summary", "error", err)
		return
	}
	r.logger.Info("Run summary", "pages", pages, "output_bytes", outputBytes)
}
