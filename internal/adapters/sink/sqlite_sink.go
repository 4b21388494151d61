package sink

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteDialect = sqlDialect{
	name: "sqlite",
	schema: []string{`
		CREATE TABLE IF NOT EXISTS triage_records (
			message_id TEXT PRIMARY KEY,
			thread_id TEXT,
			subject TEXT,
			sender TEXT,
			sender_email TEXT,
			received_at TIMESTAMP,
			language TEXT,
			summary TEXT,
			commands TEXT,
			tone TEXT,
			team_tags TEXT,
			confidence_score INTEGER,
			action_status TEXT,
			draft_professional TEXT,
			draft_friendly TEXT,
			processing_status TEXT,
			processing_error TEXT,
			processed_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_processed_at ON triage_records(processed_at)`,
	},
	upsert: fmt.Sprintf(
		"INSERT OR REPLACE INTO triage_records (%s) VALUES (%s)",
		strings.Join(recordColumns, ", "),
		placeholders(len(recordColumns)),
	),
}

// NewSQLiteSink opens the database file and creates the records table if needed
func NewSQLiteSink(dbPath string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*SQLSink, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)

	s, err := newSQLSink(db, sqliteDialect, logger, retention, cleanupFreq)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
