package sink

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var mysqlDialect = sqlDialect{
	name: "mysql",
	schema: []string{`
		CREATE TABLE IF NOT EXISTS triage_records (
			message_id VARCHAR(255) PRIMARY KEY,
			thread_id VARCHAR(255),
			subject VARCHAR(255),
			sender VARCHAR(255),
			sender_email VARCHAR(255),
			received_at DATETIME,
			language VARCHAR(64),
			summary TEXT,
			commands TEXT,
			tone VARCHAR(32),
			team_tags VARCHAR(255),
			confidence_score INT,
			action_status VARCHAR(32),
			draft_professional TEXT,
			draft_friendly TEXT,
			processing_status VARCHAR(32),
			processing_error TEXT,
			processed_at DATETIME,
			INDEX idx_processed_at (processed_at)
		) CHARACTER SET utf8mb4
	`},
	upsert: fmt.Sprintf(
		"INSERT INTO triage_records (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		strings.Join(recordColumns, ", "),
		placeholders(len(recordColumns)),
		mysqlUpdateClause(),
	),
}

func mysqlUpdateClause() string {
	sets := make([]string, 0, len(recordColumns)-1)
	for _, c := range recordColumns[1:] {
		sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", c, c))
	}
	return strings.Join(sets, ", ")
}

// NewMySQLSink connects to MySQL and creates the records table if needed
func NewMySQLSink(dsn string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*SQLSink, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}
	db := sql.OpenDB(connector)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	s, err := NewMySQLSinkWithDB(db, logger, retention, cleanupFreq)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewMySQLSinkWithDB uses an already opened MySQL handle
func NewMySQLSinkWithDB(db *sql.DB, logger *zap.Logger, retention, cleanupFreq time.Duration) (*SQLSink, error) {
	return newSQLSink(db, mysqlDialect, logger, retention, cleanupFreq)
}
