package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database. An empty postgresURL
// selects the embedded SQLite database under dataDir.
func Connect(dataDir, postgresURL string) error {
	if postgresURL != "" {
		db, err := sqlx.Connect("postgres", postgresURL)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		DB = db
		return initializeSchema()
	}

	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "revise.db")
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	DB = db
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// rebind adapts ?-style placeholders to the active driver's dialect.
func rebind(query string) string {
	return DB.Rebind(query)
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS subjects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			icon TEXT NOT NULL DEFAULT '',
			exam_date TIMESTAMP,
			difficulty_modifier REAL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create subjects table: %w", err)
	}

	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS topics (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			subject_id TEXT REFERENCES subjects(id),
			intervals TEXT NOT NULL DEFAULT '',
			interval_index INTEGER NOT NULL DEFAULT 0,
			next_review_date TIMESTAMP NOT NULL,
			last_reviewed_at TIMESTAMP,
			stability REAL NOT NULL,
			retrievability_target REAL NOT NULL,
			reviews_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			started_at TIMESTAMP,
			auto_adjust_preference TEXT NOT NULL DEFAULT 'ask',
			schedule_mode TEXT NOT NULL DEFAULT 'adaptive',
			revise_now_last_used_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create topics table: %w", err)
	}

	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS topic_events (
			id TEXT PRIMARY KEY,
			topic_id TEXT NOT NULL REFERENCES topics(id),
			type TEXT NOT NULL,
			at TIMESTAMP NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			quality REAL,
			interval_days REAL,
			resulting_stability REAL,
			target_retrievability REAL,
			next_review_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create topic_events table: %w", err)
	}

	_, err = DB.Exec(`CREATE INDEX IF NOT EXISTS idx_topic_events_topic ON topic_events(topic_id, at)`)
	if err != nil {
		return fmt.Errorf("failed to create topic_events index: %w", err)
	}

	return nil
}
