package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

func latestVersion() int {
	return migrations[len(migrations)-1].Version
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS profiles (
    id TEXT PRIMARY KEY,
    email TEXT UNIQUE NOT NULL,
    is_admin INTEGER DEFAULT 0,
    department TEXT,
    total_coaching_count INTEGER DEFAULT 0,
    avg_score REAL DEFAULT 0,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS customers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    phone TEXT UNIQUE NOT NULL,
    consultation_history TEXT DEFAULT '[]',
    last_consultation_date TEXT
);

CREATE TABLE IF NOT EXISTS consultation_types (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    display_name TEXT NOT NULL,
    description TEXT,
    is_active INTEGER DEFAULT 1,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS guidelines (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    category TEXT NOT NULL,
    raw_input TEXT NOT NULL,
    refined_content TEXT NOT NULL,
    is_active INTEGER DEFAULT 1,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS reference_materials (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    category TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT,
    summary TEXT,
    file_url TEXT,
    is_active INTEGER DEFAULT 1,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS coaching_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL REFERENCES profiles(id),
    customer_id INTEGER REFERENCES customers(id),
    consultation_type TEXT NOT NULL,
    original_script TEXT NOT NULL,
    audio_url TEXT,
    ai_score INTEGER NOT NULL,
    metric_compliance INTEGER DEFAULT 0,
    metric_empathy INTEGER DEFAULT 0,
    metric_clarity INTEGER DEFAULT 0,
    ai_feedback TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_logs_user ON coaching_logs(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_guidelines_category ON guidelines(category);
CREATE INDEX IF NOT EXISTS idx_refs_category ON reference_materials(category);
`)
			if err != nil {
				return err
			}

			// Every install knows the general bucket; extraction falls back to it.
			_, err = tx.Exec(`
INSERT OR IGNORE INTO consultation_types (name, display_name, description) VALUES
    ('general', 'General', 'Consultations that fit no specific category'),
    ('refund', 'Refund', 'Refund and cancellation requests'),
    ('tech', 'Technical', 'Product or technical troubleshooting'),
    ('inquiry', 'Inquiry', 'Product and policy questions');
`)
			return err
		},
	},
}
