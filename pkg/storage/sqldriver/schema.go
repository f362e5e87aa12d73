package sqldriver

// schema is portable between sqlite and postgres.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS turns (
		conversation_id TEXT NOT NULL,
		turn_number INTEGER NOT NULL,
		title TEXT NOT NULL,
		user_text TEXT NOT NULL,
		assistant_text TEXT NOT NULL,
		created_at DOUBLE PRECISION NOT NULL,
		created_at_text TEXT NOT NULL,
		session_id BIGINT NOT NULL DEFAULT 0,
		project TEXT NOT NULL DEFAULT '',
		elapsed_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (conversation_id, turn_number)
	)`,
	`CREATE INDEX IF NOT EXISTS turns_created_at_idx ON turns (created_at)`,
}

const turnColumns = `conversation_id, turn_number, title, user_text, assistant_text,
	created_at, session_id, project, elapsed_seconds`
