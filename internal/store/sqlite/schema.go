package sqlite

import "database/sql"

// Schema creates every table the store needs. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	profile_photo TEXT NOT NULL DEFAULT '',
	is_online     BOOLEAN NOT NULL DEFAULT 0,
	last_seen     DATETIME,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS rooms (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT NOT NULL,
	type            TEXT NOT NULL DEFAULT 'public',
	is_global       BOOLEAN NOT NULL DEFAULT 0,
	creator_id      INTEGER,
	last_message_id INTEGER,
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL,
	FOREIGN KEY (creator_id) REFERENCES users(id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_rooms_single_global ON rooms(is_global) WHERE is_global = 1;

CREATE TABLE IF NOT EXISTS room_members (
	room_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	PRIMARY KEY (room_id, user_id),
	FOREIGN KEY (room_id) REFERENCES rooms(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_room_members_user ON room_members(user_id);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id    INTEGER NOT NULL,
	sender_id  INTEGER NOT NULL,
	type       TEXT NOT NULL DEFAULT 'text',
	content    TEXT NOT NULL DEFAULT '',
	file_url   TEXT,
	file_name  TEXT,
	file_size  INTEGER,
	deleted    BOOLEAN NOT NULL DEFAULT 0,
	deleted_by INTEGER,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (room_id) REFERENCES rooms(id),
	FOREIGN KEY (sender_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id, created_at DESC);

CREATE TABLE IF NOT EXISTS message_reads (
	message_id INTEGER NOT NULL,
	user_id    INTEGER NOT NULL,
	PRIMARY KEY (message_id, user_id),
	FOREIGN KEY (message_id) REFERENCES messages(id)
);

CREATE TABLE IF NOT EXISTS blocked_users (
	user_id   INTEGER NOT NULL,
	target_id INTEGER NOT NULL,
	PRIMARY KEY (user_id, target_id),
	FOREIGN KEY (user_id) REFERENCES users(id),
	FOREIGN KEY (target_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS favourites (
	user_id   INTEGER NOT NULL,
	target_id INTEGER NOT NULL,
	PRIMARY KEY (user_id, target_id),
	FOREIGN KEY (user_id) REFERENCES users(id),
	FOREIGN KEY (target_id) REFERENCES users(id)
);
`

// Migrate applies Schema to db.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
