// Package postgres implements store.Store on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vovakirdan/arangam-server/internal/store"
)

// Schema creates every table the store needs. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	profile_photo TEXT NOT NULL DEFAULT '',
	is_online     BOOLEAN NOT NULL DEFAULT FALSE,
	last_seen     TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rooms (
	id              BIGSERIAL PRIMARY KEY,
	name            TEXT NOT NULL,
	type            TEXT NOT NULL DEFAULT 'public',
	is_global       BOOLEAN NOT NULL DEFAULT FALSE,
	creator_id      BIGINT REFERENCES users(id),
	last_message_id BIGINT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_rooms_single_global ON rooms(is_global) WHERE is_global;

CREATE TABLE IF NOT EXISTS room_members (
	room_id   BIGINT NOT NULL REFERENCES rooms(id),
	user_id   BIGINT NOT NULL REFERENCES users(id),
	joined_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
	PRIMARY KEY (room_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_room_members_user ON room_members(user_id);

CREATE TABLE IF NOT EXISTS messages (
	id         BIGSERIAL PRIMARY KEY,
	room_id    BIGINT NOT NULL REFERENCES rooms(id),
	sender_id  BIGINT NOT NULL REFERENCES users(id),
	type       TEXT NOT NULL DEFAULT 'text',
	content    TEXT NOT NULL DEFAULT '',
	file_url   TEXT,
	file_name  TEXT,
	file_size  BIGINT,
	deleted    BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_by BIGINT REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id, created_at DESC);

CREATE TABLE IF NOT EXISTS message_reads (
	message_id BIGINT NOT NULL REFERENCES messages(id),
	user_id    BIGINT NOT NULL REFERENCES users(id),
	read_at    TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
	PRIMARY KEY (message_id, user_id)
);

CREATE TABLE IF NOT EXISTS blocked_users (
	user_id    BIGINT NOT NULL REFERENCES users(id),
	target_id  BIGINT NOT NULL REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
	PRIMARY KEY (user_id, target_id)
);

CREATE TABLE IF NOT EXISTS favourites (
	user_id    BIGINT NOT NULL REFERENCES users(id),
	target_id  BIGINT NOT NULL REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
	PRIMARY KEY (user_id, target_id)
);
`

// PostgresStore implements store.Store for PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*PostgresStore)(nil)

// New connects to databaseURL, verifies the connection and applies Schema.
func New(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases every pooled connection.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func notFound(what string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return fmt.Errorf("query %s: %w", what, err)
}

// ==== UserStore implementation ====

const userColumns = `id, username, email, password_hash, profile_photo, is_online, last_seen, created_at`

func scanUser(row pgx.Row) (*store.User, error) {
	var user store.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.ProfilePhoto,
		&user.IsOnline,
		&user.LastSeen,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) getUser(ctx context.Context, where string, arg any) (*store.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}

// CreateUser creates a new user with hashed password.
func (s *PostgresStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*store.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns, username, email, passwordHash)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	return s.getUser(ctx, "id = $1", id)
}

// GetUserByUsername retrieves a user by username.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	return s.getUser(ctx, "username = $1", username)
}

// GetUserByEmail retrieves a user by email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.getUser(ctx, "email = $1", email)
}

// ListUsersExcept lists every user other than the given one, ordered by username.
func (s *PostgresStore) ListUsersExcept(ctx context.Context, userID int64) ([]*store.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id <> $1 ORDER BY username ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]*store.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SetUserPresence persists the online flag; lastSeen is stored when non-nil.
func (s *PostgresStore) SetUserPresence(ctx context.Context, userID int64, online bool, lastSeen *time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET is_online = $1, last_seen = COALESCE($2, last_seen) WHERE id = $3
	`, online, lastSeen, userID)
	if err != nil {
		return fmt.Errorf("update user presence: %w", err)
	}
	return nil
}

const (
	tableBlocked    = "blocked_users"
	tableFavourites = "favourites"
)

func (s *PostgresStore) addUserLink(ctx context.Context, table string, userID, targetID int64) error {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO `+table+` (user_id, target_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
	`, userID, targetID); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func (s *PostgresStore) removeUserLink(ctx context.Context, table string, userID, targetID int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1 AND target_id = $2`, userID, targetID); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

func (s *PostgresStore) listUserLinks(ctx context.Context, table string, userID int64) ([]*store.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.username, u.email, u.password_hash, u.profile_photo, u.is_online, u.last_seen, u.created_at
		FROM `+table+` l
		JOIN users u ON u.id = l.target_id
		WHERE l.user_id = $1
		ORDER BY l.created_at, l.target_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*store.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return users, nil
}

// BlockUser adds targetID to userID's block list. Blocking twice is a no-op.
func (s *PostgresStore) BlockUser(ctx context.Context, userID, targetID int64) error {
	return s.addUserLink(ctx, tableBlocked, userID, targetID)
}

// UnblockUser removes targetID from userID's block list.
func (s *PostgresStore) UnblockUser(ctx context.Context, userID, targetID int64) error {
	return s.removeUserLink(ctx, tableBlocked, userID, targetID)
}

// ListBlockedUsers lists the users userID has blocked, in the order they were blocked.
func (s *PostgresStore) ListBlockedUsers(ctx context.Context, userID int64) ([]*store.User, error) {
	return s.listUserLinks(ctx, tableBlocked, userID)
}

// AddFavourite adds targetID to userID's favourites. Adding twice is a no-op.
func (s *PostgresStore) AddFavourite(ctx context.Context, userID, targetID int64) error {
	return s.addUserLink(ctx, tableFavourites, userID, targetID)
}

// RemoveFavourite removes targetID from userID's favourites.
func (s *PostgresStore) RemoveFavourite(ctx context.Context, userID, targetID int64) error {
	return s.removeUserLink(ctx, tableFavourites, userID, targetID)
}

// ListFavourites lists userID's favourite users, in the order they were added.
func (s *PostgresStore) ListFavourites(ctx context.Context, userID int64) ([]*store.User, error) {
	return s.listUserLinks(ctx, tableFavourites, userID)
}

// ==== RoomStore implementation ====

const roomColumns = `id, name, type, is_global, creator_id, last_message_id, created_at, updated_at`

func scanRoom(row pgx.Row) (*store.Room, error) {
	var room store.Room
	var roomType string
	if err := row.Scan(
		&room.ID,
		&room.Name,
		&roomType,
		&room.IsGlobal,
		&room.CreatorID,
		&room.LastMessageID,
		&room.CreatedAt,
		&room.UpdatedAt,
	); err != nil {
		return nil, err
	}
	room.Type = store.RoomType(roomType)
	return &room, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadMembers(ctx context.Context, q querier, room *store.Room) error {
	rows, err := q.Query(ctx, `SELECT user_id FROM room_members WHERE room_id = $1 ORDER BY joined_at, user_id`, room.ID)
	if err != nil {
		return fmt.Errorf("query members: %w", err)
	}
	members, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return fmt.Errorf("scan members: %w", err)
	}
	room.Members = members
	return nil
}

// CreateRoom creates a room with the given members. Duplicate member ids are ignored.
func (s *PostgresStore) CreateRoom(ctx context.Context, room *store.Room) (*store.Room, error) {
	var roomID int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO rooms (name, type, is_global, creator_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, room.Name, string(room.Type), room.IsGlobal, room.CreatorID).Scan(&roomID); err != nil {
			return fmt.Errorf("insert room: %w", err)
		}
		for _, userID := range room.Members {
			if _, err := tx.Exec(ctx, `
				INSERT INTO room_members (room_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
			`, roomID, userID); err != nil {
				return fmt.Errorf("insert member: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetRoomByID(ctx, roomID)
}

// GetRoomByID retrieves a room by ID, members included.
func (s *PostgresStore) GetRoomByID(ctx context.Context, id int64) (*store.Room, error) {
	room, err := scanRoom(s.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
	if err != nil {
		return nil, notFound("room", err)
	}
	if err := loadMembers(ctx, s.pool, room); err != nil {
		return nil, err
	}
	return room, nil
}

// GetOrCreateGlobalRoom returns the single global room, creating it if absent,
// and ensures userID is a member.
func (s *PostgresStore) GetOrCreateGlobalRoom(ctx context.Context, name string, userID int64) (*store.Room, error) {
	var roomID int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// The partial unique index makes concurrent creators converge on one row.
		if _, err := tx.Exec(ctx, `
			INSERT INTO rooms (name, type, is_global, creator_id)
			VALUES ($1, 'public', TRUE, $2)
			ON CONFLICT (is_global) WHERE is_global DO NOTHING
		`, name, userID); err != nil {
			return fmt.Errorf("insert global room: %w", err)
		}
		if err := tx.QueryRow(ctx, `SELECT id FROM rooms WHERE is_global`).Scan(&roomID); err != nil {
			return fmt.Errorf("query global room: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO room_members (room_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
		`, roomID, userID); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetRoomByID(ctx, roomID)
}

// FindPrivateRoom returns the private room whose members are exactly the two users.
func (s *PostgresStore) FindPrivateRoom(ctx context.Context, userA, userB int64) (*store.Room, error) {
	var roomID int64
	err := s.pool.QueryRow(ctx, `
		SELECT r.id FROM rooms r
		WHERE r.type = 'private'
		  AND EXISTS (SELECT 1 FROM room_members WHERE room_id = r.id AND user_id = $1)
		  AND EXISTS (SELECT 1 FROM room_members WHERE room_id = r.id AND user_id = $2)
		  AND (SELECT COUNT(*) FROM room_members WHERE room_id = r.id) = 2
		LIMIT 1
	`, userA, userB).Scan(&roomID)
	if err != nil {
		return nil, notFound("private room", err)
	}
	return s.GetRoomByID(ctx, roomID)
}

// ListRoomsForMember lists rooms the user belongs to, most recently updated first.
func (s *PostgresStore) ListRoomsForMember(ctx context.Context, userID int64) ([]*store.Room, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.name, r.type, r.is_global, r.creator_id, r.last_message_id, r.created_at, r.updated_at
		FROM rooms r
		JOIN room_members rm ON r.id = rm.room_id
		WHERE rm.user_id = $1
		ORDER BY r.updated_at DESC, r.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	rooms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*store.Room, error) {
		return scanRoom(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan room: %w", err)
	}

	for _, room := range rooms {
		if err := loadMembers(ctx, s.pool, room); err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

// AddMembers adds users to a room and returns the ids that were not members before.
func (s *PostgresStore) AddMembers(ctx context.Context, roomID int64, userIDs []int64) ([]int64, error) {
	added := make([]int64, 0, len(userIDs))
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, userID := range userIDs {
			tag, err := tx.Exec(ctx, `
				INSERT INTO room_members (room_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
			`, roomID, userID)
			if err != nil {
				return fmt.Errorf("insert member: %w", err)
			}
			if tag.RowsAffected() > 0 {
				added = append(added, userID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// RemoveMember removes a user from a room.
func (s *PostgresStore) RemoveMember(ctx context.Context, roomID, userID int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM room_members WHERE room_id = $1 AND user_id = $2`, roomID, userID); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// SetLastMessage points the room at its newest message and bumps updated_at.
func (s *PostgresStore) SetLastMessage(ctx context.Context, roomID, messageID int64, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE rooms SET last_message_id = $1, updated_at = $2 WHERE id = $3`, messageID, at, roomID)
	if err != nil {
		return fmt.Errorf("update room last message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("room %d: %w", roomID, store.ErrNotFound)
	}
	return nil
}

// DeleteRoom removes a room together with its members and messages.
func (s *PostgresStore) DeleteRoom(ctx context.Context, roomID int64) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		batch.Queue(`DELETE FROM message_reads WHERE message_id IN (SELECT id FROM messages WHERE room_id = $1)`, roomID)
		batch.Queue(`DELETE FROM messages WHERE room_id = $1`, roomID)
		batch.Queue(`DELETE FROM room_members WHERE room_id = $1`, roomID)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("delete room contents: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
		if err != nil {
			return fmt.Errorf("delete room: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("room %d: %w", roomID, store.ErrNotFound)
		}
		return nil
	})
}

// ==== MessageStore implementation ====

const messageColumns = `id, room_id, sender_id, type, content, file_url, file_name, file_size, deleted, deleted_by, created_at,
	COALESCE((SELECT array_agg(user_id ORDER BY read_at) FROM message_reads WHERE message_id = messages.id), '{}')`

func scanMessage(row pgx.Row) (*store.Message, error) {
	var msg store.Message
	var msgType string
	var fileURL, fileName *string
	var fileSize *int64
	if err := row.Scan(
		&msg.ID,
		&msg.RoomID,
		&msg.SenderID,
		&msgType,
		&msg.Content,
		&fileURL,
		&fileName,
		&fileSize,
		&msg.Deleted,
		&msg.DeletedBy,
		&msg.CreatedAt,
		&msg.ReadBy,
	); err != nil {
		return nil, err
	}
	msg.Type = store.MessageType(msgType)
	if fileURL != nil {
		msg.File = &store.FileInfo{URL: *fileURL}
		if fileName != nil {
			msg.File.Name = *fileName
		}
		if fileSize != nil {
			msg.File.Size = *fileSize
		}
	}
	return &msg, nil
}

func (s *PostgresStore) queryMessages(ctx context.Context, query string, args ...any) ([]*store.Message, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*store.Message, error) {
		return scanMessage(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}
	return msgs, nil
}

// CreateMessage persists msg and fills in its ID.
func (s *PostgresStore) CreateMessage(ctx context.Context, msg *store.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	msg.CreatedAt = msg.CreatedAt.UTC()

	var fileURL, fileName *string
	var fileSize *int64
	if msg.File != nil {
		fileURL = &msg.File.URL
		if msg.File.Name != "" {
			fileName = &msg.File.Name
		}
		if msg.File.Size != 0 {
			fileSize = &msg.File.Size
		}
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (room_id, sender_id, type, content, file_url, file_name, file_size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, msg.RoomID, msg.SenderID, string(msg.Type), msg.Content, fileURL, fileName, fileSize, msg.CreatedAt).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if msg.ReadBy == nil {
		msg.ReadBy = make([]int64, 0)
	}
	return nil
}

// GetMessageByID retrieves a message by ID.
func (s *PostgresStore) GetMessageByID(ctx context.Context, id int64) (*store.Message, error) {
	msg, err := scanMessage(s.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if err != nil {
		return nil, notFound("message", err)
	}
	return msg, nil
}

// GetMessagesByIDs retrieves the messages that exist among ids. Missing ids are skipped.
func (s *PostgresStore) GetMessagesByIDs(ctx context.Context, ids []int64) ([]*store.Message, error) {
	if len(ids) == 0 {
		return []*store.Message{}, nil
	}
	return s.queryMessages(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ANY($1) ORDER BY id`, ids)
}

// ListMessages retrieves up to limit messages from a room created before the given
// time (all when nil), oldest first.
func (s *PostgresStore) ListMessages(ctx context.Context, roomID int64, limit int, before *time.Time) ([]*store.Message, error) {
	msgs, err := s.queryMessages(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE room_id = $1 AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, roomID, before, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// MarkMessagesDeleted soft-deletes all ids in one transaction.
func (s *PostgresStore) MarkMessagesDeleted(ctx context.Context, ids []int64, deletedBy int64) error {
	if len(ids) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE messages SET deleted = TRUE, deleted_by = $1 WHERE NOT deleted AND id = ANY($2)
		`, deletedBy, ids); err != nil {
			return fmt.Errorf("mark messages deleted: %w", err)
		}
		return nil
	})
}

// MarkMessageRead adds userID to the message's read-by set.
func (s *PostgresStore) MarkMessageRead(ctx context.Context, messageID, userID int64) error {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO message_reads (message_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
	`, messageID, userID); err != nil {
		return fmt.Errorf("insert message read: %w", err)
	}
	return nil
}
