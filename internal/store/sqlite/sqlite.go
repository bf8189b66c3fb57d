package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/arangam-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func notFound(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return fmt.Errorf("query %s: %w", what, err)
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

type rowScanner interface {
	Scan(dest ...any) error
}

// ==== UserStore implementation ====

const userColumns = `id, username, email, password_hash, profile_photo, is_online, last_seen, created_at`

func scanUser(row rowScanner) (*store.User, error) {
	var user store.User
	var lastSeen sql.NullTime
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.ProfilePhoto,
		&user.IsOnline,
		&lastSeen,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	if lastSeen.Valid {
		user.LastSeen = &lastSeen.Time
	}
	return &user, nil
}

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, email, passwordHash, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	user, err := scanUser(row)
	if err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	user, err := scanUser(row)
	if err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}

// ListUsersExcept lists every user other than the given one, ordered by username.
func (s *SQLiteStore) ListUsersExcept(ctx context.Context, userID int64) ([]*store.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE id != ? ORDER BY username ASC`, userID)
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
func (s *SQLiteStore) SetUserPresence(ctx context.Context, userID int64, online bool, lastSeen *time.Time) error {
	var err error
	if lastSeen != nil {
		_, err = s.db.ExecContext(ctx, `UPDATE users SET is_online = ?, last_seen = ? WHERE id = ?`, online, lastSeen.UTC(), userID)
	} else {
		_, err = s.db.ExecContext(ctx, `UPDATE users SET is_online = ? WHERE id = ?`, online, userID)
	}
	if err != nil {
		return fmt.Errorf("update user presence: %w", err)
	}
	return nil
}

// User lists are kept in two tables with the same shape.
const (
	tableBlocked    = "blocked_users"
	tableFavourites = "favourites"
)

func (s *SQLiteStore) addUserLink(ctx context.Context, table string, userID, targetID int64) error {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO `+table+` (user_id, target_id) VALUES (?, ?)`, userID, targetID); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func (s *SQLiteStore) removeUserLink(ctx context.Context, table string, userID, targetID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = ? AND target_id = ?`, userID, targetID); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

func (s *SQLiteStore) listUserLinks(ctx context.Context, table string, userID int64) ([]*store.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.profile_photo, u.is_online, u.last_seen, u.created_at
		FROM ` + table + ` l
		JOIN users u ON u.id = l.target_id
		WHERE l.user_id = ?
		ORDER BY l.rowid
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
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

// BlockUser adds targetID to userID's block list. Blocking twice is a no-op.
func (s *SQLiteStore) BlockUser(ctx context.Context, userID, targetID int64) error {
	return s.addUserLink(ctx, tableBlocked, userID, targetID)
}

// UnblockUser removes targetID from userID's block list.
func (s *SQLiteStore) UnblockUser(ctx context.Context, userID, targetID int64) error {
	return s.removeUserLink(ctx, tableBlocked, userID, targetID)
}

// ListBlockedUsers lists the users userID has blocked, in the order they were blocked.
func (s *SQLiteStore) ListBlockedUsers(ctx context.Context, userID int64) ([]*store.User, error) {
	return s.listUserLinks(ctx, tableBlocked, userID)
}

// AddFavourite adds targetID to userID's favourites. Adding twice is a no-op.
func (s *SQLiteStore) AddFavourite(ctx context.Context, userID, targetID int64) error {
	return s.addUserLink(ctx, tableFavourites, userID, targetID)
}

// RemoveFavourite removes targetID from userID's favourites.
func (s *SQLiteStore) RemoveFavourite(ctx context.Context, userID, targetID int64) error {
	return s.removeUserLink(ctx, tableFavourites, userID, targetID)
}

// ListFavourites lists userID's favourite users, in the order they were added.
func (s *SQLiteStore) ListFavourites(ctx context.Context, userID int64) ([]*store.User, error) {
	return s.listUserLinks(ctx, tableFavourites, userID)
}

// ==== RoomStore implementation ====

const roomColumns = `id, name, type, is_global, creator_id, last_message_id, created_at, updated_at`

func scanRoom(row rowScanner) (*store.Room, error) {
	var room store.Room
	var creatorID, lastMessageID sql.NullInt64
	if err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Type,
		&room.IsGlobal,
		&creatorID,
		&lastMessageID,
		&room.CreatedAt,
		&room.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if creatorID.Valid {
		room.CreatorID = &creatorID.Int64
	}
	if lastMessageID.Valid {
		room.LastMessageID = &lastMessageID.Int64
	}
	return &room, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadMembers(ctx context.Context, q queryer, room *store.Room) error {
	rows, err := q.QueryContext(ctx, `SELECT user_id FROM room_members WHERE room_id = ? ORDER BY rowid`, room.ID)
	if err != nil {
		return fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	room.Members = make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan member: %w", err)
		}
		room.Members = append(room.Members, id)
	}
	return rows.Err()
}

// CreateRoom creates a room with the given members. Duplicate member ids are ignored.
func (s *SQLiteStore) CreateRoom(ctx context.Context, room *store.Room) (*store.Room, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO rooms (name, type, is_global, creator_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, room.Name, room.Type, room.IsGlobal, room.CreatorID, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	roomID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	for _, userID := range room.Members {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO room_members (room_id, user_id) VALUES (?, ?)`, roomID, userID); err != nil {
			return nil, fmt.Errorf("insert member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetRoomByID(ctx, roomID)
}

// GetRoomByID retrieves a room by ID, members included.
func (s *SQLiteStore) GetRoomByID(ctx context.Context, id int64) (*store.Room, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	room, err := scanRoom(row)
	if err != nil {
		return nil, notFound("room", err)
	}
	if err := loadMembers(ctx, s.db, room); err != nil {
		return nil, err
	}
	return room, nil
}

// GetOrCreateGlobalRoom returns the single global room, creating it if absent,
// and ensures userID is a member.
func (s *SQLiteStore) GetOrCreateGlobalRoom(ctx context.Context, name string, userID int64) (*store.Room, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	var roomID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE is_global = 1`).Scan(&roomID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		now := time.Now().UTC()
		result, insertErr := tx.ExecContext(ctx, `
			INSERT INTO rooms (name, type, is_global, creator_id, created_at, updated_at)
			VALUES (?, 'public', 1, ?, ?, ?)
		`, name, userID, now, now)
		if insertErr != nil {
			return nil, fmt.Errorf("insert global room: %w", insertErr)
		}
		if roomID, err = result.LastInsertId(); err != nil {
			return nil, fmt.Errorf("get last insert id: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("query global room: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO room_members (room_id, user_id) VALUES (?, ?)`, roomID, userID); err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetRoomByID(ctx, roomID)
}

// FindPrivateRoom returns the private room whose members are exactly the two users.
func (s *SQLiteStore) FindPrivateRoom(ctx context.Context, userA, userB int64) (*store.Room, error) {
	query := `
		SELECT r.id FROM rooms r
		WHERE r.type = 'private'
		  AND EXISTS (SELECT 1 FROM room_members WHERE room_id = r.id AND user_id = ?)
		  AND EXISTS (SELECT 1 FROM room_members WHERE room_id = r.id AND user_id = ?)
		  AND (SELECT COUNT(*) FROM room_members WHERE room_id = r.id) = 2
		LIMIT 1
	`
	var roomID int64
	if err := s.db.QueryRowContext(ctx, query, userA, userB).Scan(&roomID); err != nil {
		return nil, notFound("private room", err)
	}
	return s.GetRoomByID(ctx, roomID)
}

// ListRoomsForMember lists rooms the user belongs to, most recently updated first.
func (s *SQLiteStore) ListRoomsForMember(ctx context.Context, userID int64) ([]*store.Room, error) {
	query := `
		SELECT r.id, r.name, r.type, r.is_global, r.creator_id, r.last_message_id, r.created_at, r.updated_at
		FROM rooms r
		JOIN room_members rm ON r.id = rm.room_id
		WHERE rm.user_id = ?
		ORDER BY r.updated_at DESC, r.id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}

	rooms := make([]*store.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Single connection: rows must be released before the member queries run.
	rows.Close()

	for _, room := range rooms {
		if err := loadMembers(ctx, s.db, room); err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

// AddMembers adds users to a room and returns the ids that were not members before.
func (s *SQLiteStore) AddMembers(ctx context.Context, roomID int64, userIDs []int64) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	added := make([]int64, 0, len(userIDs))
	for _, userID := range userIDs {
		result, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO room_members (room_id, user_id) VALUES (?, ?)`, roomID, userID)
		if err != nil {
			return nil, fmt.Errorf("insert member: %w", err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			added = append(added, userID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return added, nil
}

// RemoveMember removes a user from a room.
func (s *SQLiteStore) RemoveMember(ctx context.Context, roomID, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM room_members WHERE room_id = ? AND user_id = ?`, roomID, userID); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// SetLastMessage points the room at its newest message and bumps updated_at.
func (s *SQLiteStore) SetLastMessage(ctx context.Context, roomID, messageID int64, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `UPDATE rooms SET last_message_id = ?, updated_at = ? WHERE id = ?`, messageID, at.UTC(), roomID)
	if err != nil {
		return fmt.Errorf("update room last message: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("room %d: %w", roomID, store.ErrNotFound)
	}
	return nil
}

// DeleteRoom removes a room together with its members and messages.
func (s *SQLiteStore) DeleteRoom(ctx context.Context, roomID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	steps := []struct {
		what  string
		query string
	}{
		{"message reads", `DELETE FROM message_reads WHERE message_id IN (SELECT id FROM messages WHERE room_id = ?)`},
		{"messages", `DELETE FROM messages WHERE room_id = ?`},
		{"members", `DELETE FROM room_members WHERE room_id = ?`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, roomID); err != nil {
			return fmt.Errorf("delete %s: %w", step.what, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("room %d: %w", roomID, store.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ==== MessageStore implementation ====

const messageColumns = `id, room_id, sender_id, type, content, file_url, file_name, file_size, deleted, deleted_by, created_at`

func scanMessage(row rowScanner) (*store.Message, error) {
	var msg store.Message
	var fileURL, fileName sql.NullString
	var fileSize, deletedBy sql.NullInt64
	if err := row.Scan(
		&msg.ID,
		&msg.RoomID,
		&msg.SenderID,
		&msg.Type,
		&msg.Content,
		&fileURL,
		&fileName,
		&fileSize,
		&msg.Deleted,
		&deletedBy,
		&msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	if fileURL.Valid {
		msg.File = &store.FileInfo{URL: fileURL.String, Name: fileName.String, Size: fileSize.Int64}
	}
	if deletedBy.Valid {
		msg.DeletedBy = &deletedBy.Int64
	}
	msg.ReadBy = make([]int64, 0)
	return &msg, nil
}

func fileColumns(f *store.FileInfo) (url, name sql.NullString, size sql.NullInt64) {
	if f == nil {
		return
	}
	return sql.NullString{String: f.URL, Valid: true},
		sql.NullString{String: f.Name, Valid: f.Name != ""},
		sql.NullInt64{Int64: f.Size, Valid: f.Size != 0}
}

// CreateMessage persists msg and fills in its ID.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *store.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	msg.CreatedAt = msg.CreatedAt.UTC()
	url, name, size := fileColumns(msg.File)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (room_id, sender_id, type, content, file_url, file_name, file_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.RoomID, msg.SenderID, msg.Type, msg.Content, url, name, size, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.ID = id
	if msg.ReadBy == nil {
		msg.ReadBy = make([]int64, 0)
	}
	return nil
}

// GetMessageByID retrieves a message by ID.
func (s *SQLiteStore) GetMessageByID(ctx context.Context, id int64) (*store.Message, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	msg, err := scanMessage(row)
	if err != nil {
		return nil, notFound("message", err)
	}
	if err := s.loadReadBy(ctx, []*store.Message{msg}); err != nil {
		return nil, err
	}
	return msg, nil
}

// GetMessagesByIDs retrieves the messages that exist among ids. Missing ids are skipped.
func (s *SQLiteStore) GetMessagesByIDs(ctx context.Context, ids []int64) ([]*store.Message, error) {
	if len(ids) == 0 {
		return []*store.Message{}, nil
	}
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id`
	return s.queryMessages(ctx, query, int64Args(ids)...)
}

// ListMessages retrieves up to limit messages from a room created before the given
// time (all when nil), oldest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomID int64, limit int, before *time.Time) ([]*store.Message, error) {
	var (
		query string
		args  []any
	)
	if before != nil {
		query = `SELECT ` + messageColumns + ` FROM messages WHERE room_id = ? AND created_at < ? ORDER BY created_at DESC, id DESC LIMIT ?`
		args = []any{roomID, before.UTC(), limit}
	} else {
		query = `SELECT ` + messageColumns + ` FROM messages WHERE room_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`
		args = []any{roomID, limit}
	}

	msgs, err := s.queryMessages(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	// Reverse to chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *SQLiteStore) queryMessages(ctx context.Context, query string, args ...any) ([]*store.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}

	msgs := make([]*store.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := s.loadReadBy(ctx, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *SQLiteStore) loadReadBy(ctx context.Context, msgs []*store.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	byID := make(map[int64]*store.Message, len(msgs))
	ids := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	query := `SELECT message_id, user_id FROM message_reads WHERE message_id IN (` + placeholders(len(ids)) + `) ORDER BY rowid`
	rows, err := s.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("query message reads: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID, userID int64
		if err := rows.Scan(&messageID, &userID); err != nil {
			return fmt.Errorf("scan message read: %w", err)
		}
		if m, ok := byID[messageID]; ok {
			m.ReadBy = append(m.ReadBy, userID)
		}
	}
	return rows.Err()
}

// MarkMessagesDeleted soft-deletes all ids in one transaction.
func (s *SQLiteStore) MarkMessagesDeleted(ctx context.Context, ids []int64, deletedBy int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	args := append([]any{deletedBy}, int64Args(ids)...)
	query := `UPDATE messages SET deleted = 1, deleted_by = ? WHERE deleted = 0 AND id IN (` + placeholders(len(ids)) + `)`
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark messages deleted: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// MarkMessageRead adds userID to the message's read-by set.
func (s *SQLiteStore) MarkMessageRead(ctx context.Context, messageID, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO message_reads (message_id, user_id) VALUES (?, ?)`, messageID, userID); err != nil {
		return fmt.Errorf("insert message read: %w", err)
	}
	return nil
}
