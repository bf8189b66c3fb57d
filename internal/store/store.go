package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned (wrapped) when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a user in the system.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	ProfilePhoto string
	IsOnline     bool
	LastSeen     *time.Time
	CreatedAt    time.Time
}

// RoomType defines different types of rooms.
type RoomType string

const (
	RoomTypePublic  RoomType = "public"
	RoomTypePrivate RoomType = "private"
	RoomTypeGroup   RoomType = "group"
)

// Valid reports whether t is a known room type.
func (t RoomType) Valid() bool {
	switch t {
	case RoomTypePublic, RoomTypePrivate, RoomTypeGroup:
		return true
	}
	return false
}

// Room represents a chat room.
type Room struct {
	ID            int64
	Name          string
	Type          RoomType
	IsGlobal      bool
	Members       []int64
	CreatorID     *int64 // nil for the global room when created by the system
	LastMessageID *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsMember reports whether userID belongs to the room's canonical member set.
func IsMember(room *Room, userID int64) bool {
	if room == nil {
		return false
	}
	for _, id := range room.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// MessageType defines the kind of payload a message carries.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVideo MessageType = "video"
	MessageTypeFile  MessageType = "file"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeFile:
		return true
	}
	return false
}

// FileInfo describes an uploaded attachment.
type FileInfo struct {
	URL  string
	Name string
	Size int64
}

// Message represents a persisted chat message.
type Message struct {
	ID        int64
	RoomID    int64
	SenderID  int64
	Type      MessageType
	Content   string
	File      *FileInfo
	Deleted   bool
	DeletedBy *int64
	ReadBy    []int64
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// ListUsersExcept lists every user other than the given one, ordered by username.
	ListUsersExcept(ctx context.Context, userID int64) ([]*User, error)

	// SetUserPresence persists the online flag; lastSeen is stored when non-nil.
	SetUserPresence(ctx context.Context, userID int64, online bool, lastSeen *time.Time) error

	// BlockUser adds targetID to userID's block list. Blocking twice is a no-op.
	BlockUser(ctx context.Context, userID, targetID int64) error

	// UnblockUser removes targetID from userID's block list.
	UnblockUser(ctx context.Context, userID, targetID int64) error

	// ListBlockedUsers lists the users userID has blocked, in the order they were blocked.
	ListBlockedUsers(ctx context.Context, userID int64) ([]*User, error)

	// AddFavourite adds targetID to userID's favourites. Adding twice is a no-op.
	AddFavourite(ctx context.Context, userID, targetID int64) error

	// RemoveFavourite removes targetID from userID's favourites.
	RemoveFavourite(ctx context.Context, userID, targetID int64) error

	// ListFavourites lists userID's favourite users, in the order they were added.
	ListFavourites(ctx context.Context, userID int64) ([]*User, error)
}

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoom creates a room with the given members. Duplicate member ids are ignored.
	CreateRoom(ctx context.Context, room *Room) (*Room, error)

	// GetRoomByID retrieves a room by ID, members included.
	GetRoomByID(ctx context.Context, id int64) (*Room, error)

	// GetOrCreateGlobalRoom returns the single global room, creating it if absent,
	// and ensures userID is a member.
	GetOrCreateGlobalRoom(ctx context.Context, name string, userID int64) (*Room, error)

	// FindPrivateRoom returns the private room whose members are exactly the two users.
	FindPrivateRoom(ctx context.Context, userA, userB int64) (*Room, error)

	// ListRoomsForMember lists rooms the user belongs to, most recently updated first.
	ListRoomsForMember(ctx context.Context, userID int64) ([]*Room, error)

	// AddMembers adds users to a room and returns the ids that were not members before.
	AddMembers(ctx context.Context, roomID int64, userIDs []int64) ([]int64, error)

	// RemoveMember removes a user from a room.
	RemoveMember(ctx context.Context, roomID, userID int64) error

	// SetLastMessage points the room at its newest message and bumps updated_at.
	SetLastMessage(ctx context.Context, roomID, messageID int64, at time.Time) error

	// DeleteRoom removes a room together with its members and messages.
	DeleteRoom(ctx context.Context, roomID int64) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// CreateMessage persists msg and fills in its ID.
	CreateMessage(ctx context.Context, msg *Message) error

	// GetMessageByID retrieves a message by ID.
	GetMessageByID(ctx context.Context, id int64) (*Message, error)

	// GetMessagesByIDs retrieves the messages that exist among ids. Missing ids are skipped.
	GetMessagesByIDs(ctx context.Context, ids []int64) ([]*Message, error)

	// ListMessages retrieves up to limit messages from a room created before the given
	// time (all when nil), oldest first.
	ListMessages(ctx context.Context, roomID int64, limit int, before *time.Time) ([]*Message, error)

	// MarkMessagesDeleted soft-deletes all ids in one transaction.
	MarkMessagesDeleted(ctx context.Context, ids []int64, deletedBy int64) error

	// MarkMessageRead adds userID to the message's read-by set.
	MarkMessageRead(ctx context.Context, messageID, userID int64) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
