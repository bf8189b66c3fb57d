package core

import "github.com/vovakirdan/arangam-server/internal/store"

// Draft is an outbound message intent before persistence.
type Draft struct {
	Type    store.MessageType
	Content string
	File    *store.FileInfo
}

// Sender is the public profile attached to broadcast messages. It never carries
// credentials.
type Sender struct {
	ID           int64
	Username     string
	Email        string
	ProfilePhoto string
}

// Message is a persisted message enriched with its sender's public profile.
type Message struct {
	store.Message
	Sender Sender
}

// SenderFromUser extracts the public profile of u.
func SenderFromUser(u *store.User) Sender {
	return Sender{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		ProfilePhoto: u.ProfilePhoto,
	}
}
