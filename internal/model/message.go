package model

import (
	"time"

	"github.com/google/uuid"
)

// Message is a directed portal message. ReadAt nil signifies unread.
type Message struct {
	Base
	FromUserID uuid.UUID  `json:"from_user_id" db:"from_user_id"`
	ToUserID   uuid.UUID  `json:"to_user_id" db:"to_user_id"`
	Content    string     `json:"content" db:"content"`
	ReadAt     *time.Time `json:"read_at,omitempty" db:"read_at"`
}

// IsRead reports whether the recipient has read the message
func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}

// SendMessageRequest represents message submission parameters
type SendMessageRequest struct {
	ToUserID string `json:"to_user_id" binding:"required,uuid"`
	Content  string `json:"content" binding:"required,max=4000"`
}

// MessageFilter represents message list parameters. WithUserID narrows the
// inbox to the conversation with a single counterparty.
type MessageFilter struct {
	WithUserID uuid.UUID `json:"with_user_id" form:"with_user_id"`
	UnreadOnly bool      `json:"unread_only" form:"unread_only"`
}

// UnreadCount is the inbox badge payload
type UnreadCount struct {
	Count int `json:"count"`
}
