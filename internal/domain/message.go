package domain

import (
	"errors"
	"time"
)

var ErrContentRequired = errors.New("message content is required")

// Message is immutable once created. Its id is assigned by the server
// before the optimistic broadcast, so the broadcast copy and the row a
// client later fetches from history agree.
type Message struct {
	ID         string    `gorm:"primarykey;size:36" json:"id"`
	Content    string    `gorm:"not null" json:"content"`
	ChatRoomID string    `gorm:"size:36;not null;index" json:"chatRoomId"`
	UserID     string    `gorm:"size:36;not null;index" json:"userId"`
	User       User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Message) TableName() string { return "messages" }

// MessageView is the wire shape shared by room broadcasts and history
// responses, letting clients deduplicate by message id.
type MessageView struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	ChatRoomID string    `json:"chatRoomId"`
	UserID     string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	User       Author    `json:"user"`
}

func (m *Message) View() MessageView {
	return MessageView{
		ID:         m.ID,
		Content:    m.Content,
		ChatRoomID: m.ChatRoomID,
		UserID:     m.UserID,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		User:       Author{ID: m.User.ID, Name: m.User.Name},
	}
}
