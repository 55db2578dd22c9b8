package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tkondo/chatwire/internal/domain"
)

// MessageRepo stores messages and serves room history.
type MessageRepo struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create persists a message. The id and creation timestamp are assigned
// by the caller before the optimistic broadcast, never here.
func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListByRoom returns every message of a room with its author, ordered
// by creation time ascending. Persistence completion order is not
// meaningful; only created_at is.
func (r *MessageRepo) ListByRoom(ctx context.Context, roomID string) ([]domain.MessageView, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("chat_room_id = ?", roomID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	views := make([]domain.MessageView, 0, len(messages))
	for i := range messages {
		views = append(views, messages[i].View())
	}
	return views, nil
}
