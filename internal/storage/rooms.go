package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tkondo/chatwire/internal/domain"
)

// RoomRepo manages the durable side of rooms. At most one row exists
// per room name; the unique index backs that up under concurrency.
type RoomRepo struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// FindOrCreateByName returns the room named name, creating it on first
// use. A create that loses a concurrent race falls back to re-reading
// the winner's row.
func (r *RoomRepo) FindOrCreateByName(ctx context.Context, name string) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&room).Error
	if err == nil {
		return &room, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	created, err := domain.NewChatRoom(name)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		if err2 := r.db.WithContext(ctx).Where("name = ?", name).First(&room).Error; err2 == nil {
			return &room, nil
		}
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return created, nil
}

// FindByName retrieves a room by its unique name, ErrNotFound if the
// room has never been created.
func (r *RoomRepo) FindByName(ctx context.Context, name string) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}
