package domain

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LobbyRoom is the fixed name of the shared global room.
const LobbyRoom = "lobby"

var ErrRoomRequired = errors.New("room id is required")

// ChatRoom is the durable half of a room. Live membership is held only
// in memory by the router; the durable row exists once a message has
// been sent to the room.
type ChatRoom struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (ChatRoom) TableName() string { return "chat_rooms" }

func NewChatRoom(name string) (*ChatRoom, error) {
	if name == "" {
		return nil, ErrRoomRequired
	}
	return &ChatRoom{ID: uuid.NewString(), Name: name}, nil
}

// DirectRoomName derives the canonical room name for a pair of users.
// Both participants compute the same name regardless of argument order.
func DirectRoomName(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return strings.Join(ids, "-")
}
