// Package domain contains the durable entities and wire views of the
// chat core. No transport or persistence logic here.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDisplayNameRequired = errors.New("display name is required")
	ErrNotRegistered       = errors.New("user not registered")
)

// User is the durable identity a display name resolves to. It outlives
// any live connection and is never mutated after creation.
type User struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	Name      string    `gorm:"size:100;not null;index" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (User) TableName() string { return "users" }

// NewUser avoids ad-hoc struct literals in the storage layer.
func NewUser(name string) (*User, error) {
	if name == "" {
		return nil, ErrDisplayNameRequired
	}
	return &User{ID: uuid.NewString(), Name: name}, nil
}

// Author is the embedded user view carried on broadcast and history
// payloads.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
