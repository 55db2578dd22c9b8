package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tkondo/chatwire/internal/app"
	"github.com/tkondo/chatwire/internal/cache"
	"github.com/tkondo/chatwire/internal/domain"
	"github.com/tkondo/chatwire/internal/storage"
)

func setupHistoryRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.ChatRoom{}, &domain.Message{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	rooms := storage.NewRoomRepo(db)
	messages := storage.NewMessageRepo(db)
	history := app.NewHistory(rooms, messages, cache.NewMemoryCache(), time.Minute)

	r := gin.New()
	r.GET("/v1/chat/:roomId/messages", HistoryHandler(history))
	return r, db
}

func TestHistoryHandler_UnknownRoom(t *testing.T) {
	r, _ := setupHistoryRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/chat/never-created/messages", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown room, got %d", w.Code)
	}
	var messages []domain.MessageView
	if err := json.Unmarshal(w.Body.Bytes(), &messages); err != nil {
		t.Fatalf("expected a JSON array, got %q: %v", w.Body.String(), err)
	}
	if len(messages) != 0 {
		t.Errorf("expected empty history, got %d messages", len(messages))
	}
}

func TestHistoryHandler_ReturnsStoredMessages(t *testing.T) {
	r, db := setupHistoryRouter(t)
	ctx := context.Background()

	users := storage.NewUserRepo(db)
	rooms := storage.NewRoomRepo(db)
	messageRepo := storage.NewMessageRepo(db)

	author, err := users.FindOrCreateByName(ctx, "alice")
	if err != nil {
		t.Fatalf("failed to create author: %v", err)
	}
	room, err := rooms.FindOrCreateByName(ctx, "alice-bob")
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second"} {
		msg := &domain.Message{
			ID:         uuid.NewString(),
			Content:    content,
			ChatRoomID: room.ID,
			UserID:     author.ID,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
			UpdatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		if err := messageRepo.Create(ctx, msg); err != nil {
			t.Fatalf("failed to seed message: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/chat/alice-bob/messages", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var messages []domain.MessageView
	if err := json.Unmarshal(w.Body.Bytes(), &messages); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Content != "first" || messages[1].Content != "second" {
		t.Errorf("expected ascending order, got %q then %q", messages[0].Content, messages[1].Content)
	}
	if messages[0].User.Name != "alice" {
		t.Errorf("expected author alice, got %q", messages[0].User.Name)
	}
}
