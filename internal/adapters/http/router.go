// Package http wires the gin surface: the websocket endpoint, the
// room-history fetch used on initial load, and health.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tkondo/chatwire/internal/adapters/ws"
	"github.com/tkondo/chatwire/internal/app"
	"github.com/tkondo/chatwire/internal/config"
	"github.com/tkondo/chatwire/internal/domain"
)

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *ws.Controller, history *app.History) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	r.GET("/ws", func(c *gin.Context) {
		ctl.Handle(ctx, c)
	})

	v1 := r.Group("/v1")
	v1.GET("/chat/:roomId/messages", HistoryHandler(history))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}

// HistoryHandler serves the full stored history of a room, oldest
// first. The roomId path segment is the unique room name (for direct
// rooms, the sorted "userA-userB" pair).
func HistoryHandler(history *app.History) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomName := c.Param("roomId")

		messages, err := history.Messages(c.Request.Context(), roomName)
		if err != nil {
			if errors.Is(err, domain.ErrRoomRequired) {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Room Name is required"})
				return
			}
			log.Error().Err(err).Str("module", "adapters.http").Str("room", roomName).Msg("history fetch failed")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching messages"})
			return
		}

		c.JSON(http.StatusOK, messages)
	}
}
