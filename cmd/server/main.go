package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/tkondo/chatwire/internal/adapters/http"
	"github.com/tkondo/chatwire/internal/adapters/ws"
	"github.com/tkondo/chatwire/internal/app"
	"github.com/tkondo/chatwire/internal/assist"
	"github.com/tkondo/chatwire/internal/cache"
	"github.com/tkondo/chatwire/internal/config"
	"github.com/tkondo/chatwire/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	users := storage.NewUserRepo(db)
	rooms := storage.NewRoomRepo(db)
	messages := storage.NewMessageRepo(db)

	var msgCache cache.MessageCache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		msgCache = redisCache
		log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis history cache")
	} else {
		msgCache = cache.NewMemoryCache()
	}

	presence := app.NewPresence()
	roomRouter := app.NewRouter()
	pipeline := app.NewPipeline(roomRouter, rooms, messages, msgCache)
	history := app.NewHistory(rooms, messages, msgCache, cfg.History.CacheTTL)
	relay := assist.NewRelay(assist.NewOpenAIStreamer(cfg.OpenAI))
	controller := ws.NewController(presence, roomRouter, users, pipeline, relay, cfg.WebSocket)

	r := router.SetupRouter(ctx, cfg, controller, history)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("chatwire server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	// Drain message persists that were scheduled before shutdown.
	pipeline.Wait()
	log.Info().Msg("Server exited gracefully")
}
