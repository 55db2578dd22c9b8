package assist

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/tkondo/chatwire/internal/app"
)

// Relay forwards generator output to one recipient with explicit
// completion and error framing. Nothing is persisted and nothing
// reaches other connections.
type Relay struct {
	streamer Streamer
}

func NewRelay(streamer Streamer) *Relay {
	return &Relay{streamer: streamer}
}

// Suggest streams chunks as ai_suggestion events to the requesting
// connection, then a single ai_complete, or a single error event on any
// generator failure. Concurrent calls for one connection are not
// deduplicated; their chunks interleave.
func (r *Relay) Suggest(ctx context.Context, prompt string, rcpt app.Recipient) {
	err := r.streamer.Stream(ctx, prompt, func(chunk string) {
		rcpt.Send("ai_suggestion", chunk)
	})
	if err != nil {
		log.Error().Err(err).Str("module", "assist.relay").Msg("suggestion stream failed")
		rcpt.Send("error", "AI Generation Failed")
		return
	}
	rcpt.Send("ai_complete", nil)
}
