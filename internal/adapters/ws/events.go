package ws

import "encoding/json"

// Envelope frames every message on the wire, both directions:
// {"event": "...", "data": ...}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type joinAppPayload struct {
	DisplayName string `json:"displayName"`
}

type registeredPayload struct {
	DurableUserID string `json:"durableUserId"`
	DisplayName   string `json:"displayName"`
	ConnectionID  string `json:"connectionId"`
}

type sendMessagePayload struct {
	ChatRoomID string `json:"chatRoomId"`
	Content    string `json:"content"`
}

type assistPayload struct {
	Prompt string `json:"prompt"`
}
