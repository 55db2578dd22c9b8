package domain

// PresenceEntry is one row of the "who is online" snapshot. One entry
// exists per live connection with a bound identity; its lifecycle
// mirrors the owning connection.
type PresenceEntry struct {
	ID           string `json:"id"` // durable user id
	Name         string `json:"name"`
	ConnectionID string `json:"connectionId"`
	Status       string `json:"status"`
}
