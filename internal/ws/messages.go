package ws

import (
	"encoding/json"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeDashboardReload = "dashboard:reload"

	// Server -> Client
	TypeDashboardSnapshot = "dashboard:snapshot"
	TypeError             = "error"
)

// Client -> Server messages

// ReloadPayload optionally names the day to render instead of today.
type ReloadPayload struct {
	Day string `json:"day,omitempty"`
}

// Server -> Client messages

// SnapshotPayload carries one rendered dashboard. Day is the reference day.
type SnapshotPayload struct {
	Day       string `json:"day"`
	Dashboard any    `json:"dashboard"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
