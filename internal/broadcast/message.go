package broadcast

import (
	"encoding/json"
	"time"
)

// Envelope is the wire wrapper around every outbound event: a stable
// type tag plus the event's own JSON, so clients can dispatch without
// a shared schema for every payload shape.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

func newEnvelope(eventType string, data interface{}) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{Type: eventType, Data: raw, Timestamp: time.Now()}, nil
}
