// Package mqtt publishes computer output events and daemon lifecycle events,
// with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/egpwc/internal/events"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "avionics/egpwc"

// Topics are the topics published to, all below one prefix.
type Topics struct {
	Events string
	System string
}

// TopicsFor returns the topics below prefix.
func TopicsFor(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{Events: prefix + "/events", System: prefix + "/system"}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an output event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event events.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload is the MQTT message payload of an output event.
type Payload struct {
	EGPWC EventPayload `json:"egpwc"`
}

// EventPayload contains the event details.
type EventPayload struct {
	Timestamp string       `json:"timestamp"`
	Event     string       `json:"event"`
	Aural     string       `json:"aural,omitempty"`
	State     StatePayload `json:"state"`
}

// StatePayload is the computer output state the event was detected in.
type StatePayload struct {
	Aural       string `json:"aural"`
	WarningLamp bool   `json:"warning_lamp"`
	AlertLamp   bool   `json:"alert_lamp"`
	GPWSInop    bool   `json:"gpws_inop"`
	OnGround    bool   `json:"on_ground"`
	Phase       string `json:"phase"`
}

// FormatPayload creates the JSON payload for an output event.
func FormatPayload(event events.Event) ([]byte, error) {
	s := event.State
	p := Payload{
		EGPWC: EventPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
			Event:     string(event.Type),
			State: StatePayload{
				Aural:       s.Aural.String(),
				WarningLamp: s.WarningLamp,
				AlertLamp:   s.AlertLamp,
				GPWSInop:    s.GPWSInop,
				OnGround:    s.OnGround,
				Phase:       s.Phase.String(),
			},
		},
	}
	if event.Type == events.EventAural {
		p.EGPWC.Aural = event.Aural.String()
	}
	return json.Marshal(p)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
