package streaming

import (
	"context"
	"slices"

	"github.com/rendis/vetassist/pkg/schema"
)

// StreamEvent is one session event as seen by live consumers: the panel SSE
// feed, MCP notifications and CLI progress output.
type StreamEvent struct {
	SessionID string      `json:"session_id"`
	Step      schema.Step `json:"step,omitempty"`
	EventType string      `json:"event_type"`
	Run       uint64      `json:"run,omitempty"`
	Payload   any         `json:"payload,omitempty"`
}

// EventFilter narrows a subscription. Zero fields match everything.
type EventFilter struct {
	SessionID  string   `json:"session_id,omitempty"`
	EventTypes []string `json:"event_types,omitempty"`
}

// Matches reports whether ev passes the filter.
func (f EventFilter) Matches(ev StreamEvent) bool {
	if f.SessionID != "" && ev.SessionID != f.SessionID {
		return false
	}
	return len(f.EventTypes) == 0 || slices.Contains(f.EventTypes, ev.EventType)
}

// EventHub fans session events out to subscribers. Subscribe returns the
// event channel and a cancel func that must be called to release it.
type EventHub interface {
	Publish(ctx context.Context, event StreamEvent) error
	Subscribe(ctx context.Context, filter EventFilter) (<-chan StreamEvent, func(), error)
}
