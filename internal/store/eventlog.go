package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rendis/vetassist/pkg/schema"
)

// EventLog provides ordered append and replay on top of a LibSQLStore.
type EventLog struct {
	store *LibSQLStore
}

// NewEventLog wraps a LibSQLStore to provide event-log operations.
func NewEventLog(s *LibSQLStore) *EventLog {
	return &EventLog{store: s}
}

// AppendEvent appends event with the session's next sequence number. The
// store runs on a single connection, so sequence allocation is serial.
func (el *EventLog) AppendEvent(ctx context.Context, event *Event) error {
	return el.store.AppendEvent(ctx, event)
}

// GetEvents returns events for a session with sequence > since, ordered by sequence.
func (el *EventLog) GetEvents(ctx context.Context, sessionID string, since int64) ([]*Event, error) {
	return el.store.GetEvents(ctx, sessionID, since)
}

// GetEventsByType returns events of a specific type matching the filter.
func (el *EventLog) GetEventsByType(ctx context.Context, eventType string, filter EventFilter) ([]*Event, error) {
	return el.store.GetEventsByType(ctx, eventType, filter)
}

type runPayload struct {
	Run      uint64 `json:"run"`
	Progress int    `json:"progress"`
	Error    string `json:"error"`
}

// ReplayRuns rebuilds the analysis runs of a session from its events, ordered
// by run number. Runs still in flight when the log ends have outcome "none".
// A sequence gap is reported as a STORE_ERROR.
func (el *EventLog) ReplayRuns(ctx context.Context, sessionID string) ([]*RunSummary, error) {
	events, err := el.store.GetEvents(ctx, sessionID, 0)
	if err != nil {
		return nil, fmt.Errorf("get events for replay: %w", err)
	}

	for i, e := range events {
		if expected := int64(i + 1); e.Sequence != expected {
			return nil, schema.NewErrorf(schema.ErrCodeStore,
				"sequence gap in session %s: expected %d, got %d", sessionID, expected, e.Sequence)
		}
	}

	runs := make(map[uint64]*RunSummary)
	var inflight *RunSummary

	closeRun := func(rs *RunSummary, e *Event, outcome schema.AnalysisOutcome) {
		ts := e.Timestamp
		rs.Outcome = outcome
		rs.CompletedAt = &ts
		rs.DurationMs = ts.Sub(rs.StartedAt).Milliseconds()
		if inflight == rs {
			inflight = nil
		}
	}

	for _, e := range events {
		var p runPayload
		if len(e.Payload) > 0 {
			_ = json.Unmarshal(e.Payload, &p)
		}

		switch e.Type {
		case schema.EventAnalysisStarted:
			rs := &RunSummary{Run: e.Run, Outcome: schema.OutcomeNone, StartedAt: e.Timestamp}
			runs[e.Run] = rs
			inflight = rs

		case schema.EventAnalysisProgress:
			if rs := runs[e.Run]; rs != nil && p.Progress > rs.Progress {
				rs.Progress = p.Progress
			}

		case schema.EventAnalysisSucceeded:
			if rs := runs[e.Run]; rs != nil {
				rs.Progress = 100
				closeRun(rs, e, schema.OutcomeSucceeded)
			}

		case schema.EventAnalysisFailed:
			if rs := runs[e.Run]; rs != nil {
				rs.Progress = 0
				rs.Error = p.Error
				closeRun(rs, e, schema.OutcomeFailed)
			}

		case schema.EventAnalysisCancelled:
			if rs := runs[p.Run]; rs != nil {
				rs.Progress = 0
				closeRun(rs, e, schema.OutcomeCancelled)
			}

		case schema.EventAnalysisDiscarded:
			if rs := runs[p.Run]; rs != nil {
				rs.Discarded = true
			}

		case schema.EventSessionReset, schema.EventSessionDiscarded:
			if inflight != nil {
				inflight.Progress = 0
				closeRun(inflight, e, schema.OutcomeCancelled)
			}
		}
	}

	out := make([]*RunSummary, 0, len(runs))
	for _, rs := range runs {
		out = append(out, rs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Run < out[j].Run })
	return out, nil
}
