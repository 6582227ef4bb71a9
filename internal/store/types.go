package store

import (
	"encoding/json"
	"time"

	"github.com/rendis/vetassist/pkg/schema"
)

// Event is an immutable entry in a session's event log.
type Event struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	Step      schema.Step     `json:"step,omitempty"`
	Type      string          `json:"event_type"`
	Run       uint64          `json:"run"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Sequence  int64           `json:"sequence"`
}

// Diagnosis is the history record of one successful analysis run.
type Diagnosis struct {
	ID         string                 `json:"id"`
	SessionID  string                 `json:"session_id"`
	Run        uint64                 `json:"run"`
	AnimalType schema.AnimalType      `json:"animal_type"`
	Symptoms   []string               `json:"symptoms"`
	ImageRef   schema.ImageRef        `json:"image_ref,omitempty"`
	Result     schema.DiagnosisResult `json:"result"`
	CreatedAt  time.Time              `json:"created_at"`
}

// EventFilter narrows GetEventsByType.
type EventFilter struct {
	SessionID string
	Step      schema.Step
	Since     *time.Time
	Limit     int
}

// DiagnosisFilter narrows ListDiagnoses.
type DiagnosisFilter struct {
	SessionID  string
	AnimalType schema.AnimalType
	Urgency    schema.Urgency
	Since      *time.Time
	Limit      int
	Offset     int
}

// RunSummary is the replayed outcome of one analysis run.
type RunSummary struct {
	Run         uint64                 `json:"run"`
	Outcome     schema.AnalysisOutcome `json:"outcome"`
	Progress    int                    `json:"progress"`
	Error       string                 `json:"error,omitempty"`
	Discarded   bool                   `json:"discarded,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	DurationMs  int64                  `json:"duration_ms,omitempty"`
}
