package store

import "context"

// Store is the audit trail of wizard sessions: their event log and the
// diagnoses they produced. Live sessions are never rebuilt from it.
// Implementations are safe for concurrent use.
type Store interface {
	AppendEvent(ctx context.Context, event *Event) error
	GetEvents(ctx context.Context, sessionID string, since int64) ([]*Event, error)
	GetEventsByType(ctx context.Context, eventType string, filter EventFilter) ([]*Event, error)

	SaveDiagnosis(ctx context.Context, d *Diagnosis) error
	GetDiagnosis(ctx context.Context, id string) (*Diagnosis, error)
	ListDiagnoses(ctx context.Context, filter DiagnosisFilter) ([]*Diagnosis, error)

	Migrate(ctx context.Context) error
	Vacuum(ctx context.Context) error
	Close() error
}
