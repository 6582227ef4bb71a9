package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/rendis/vetassist/pkg/schema"
)

const (
	eventColumns     = `id, session_id, step, event_type, run, payload, timestamp, sequence`
	diagnosisColumns = `id, session_id, run, animal_type, symptoms, image_ref, result, created_at`
)

// LibSQLStore is the embedded libSQL Store. dbPath is a file URI such as
// "file:/var/lib/vetassist/vetassist.db".
type LibSQLStore struct {
	db *sql.DB
}

func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql %s: %w", dbPath, err)
	}
	// One writer keeps per-session sequence allocation serial.
	db.SetMaxOpenConns(1)

	// journal_mode answers with a row, so every pragma goes through QueryRow.
	for _, pragma := range []string{
		"journal_mode=WAL",
		"synchronous=NORMAL",
		"busy_timeout=5000",
		"temp_store=MEMORY",
	} {
		var ignored string
		_ = db.QueryRow("PRAGMA " + pragma).Scan(&ignored)
	}
	return &LibSQLStore{db: db}, nil
}

// DB exposes the handle for EventLog and tests.
func (s *LibSQLStore) DB() *sql.DB { return s.db }

func (s *LibSQLStore) Close() error { return s.db.Close() }

func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// conds accumulates AND-ed WHERE clauses with their bind arguments.
type conds struct {
	clauses []string
	args    []any
}

func (c *conds) add(clause string, arg any) {
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, arg)
}

func (c *conds) addIf(ok bool, clause string, arg any) {
	if ok {
		c.add(clause, arg)
	}
}

func (c *conds) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// page renders LIMIT/OFFSET. An offset without a limit is ignored.
func page(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	if offset > 0 {
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}

func (s *LibSQLStore) AppendEvent(ctx context.Context, event *Event) error {
	if event.SessionID == "" {
		return schema.NewError(schema.ErrCodeValidation, "event has no session id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertEvent(ctx, tx, event); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit event: %w", err)
	}
	return nil
}

// insertEvent assigns the session's next sequence number, stamps the event
// and writes it inside tx. ID, Sequence and Timestamp are set on event.
func insertEvent(ctx context.Context, tx *sql.Tx, event *Event) error {
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM events WHERE session_id = ?`, event.SessionID,
	).Scan(&event.Sequence); err != nil {
		return fmt.Errorf("next sequence for %s: %w", event.SessionID, err)
	}
	event.Timestamp = timeOrNow(event.Timestamp)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO events (session_id, step, event_type, run, payload, timestamp, sequence)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.SessionID, nullStr(string(event.Step)), event.Type, int64(event.Run),
		nullRaw(event.Payload), event.Timestamp, event.Sequence,
	)
	if err != nil {
		return fmt.Errorf("insert %s event: %w", event.Type, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		event.ID = id
	}
	return nil
}

// GetEvents returns the session's events after sequence since, oldest first.
func (s *LibSQLStore) GetEvents(ctx context.Context, sessionID string, since int64) ([]*Event, error) {
	return s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE session_id = ? AND sequence > ? ORDER BY sequence`,
		sessionID, since)
}

// GetEventsByType returns the newest events of eventType that match filter.
func (s *LibSQLStore) GetEventsByType(ctx context.Context, eventType string, filter EventFilter) ([]*Event, error) {
	var c conds
	c.add("event_type = ?", eventType)
	c.addIf(filter.SessionID != "", "session_id = ?", filter.SessionID)
	c.addIf(filter.Step != "", "step = ?", string(filter.Step))
	if filter.Since != nil {
		c.add("timestamp >= ?", *filter.Since)
	}

	return s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events`+c.where()+` ORDER BY timestamp DESC, id DESC`+page(filter.Limit, 0),
		c.args...)
}

func (s *LibSQLStore) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var (
			e             Event
			step, payload sql.NullString
			run           int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &step, &e.Type, &run, &payload, &e.Timestamp, &e.Sequence); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Step = schema.Step(step.String)
		e.Run = uint64(run)
		if payload.Valid && payload.String != "" {
			e.Payload = json.RawMessage(payload.String)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// SaveDiagnosis writes one history record. An empty ID gets a fresh UUID.
// (session_id, run) is unique, so a run is recorded at most once.
func (s *LibSQLStore) SaveDiagnosis(ctx context.Context, d *Diagnosis) error {
	if d.SessionID == "" {
		return schema.NewError(schema.ErrCodeValidation, "diagnosis has no session id")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = timeOrNow(d.CreatedAt)

	symptoms := d.Symptoms
	if symptoms == nil {
		symptoms = []string{}
	}
	symptomsJSON, err := json.Marshal(symptoms)
	if err != nil {
		return fmt.Errorf("encode symptoms: %w", err)
	}
	resultJSON, err := json.Marshal(d.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO diagnoses (id, session_id, run, animal_type, symptoms, image_ref, disease, confidence, urgency, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.SessionID, int64(d.Run), string(d.AnimalType), string(symptomsJSON), nullStr(string(d.ImageRef)),
		d.Result.Disease, d.Result.Confidence, string(d.Result.Urgency), string(resultJSON), d.CreatedAt,
	); err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "save diagnosis %s: %s", d.ID, err.Error()).WithCause(err)
	}
	return nil
}

func (s *LibSQLStore) GetDiagnosis(ctx context.Context, id string) (*Diagnosis, error) {
	d, err := scanDiagnosis(s.db.QueryRowContext(ctx,
		`SELECT `+diagnosisColumns+` FROM diagnoses WHERE id = ?`, id))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "diagnosis %q not found", id)
	case err != nil:
		return nil, err
	}
	return d, nil
}

// ListDiagnoses returns matching history records, newest first.
func (s *LibSQLStore) ListDiagnoses(ctx context.Context, filter DiagnosisFilter) ([]*Diagnosis, error) {
	var c conds
	c.addIf(filter.SessionID != "", "session_id = ?", filter.SessionID)
	c.addIf(filter.AnimalType != "", "animal_type = ?", string(filter.AnimalType))
	c.addIf(filter.Urgency != "", "urgency = ?", string(filter.Urgency))
	if filter.Since != nil {
		c.add("created_at >= ?", *filter.Since)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+diagnosisColumns+` FROM diagnoses`+c.where()+
			` ORDER BY created_at DESC, id ASC`+page(filter.Limit, filter.Offset),
		c.args...)
	if err != nil {
		return nil, fmt.Errorf("query diagnoses: %w", err)
	}
	defer rows.Close()

	var out []*Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// scanDiagnosis reads one diagnosisColumns row from *sql.Row or *sql.Rows.
func scanDiagnosis(row interface{ Scan(...any) error }) (*Diagnosis, error) {
	var (
		d                    Diagnosis
		run                  int64
		animal               string
		symptoms, resultJSON string
		imageRef             sql.NullString
	)
	if err := row.Scan(&d.ID, &d.SessionID, &run, &animal, &symptoms, &imageRef, &resultJSON, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Run = uint64(run)
	d.AnimalType = schema.AnimalType(animal)
	d.ImageRef = schema.ImageRef(imageRef.String)
	if err := json.Unmarshal([]byte(symptoms), &d.Symptoms); err != nil {
		return nil, fmt.Errorf("decode symptoms of %s: %w", d.ID, err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &d.Result); err != nil {
		return nil, fmt.Errorf("decode result of %s: %w", d.ID, err)
	}
	return &d, nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// nullStr maps "" to SQL NULL.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullRaw(r json.RawMessage) any {
	if len(r) == 0 {
		return nil
	}
	return string(r)
}

var _ Store = (*LibSQLStore)(nil)
