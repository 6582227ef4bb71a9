package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/vetassist/pkg/schema"
)

func newTestStore(t *testing.T) *LibSQLStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	s, err := NewLibSQLStore("file:" + dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = s.Close()
		_ = os.RemoveAll(dir)
	})
	return s
}

func seedDiagnosis(t *testing.T, s *LibSQLStore, animal schema.AnimalType, urgency schema.Urgency, at time.Time) *Diagnosis {
	t.Helper()
	d := &Diagnosis{
		SessionID:  uuid.NewString(),
		Run:        1,
		AnimalType: animal,
		Symptoms:   []string{"cough", "fever"},
		Result: schema.DiagnosisResult{
			Disease:            "Upper respiratory infection (URI)",
			Confidence:         94,
			Urgency:            urgency,
			RecommendedActions: []string{"Rest"},
		},
		CreatedAt: at,
	}
	require.NoError(t, s.SaveDiagnosis(context.Background(), d))
	return d
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))

	var version int
	require.NoError(t, s.DB().QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version))
	assert.Equal(t, len(migrations), version)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("-- header; with a semicolon\nCREATE TABLE a (x INT);\n\n-- note\nCREATE INDEX i ON a (x);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a (x)"}, stmts)
}

func TestLoadMigrations(t *testing.T) {
	ms, err := loadMigrations(fstest.MapFS{
		"migrations/010_add_index.sql": {Data: []byte("CREATE INDEX x ON t (a);")},
		"migrations/002_tables.sql":    {Data: []byte("CREATE TABLE t (a INT);")},
		"migrations/README.md":         {Data: []byte("ignored")},
	})
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, 2, ms[0].Version)
	assert.Equal(t, "tables", ms[0].Name)
	assert.Equal(t, 10, ms[1].Version)

	_, err = loadMigrations(fstest.MapFS{"migrations/init.sql": {Data: []byte("")}})
	assert.Error(t, err)

	_, err = loadMigrations(fstest.MapFS{
		"migrations/001_a.sql": {Data: []byte("")},
		"migrations/1_b.sql":   {Data: []byte("")},
	})
	assert.ErrorContains(t, err, "version 1")
}

func TestEmbeddedMigrations(t *testing.T) {
	require.NotEmpty(t, migrations)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "initial_schema", migrations[0].Name)
}

// --- Event Tests ---

func TestAppendEvent_SequencePerSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e := &Event{SessionID: "sess-a", Step: schema.StepAnimalSelection, Type: schema.EventAnimalSelected}
		require.NoError(t, s.AppendEvent(ctx, e))
		assert.Equal(t, int64(i+1), e.Sequence)
		assert.NotZero(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
	}

	other := &Event{SessionID: "sess-b", Type: schema.EventSessionCreated}
	require.NoError(t, s.AppendEvent(ctx, other))
	assert.Equal(t, int64(1), other.Sequence)
}

func TestAppendEvent_RequiresSession(t *testing.T) {
	s := newTestStore(t)
	err := s.AppendEvent(context.Background(), &Event{Type: schema.EventSessionCreated})
	assert.ErrorIs(t, err, schema.NewError(schema.ErrCodeValidation, ""))
}

func TestGetEvents_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendEvent(ctx, &Event{
		SessionID: "sess-1",
		Step:      schema.StepAnalysisResult,
		Type:      schema.EventAnalysisProgress,
		Run:       7,
		Payload:   json.RawMessage(`{"progress":40}`),
	}))
	require.NoError(t, s.AppendEvent(ctx, &Event{SessionID: "sess-1", Type: schema.EventSessionReset}))

	events, err := s.GetEvents(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, schema.StepAnalysisResult, events[0].Step)
	assert.Equal(t, uint64(7), events[0].Run)
	assert.JSONEq(t, `{"progress":40}`, string(events[0].Payload))
	assert.Empty(t, events[1].Step)
	assert.Nil(t, events[1].Payload)

	events, err = s.GetEvents(ctx, "sess-1", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(2), events[0].Sequence)
}

func TestGetEventsByType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, sess := range []string{"s1", "s2", "s1"} {
		require.NoError(t, s.AppendEvent(ctx, &Event{SessionID: sess, Step: schema.StepAnalysisResult, Type: schema.EventAnalysisFailed}))
	}
	require.NoError(t, s.AppendEvent(ctx, &Event{SessionID: "s1", Type: schema.EventSessionReset}))

	all, err := s.GetEventsByType(ctx, schema.EventAnalysisFailed, EventFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	s1, err := s.GetEventsByType(ctx, schema.EventAnalysisFailed, EventFilter{SessionID: "s1"})
	require.NoError(t, err)
	assert.Len(t, s1, 2)

	limited, err := s.GetEventsByType(ctx, schema.EventAnalysisFailed, EventFilter{Step: schema.StepAnalysisResult, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := s.GetEventsByType(ctx, schema.EventAnalysisFailed, EventFilter{Step: schema.StepImageUpload})
	require.NoError(t, err)
	assert.Empty(t, none)
}

// --- Diagnosis Tests ---

func TestSaveAndGetDiagnosis(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := seedDiagnosis(t, s, schema.AnimalCat, schema.UrgencyMedium, time.Time{})
	assert.NotEmpty(t, d.ID)
	_, err := uuid.Parse(d.ID)
	assert.NoError(t, err)

	got, err := s.GetDiagnosis(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.SessionID, got.SessionID)
	assert.Equal(t, schema.AnimalCat, got.AnimalType)
	assert.Equal(t, []string{"cough", "fever"}, got.Symptoms)
	assert.Equal(t, d.Result, got.Result)
	assert.Empty(t, got.ImageRef)
}

func TestSaveDiagnosis_DuplicateRun(t *testing.T) {
	s := newTestStore(t)
	d := seedDiagnosis(t, s, schema.AnimalDog, schema.UrgencyLow, time.Time{})

	dup := &Diagnosis{SessionID: d.SessionID, Run: d.Run, AnimalType: schema.AnimalDog, Result: d.Result}
	err := s.SaveDiagnosis(context.Background(), dup)
	require.Error(t, err)
	var se *schema.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, schema.ErrCodeStore, se.Code)
}

func TestGetDiagnosis_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetDiagnosis(context.Background(), "nonexistent")
	require.Error(t, err)
	se, ok := err.(*schema.Error)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeNotFound, se.Code)
}

func TestListDiagnoses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	oldest := seedDiagnosis(t, s, schema.AnimalDog, schema.UrgencyLow, base)
	middle := seedDiagnosis(t, s, schema.AnimalCat, schema.UrgencyEmergency, base.Add(time.Hour))
	newest := seedDiagnosis(t, s, schema.AnimalDog, schema.UrgencyMedium, base.Add(2*time.Hour))

	all, err := s.ListDiagnoses(ctx, DiagnosisFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{newest.ID, middle.ID, oldest.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	dogs, err := s.ListDiagnoses(ctx, DiagnosisFilter{AnimalType: schema.AnimalDog})
	require.NoError(t, err)
	assert.Len(t, dogs, 2)

	urgent, err := s.ListDiagnoses(ctx, DiagnosisFilter{Urgency: schema.UrgencyEmergency})
	require.NoError(t, err)
	require.Len(t, urgent, 1)
	assert.Equal(t, middle.ID, urgent[0].ID)

	since := base.Add(30 * time.Minute)
	recent, err := s.ListDiagnoses(ctx, DiagnosisFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	page, err := s.ListDiagnoses(ctx, DiagnosisFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, middle.ID, page[0].ID)
}
