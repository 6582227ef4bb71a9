package wizard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/vetassist/internal/catalog"
	"github.com/rendis/vetassist/internal/streaming"
	"github.com/rendis/vetassist/pkg/schema"
)

func TestSetAnimalType(t *testing.T) {
	s := newTestSession(t, &fixedEngine{result: uriResult()})

	for _, at := range schema.AnimalTypes() {
		require.NoError(t, s.SetAnimalType(at))
		assert.Equal(t, at, s.Snapshot().AnimalType, "overwrites previous choice")
	}

	err := s.SetAnimalType("hamster")
	assert.True(t, errors.Is(err, schema.ErrInvalidAnimalType))
	assert.Equal(t, schema.AnimalOther, s.Snapshot().AnimalType, "rejected input leaves state unchanged")

	assert.True(t, errors.Is(s.SetAnimalType(""), schema.ErrInvalidAnimalType))
}

func TestToggleSymptom_IdempotentPair(t *testing.T) {
	s := newTestSession(t, &fixedEngine{result: uriResult()})
	require.NoError(t, s.ToggleSymptom("cough"))
	before := s.Snapshot().Symptoms

	require.NoError(t, s.ToggleSymptom("fever"))
	assert.Equal(t, []string{"cough", "fever"}, s.Snapshot().Symptoms)
	require.NoError(t, s.ToggleSymptom("fever"))

	assert.Equal(t, before, s.Snapshot().Symptoms)
}

func TestToggleSymptom_Validation(t *testing.T) {
	s := newTestSession(t, &fixedEngine{result: uriResult()})

	assert.True(t, errors.Is(s.ToggleSymptom(""), schema.ErrInvalidSymptom))
	assert.NoError(t, s.ToggleSymptom("anything-goes"), "no catalog means any non-empty id")

	withCatalog := newTestSession(t, &fixedEngine{result: uriResult()}, WithSymptomCatalog(catalog.Default()))
	assert.True(t, errors.Is(withCatalog.ToggleSymptom("anything-goes"), schema.ErrInvalidSymptom))
	assert.NoError(t, withCatalog.ToggleSymptom("nasal-discharge"))
	assert.Equal(t, []string{"nasal-discharge"}, withCatalog.Snapshot().Symptoms)
}

func TestImage(t *testing.T) {
	s := newTestSession(t, &fixedEngine{result: uriResult()})

	s.SetImage("img:sha256:aa")
	assert.Equal(t, schema.ImageRef("img:sha256:aa"), s.Snapshot().ImageRef)
	s.SetImage("img:sha256:bb")
	assert.Equal(t, schema.ImageRef("img:sha256:bb"), s.Snapshot().ImageRef)
	s.ClearImage()
	assert.Empty(t, s.Snapshot().ImageRef)
	s.ClearImage()
	assert.Empty(t, s.Snapshot().ImageRef)
}

func TestSnapshotIsACopy(t *testing.T) {
	engine := &fixedEngine{result: uriResult()}
	s := newTestSession(t, engine)
	atImageUpload(t, s)
	require.NoError(t, s.Advance(t.Context()))
	waitTerminal(t, s)

	snap := s.Snapshot()
	snap.Symptoms[0] = "changed"
	snap.Result.Disease = "changed"

	again := s.Snapshot()
	assert.Equal(t, []string{"cough", "fever"}, again.Symptoms)
	assert.Equal(t, "URI", again.Result.Disease)
}

func TestSlowObserverDoesNotBlockReaders(t *testing.T) {
	var (
		armed   atomic.Bool
		gate    = make(chan struct{})
		entered = make(chan struct{})
		once    sync.Once
	)
	events := &eventLog{}
	slow := func(ctx context.Context, ev streaming.StreamEvent) {
		if armed.Load() && ev.EventType == schema.EventSymptomToggled {
			once.Do(func() {
				close(entered)
				<-gate
			})
		}
		events.observe(ctx, ev)
	}
	s := newTestSession(t, &fixedEngine{result: uriResult()}, WithObserver(slow))
	require.NoError(t, s.SetAnimalType(schema.AnimalCat))
	require.NoError(t, s.Advance(context.Background()))
	armed.Store(true)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.ToggleSymptom("fever"))
	}()
	<-entered
	go func() {
		defer wg.Done()
		assert.NoError(t, s.ToggleSymptom("cough"))
	}()

	waitFor(t, func() bool { return len(s.Snapshot().Symptoms) == 2 })
	assert.False(t, s.LastActive().IsZero())

	close(gate)
	wg.Wait()

	var toggled []string
	events.mu.Lock()
	for _, ev := range events.events {
		if ev.EventType == schema.EventSymptomToggled {
			toggled = append(toggled, ev.Payload.(map[string]any)["symptom"].(string))
		}
	}
	events.mu.Unlock()
	assert.Equal(t, []string{"fever", "cough"}, toggled)
}
