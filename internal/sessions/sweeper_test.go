package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchedule(t *testing.T) {
	from := time.Date(2026, 1, 1, 8, 0, 30, 0, time.UTC)

	sched, err := ParseSchedule("*/5 * * * *")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 8, 5, 0, 0, time.UTC), sched.Next(from))

	sched, err = ParseSchedule("@every 30s")
	require.NoError(t, err)
	assert.Equal(t, from.Add(30*time.Second), sched.Next(from))

	_, err = ParseSchedule("not a schedule")
	assert.Error(t, err)
}

func TestNewSweeper_InvalidSchedule(t *testing.T) {
	_, err := NewSweeper(NewManager(Config{}), "61 * * * *", nil)
	assert.Error(t, err)
}

func TestSweeper_RunsOnSchedule(t *testing.T) {
	m := NewManager(Config{TTL: time.Millisecond})
	t.Cleanup(m.CloseAll)
	m.Create()
	m.Create()

	sw, err := NewSweeper(m, "@every 1s", nil)
	require.NoError(t, err)
	require.NoError(t, sw.Start(context.Background()))
	assert.Error(t, sw.Start(context.Background()), "double start")

	require.Eventually(t, func() bool { return m.Len() == 0 }, 3*time.Second, 10*time.Millisecond)

	sw.Stop()
	sw.Stop()
}
