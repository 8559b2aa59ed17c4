package reminder

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
}

func TestStore_ScheduleAndListRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.json")
	s := NewStore(path, time.Second).WithClock(fixedClock)
	ctx := context.Background()

	later := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	sooner := time.Date(2025, 3, 2, 8, 30, 0, 0, time.UTC)

	first, err := s.Schedule(ctx, "  renew passport ", later, "")
	require.NoError(t, err)
	assert.Equal(t, "renew passport", first.Content)
	assert.Len(t, first.ID, 26)
	assert.Nil(t, first.NextRun)
	assert.Equal(t, fixedClock(), first.CreatedAt)

	_, err = s.Schedule(ctx, "dentist", sooner, "")
	require.NoError(t, err)

	reopened := NewStore(path, time.Second)
	all, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "dentist", all[0].Content)
	assert.Equal(t, "renew passport", all[1].Content)
	assert.True(t, all[1].Timestamp.Equal(later))
}

func TestStore_RecurrenceComputesNextRun(t *testing.T) {
	s := NewStore("", 0)
	at := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC) // Monday

	r, err := s.Schedule(context.Background(), "standup", at, "0 9 * * MON")
	require.NoError(t, err)
	require.NotNil(t, r.NextRun)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), *r.NextRun)

	_, err = s.Schedule(context.Background(), "bad", at, "every tuesday")
	assert.ErrorIs(t, err, chatErrors.ErrInvalidInput)
}

func TestStore_RejectsEmptyInput(t *testing.T) {
	s := NewStore("", 0)
	_, err := s.Schedule(context.Background(), "   ", fixedClock(), "")
	assert.ErrorIs(t, err, chatErrors.ErrInvalidInput)

	_, err = s.Schedule(context.Background(), "x", time.Time{}, "")
	assert.ErrorIs(t, err, chatErrors.ErrInvalidInput)
}

func TestStore_InMemoryUpcoming(t *testing.T) {
	s := NewStore("", 0)
	ctx := context.Background()
	now := fixedClock()

	_, err := s.Schedule(ctx, "past", now.Add(-time.Hour), "")
	require.NoError(t, err)
	_, err = s.Schedule(ctx, "future", now.Add(time.Hour), "")
	require.NoError(t, err)
	_, err = s.Schedule(ctx, "recurring", now.Add(-48*time.Hour), "@daily")
	require.NoError(t, err)

	upcoming, err := s.Upcoming(ctx, now)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "future", upcoming[0].Content)
}

func TestStore_CorruptFileIsPersistenceError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := NewStore(path, time.Second).List(context.Background())
	assert.ErrorIs(t, err, chatErrors.ErrPersistence)
}
