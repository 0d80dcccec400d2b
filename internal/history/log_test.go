package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sadopc/tripguide/internal/core"
	"github.com/sadopc/tripguide/internal/store"
	"github.com/sadopc/tripguide/internal/trip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 2, 13, 0, 0, 0, time.UTC)

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (failingStore) Set(context.Context, string, []byte) error         { return errors.New("read-only") }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func activeDraft(id string) trip.Draft {
	start := t0
	return trip.Draft{
		ID:           id,
		Dose:         trip.Dose{Substance: "psilocybin", Amount: 2, Unit: "g"},
		Set:          trip.Confirmation{Confirmed: true},
		Safety:       trip.Safety{trip.SafetyEmergencyPlan: true},
		StartTime:    &start,
		CurrentPhase: trip.PhasePeak,
		Intentions: []trip.DraftIntention{
			{ID: "i1", Emoji: "🎨", Text: "Explore creativity"},
			{ID: "i2", Text: "Rest"},
		},
	}
}

func entry(t *testing.T, id string, end time.Time) Entry {
	t.Helper()
	e, err := Snapshot(activeDraft(id), end, "")
	require.NoError(t, err)
	return e
}

// ============================================================
// Snapshot
// ============================================================

func TestSnapshotFreezesDraft(t *testing.T) {
	d := activeDraft("t1")
	e, err := Snapshot(d, t0.Add(6*time.Hour), "")
	require.NoError(t, err)

	assert.Equal(t, "t1", e.ID)
	assert.Equal(t, t0, e.StartTime)
	assert.Equal(t, 6*time.Hour, e.Duration())
	assert.Equal(t, "psilocybin, May 2, 2026", e.Title)
	require.Len(t, e.Intentions, 2)
	assert.Equal(t, "Explore creativity", e.Intentions[0].Text)
	assert.False(t, e.PostTripRated)

	d.Safety[trip.SafetyEmergencyPlan] = false
	assert.True(t, e.Safety[trip.SafetyEmergencyPlan], "snapshot must not alias the draft")
}

func TestSnapshotRequiresStartedDraft(t *testing.T) {
	_, err := Snapshot(trip.NewDraft(), t0, "")
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestSnapshotClampsEndBeforeStart(t *testing.T) {
	e, err := Snapshot(activeDraft("t1"), t0.Add(-time.Minute), "Evening")
	require.NoError(t, err)
	assert.Equal(t, t0, e.EndTime)
	assert.Equal(t, "Evening", e.Title)
}

// ============================================================
// Log
// ============================================================

func TestAppendIsMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	l, err := Open(ctx, nil, nil)
	require.NoError(t, err)

	require.NoError(t, l.Append(ctx, entry(t, "t1", t0.Add(time.Hour))))
	require.NoError(t, l.Append(ctx, entry(t, "t2", t0.Add(2*time.Hour))))

	list := l.List()
	require.Len(t, list, 2)
	assert.Equal(t, "t2", list[0].ID)
	recent, ok := l.MostRecent()
	require.True(t, ok)
	assert.Equal(t, "t2", recent.ID)
}

func TestAppendRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	l, _ := Open(ctx, nil, nil)
	require.NoError(t, l.Append(ctx, entry(t, "t1", t0)))
	assert.ErrorIs(t, l.Append(ctx, entry(t, "t1", t0)), core.ErrInvalidTransition)
	assert.Equal(t, 1, l.Len())
}

func TestFindByID(t *testing.T) {
	ctx := context.Background()
	l, _ := Open(ctx, nil, nil)
	require.NoError(t, l.Append(ctx, entry(t, "t1", t0)))

	e, err := l.FindByID("t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", e.ID)

	_, err = l.FindByID("nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateRatesIntention(t *testing.T) {
	ctx := context.Background()
	l, _ := Open(ctx, nil, nil)
	require.NoError(t, l.Append(ctx, entry(t, "t1", t0)))

	for _, v := range []int{3, 5} {
		_, err := l.Update(ctx, "t1", func(e *Entry) error {
			return e.RateIntention("i1", core.Rating{Type: core.Rating7Day, Value: core.IntPtr(v), Timestamp: t0})
		})
		require.NoError(t, err)
	}

	e, _ := l.FindByID("t1")
	rec, err := e.Intention("i1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Ratings.Len())
	v, _ := rec.Ratings.Value(core.Rating7Day)
	assert.Equal(t, 5, v)
}

func TestUpdateFailureLeavesEntryUntouched(t *testing.T) {
	ctx := context.Background()
	l, _ := Open(ctx, nil, nil)
	require.NoError(t, l.Append(ctx, entry(t, "t1", t0)))

	_, err := l.Update(ctx, "t1", func(e *Entry) error {
		e.PostTripRated = true
		return e.RateIntention("i1", core.Rating{Type: core.RatingPostTrip, Value: core.IntPtr(9)})
	})
	assert.ErrorIs(t, err, core.ErrValidation)

	e, _ := l.FindByID("t1")
	assert.False(t, e.PostTripRated)

	_, err = l.Update(ctx, "missing", func(*Entry) error { return nil })
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateUnknownIntention(t *testing.T) {
	ctx := context.Background()
	l, _ := Open(ctx, nil, nil)
	require.NoError(t, l.Append(ctx, entry(t, "t1", t0)))
	_, err := l.Update(ctx, "t1", func(e *Entry) error {
		return e.RateIntention("zzz", core.Rating{Type: core.RatingPostTrip})
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestReplaceAll(t *testing.T) {
	ctx := context.Background()
	l, _ := Open(ctx, nil, nil)
	require.NoError(t, l.Append(ctx, entry(t, "t1", t0)))

	err := l.ReplaceAll(ctx, []Entry{entry(t, "a", t0), entry(t, "a", t0)})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, 1, l.Len())

	require.NoError(t, l.ReplaceAll(ctx, []Entry{entry(t, "b", t0), entry(t, "c", t0)}))
	list := l.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
}

func TestLogPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	blobs := newTestStore(t)
	l, err := Open(ctx, blobs, nil)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, entry(t, "t1", t0.Add(time.Hour))))
	_, err = l.Update(ctx, "t1", func(e *Entry) error {
		e.PostTripRated = true
		return e.RateIntention("i1", core.Rating{Type: core.RatingPostTrip, Value: core.IntPtr(4), Timestamp: t0})
	})
	require.NoError(t, err)

	reopened, err := Open(ctx, blobs, nil)
	require.NoError(t, err)
	e, err := reopened.FindByID("t1")
	require.NoError(t, err)
	assert.True(t, e.PostTripRated)
	rec, _ := e.Intention("i1")
	v, ok := rec.Ratings.Value(core.RatingPostTrip)
	require.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestPersistenceFailureKeepsEntry(t *testing.T) {
	ctx := context.Background()
	l, err := Open(ctx, failingStore{}, nil)
	require.NoError(t, err)

	err = l.Append(ctx, entry(t, "t1", t0))
	assert.ErrorIs(t, err, core.ErrPersistence)
	_, err = l.FindByID("t1")
	assert.NoError(t, err)
}
