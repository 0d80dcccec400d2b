package trip

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sadopc/tripguide/internal/core"
	"github.com/sadopc/tripguide/internal/sitter"
	"github.com/sadopc/tripguide/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (failingStore) Set(context.Context, string, []byte) error         { return errors.New("disk full") }

func newTestSession(t *testing.T, blobs core.BlobStore) (*Session, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: t0}
	s, err := Open(context.Background(), blobs, WithClock(clk.Now))
	require.NoError(t, err)
	return s, clk
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSessionIsInactive(t *testing.T) {
	s, _ := newTestSession(t, nil)
	assert.False(t, s.IsActive())
	assert.NotEmpty(t, s.ID())
	_, ok := s.Progress()
	assert.False(t, ok)
	assert.Equal(t, phaseUndefined, s.Draft().CurrentPhase)
}

func TestUpdatesThenStart(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestSession(t, nil)

	require.NoError(t, s.UpdateDose(ctx, Dose{Substance: "psilocybin", Amount: 2.5, Unit: "g"}))
	require.NoError(t, s.UpdateSet(ctx, Confirmation{Confirmed: true, Notes: "calm"}))
	require.NoError(t, s.UpdateSetting(ctx, Confirmation{Confirmed: true}))
	require.NoError(t, s.UpdateSafety(ctx, Safety{SafetyMedicationsReviewed: true, SafetyEmergencyPlan: true}))
	require.NoError(t, s.UpdateTripSitter(ctx, &sitter.Contact{ID: "s1", Name: "Sam", Phone: "555"}))
	require.NoError(t, s.UpdateIntentions(ctx, []DraftIntention{{ID: "i1", Text: "Explore creativity"}}))
	require.NoError(t, s.UpdateDose(ctx, Dose{Substance: "psilocybin", Amount: 3, Unit: "g"}))

	clk.Advance(5 * time.Minute)
	start, err := s.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(5*time.Minute), start)

	d := s.Draft()
	require.NotNil(t, d.StartTime)
	assert.Equal(t, start, *d.StartTime)
	assert.Equal(t, PhaseComeUp, d.CurrentPhase)
	assert.Equal(t, 3.0, d.Dose.Amount)
	assert.Empty(t, d.Missing())
	assert.True(t, s.IsActive())
}

func TestStartTwiceIsRejected(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestSession(t, nil)

	first, err := s.Start(ctx)
	require.NoError(t, err)
	clk.Advance(time.Minute)

	_, err = s.Start(ctx)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
	assert.Equal(t, first, *s.Draft().StartTime)
}

func TestEndResetsDraft(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, nil)
	oldID := s.ID()
	require.NoError(t, s.UpdateDose(ctx, Dose{Substance: "lsd"}))
	_, err := s.Start(ctx)
	require.NoError(t, err)

	require.NoError(t, s.End(ctx))
	assert.False(t, s.IsActive())
	assert.NotEqual(t, oldID, s.ID())
	assert.Equal(t, Dose{}, s.Draft().Dose)

	_, err = s.Start(ctx)
	assert.NoError(t, err, "a new trip can start after end")
}

func TestSetPhaseRequiresActiveTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, nil)

	assert.ErrorIs(t, s.SetPhase(ctx, PhasePeak), core.ErrInvalidTransition)
	_, err := s.Start(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, s.SetPhase(ctx, Phase("plateau")), core.ErrValidation)

	require.NoError(t, s.SetPhase(ctx, PhasePeak))
	assert.Equal(t, PhasePeak, s.Draft().CurrentPhase)
}

func TestAdvancePhase(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, nil)
	_, err := s.AdvancePhase(ctx)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	_, err = s.Start(ctx)
	require.NoError(t, err)
	p, err := s.AdvancePhase(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhasePeak, p)
	p, err = s.AdvancePhase(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseComedown, p)
	_, err = s.AdvancePhase(ctx)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestProgressUsesClockAndStoredPhase(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestSession(t, nil)
	_, err := s.Start(ctx)
	require.NoError(t, err)

	clk.Advance(420 * time.Minute)
	p, ok := s.Progress()
	require.True(t, ok)
	assert.Equal(t, 420, p.ElapsedMinutes)
	assert.Equal(t, 100.0, p.Percent)
	assert.Equal(t, PhaseComeUp, p.CurrentPhase, "phase never advances by itself")
	assert.True(t, p.PhaseBehindSchedule())
}

func TestNotes(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, nil)
	require.NoError(t, s.UpdateIntentions(ctx, []DraftIntention{{ID: "i1", Text: "Rest"}}))

	n, err := s.AddNote(ctx, "music is loud")
	require.NoError(t, err)
	assert.Equal(t, core.NoteDuring, n.Type)

	_, err = s.AddIntentionNote(ctx, "i1", "felt rested")
	require.NoError(t, err)
	_, err = s.AddIntentionNote(ctx, "missing", "x")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.AddNote(ctx, "  ")
	assert.ErrorIs(t, err, core.ErrValidation)

	d := s.Draft()
	require.Len(t, d.GeneralNotes, 1)
	require.Len(t, d.Intentions[0].Notes, 1)
}

func TestDraftIsCopied(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, nil)
	require.NoError(t, s.UpdateSafety(ctx, Safety{SafetyEmergencyPlan: true}))

	d := s.Draft()
	d.Safety[SafetyEmergencyPlan] = false
	assert.True(t, s.Draft().Safety[SafetyEmergencyPlan])
}

func TestSessionResumesAfterReopen(t *testing.T) {
	ctx := context.Background()
	blobs := newTestStore(t)
	s, _ := newTestSession(t, blobs)
	require.NoError(t, s.UpdateDose(ctx, Dose{Substance: "psilocybin"}))
	start, err := s.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SetPhase(ctx, PhasePeak))

	reopened, _ := newTestSession(t, blobs)
	require.True(t, reopened.IsActive())
	d := reopened.Draft()
	assert.Equal(t, s.ID(), d.ID)
	assert.True(t, start.Equal(*d.StartTime))
	assert.Equal(t, PhasePeak, d.CurrentPhase)

	_, err = reopened.Start(ctx)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestPersistenceFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, failingStore{})

	start, err := s.Start(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.False(t, start.IsZero())
	assert.True(t, s.IsActive())
}
