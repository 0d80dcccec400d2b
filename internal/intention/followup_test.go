package intention

import (
	"context"
	"testing"
	"time"

	"github.com/sadopc/tripguide/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

func TestFollowUpLockedUntilThreshold(t *testing.T) {
	end := t0
	s, err := FollowUp(core.Rating7Day, end, end.Add(6*day), core.RatingSet{})
	require.NoError(t, err)
	assert.True(t, s.Locked())
	assert.False(t, s.Available)
	assert.Equal(t, 6, s.DaysSince)
	assert.Equal(t, 1, s.DaysRemaining)

	s, _ = FollowUp(core.Rating7Day, end, end.Add(7*day), core.RatingSet{})
	assert.True(t, s.Available)
	assert.Zero(t, s.DaysRemaining)
}

func TestFollowUpPartialDayFloors(t *testing.T) {
	s, _ := FollowUp(core.Rating7Day, t0, t0.Add(7*day-time.Second), core.RatingSet{})
	assert.Equal(t, 6, s.DaysSince)
	assert.True(t, s.Locked())
}

func TestFollowUpAlreadyRatedTakesPriority(t *testing.T) {
	rated := core.RatingSetOf(core.Rating{Type: core.Rating7Day, Value: core.IntPtr(4)})
	for _, offset := range []time.Duration{0, 3 * day, 7 * day, 40 * day} {
		s, err := FollowUp(core.Rating7Day, t0, t0.Add(offset), rated)
		require.NoError(t, err)
		assert.True(t, s.AlreadyRated, "offset %s", offset)
		assert.False(t, s.Available)
		assert.False(t, s.Locked())
	}
}

func TestFollowUpNilRatingIsNotRated(t *testing.T) {
	set := core.RatingSetOf(core.Rating{Type: core.Rating14Day})
	s, _ := FollowUp(core.Rating14Day, t0, t0.Add(14*day), set)
	assert.False(t, s.AlreadyRated)
	assert.True(t, s.Available)
}

func TestFollowUpRejectsPostTrip(t *testing.T) {
	_, err := FollowUp(core.RatingPostTrip, t0, t0, core.RatingSet{})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestFollowUpsOrderAndThresholds(t *testing.T) {
	list := FollowUps(t0, t0.Add(20*day), core.RatingSet{})
	require.Len(t, list, 3)
	assert.Equal(t, core.Rating7Day, list[0].Type)
	assert.True(t, list[0].Available)
	assert.True(t, list[1].Available)
	assert.True(t, list[2].Locked())
	assert.Equal(t, 10, list[2].DaysRemaining)
}

func TestEngineFollowUpsFor(t *testing.T) {
	ctx := context.Background()
	now := t0.Add(8 * day)
	e, err := Open(ctx, nil, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	id, _ := e.Add(ctx, "Creativity", "", "")
	require.NoError(t, e.AttachToTrip(ctx, id, "t1", t0, ""))

	list, err := e.FollowUpsFor(id, "t1", t0)
	require.NoError(t, err)
	assert.True(t, list[0].Available)
	assert.Equal(t, 6, list[1].DaysRemaining)

	_, err = e.FollowUpsFor(id, "t2", t0)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
