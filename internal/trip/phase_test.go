package trip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 4, 18, 14, 0, 0, 0, time.UTC)

func at(minutes int) time.Time { return t0.Add(time.Duration(minutes) * time.Minute) }

func TestPhaseTable(t *testing.T) {
	assert.Equal(t, []Phase{PhaseComeUp, PhasePeak, PhaseComedown}, Phases())
	assert.Equal(t, 60, PhaseComeUp.Minutes())
	assert.Equal(t, 240, PhasePeak.Minutes())
	assert.Equal(t, 120, PhaseComedown.Minutes())
	assert.Equal(t, TotalMinutes, PhaseComeUp.Minutes()+PhasePeak.Minutes()+PhaseComedown.Minutes())

	assert.Equal(t, 0, PhaseStartOffset(PhaseComeUp))
	assert.Equal(t, 60, PhaseStartOffset(PhasePeak))
	assert.Equal(t, 300, PhaseStartOffset(PhaseComedown))

	next, ok := PhasePeak.Next()
	require.True(t, ok)
	assert.Equal(t, PhaseComedown, next)
	_, ok = PhaseComedown.Next()
	assert.False(t, ok)
	assert.False(t, Phase("plateau").Valid())
}

func TestDeriveElapsedFloorsToMinutes(t *testing.T) {
	p := Derive(t0, PhaseComeUp, t0.Add(59*time.Second))
	assert.Equal(t, 0, p.ElapsedMinutes)

	p = Derive(t0, PhaseComeUp, t0.Add(61*time.Minute+59*time.Second))
	assert.Equal(t, 61, p.ElapsedMinutes)

	p = Derive(t0, PhaseComeUp, t0.Add(-30*time.Second))
	assert.Equal(t, -1, p.ElapsedMinutes)
}

func TestDeriveTimeToNextPhase(t *testing.T) {
	p := Derive(t0, PhaseComeUp, at(20))
	require.True(t, p.HasNextPhase)
	assert.Equal(t, 40, p.TimeToNextPhase)

	p = Derive(t0, PhasePeak, at(100))
	require.True(t, p.HasNextPhase)
	assert.Equal(t, 200, p.TimeToNextPhase)

	p = Derive(t0, PhaseComedown, at(350))
	assert.False(t, p.HasNextPhase)
	assert.Equal(t, 70, p.PhaseRemainingMinutes())
}

func TestDeriveTimeToNextPhaseGoesNegativeWhenOverdue(t *testing.T) {
	p := Derive(t0, PhaseComeUp, at(90))
	assert.Equal(t, -30, p.TimeToNextPhase)
	assert.Equal(t, PhasePeak, p.ScheduledPhase)
	assert.True(t, p.PhaseBehindSchedule())
}

func TestDerivePercent(t *testing.T) {
	assert.InDelta(t, 0.0, Derive(t0, PhaseComeUp, t0).Percent, 1e-9)
	assert.InDelta(t, 50.0, Derive(t0, PhasePeak, at(210)).Percent, 1e-9)
	assert.Equal(t, 100.0, Derive(t0, PhaseComedown, at(420)).Percent)

	over := Derive(t0, PhaseComeUp, at(600))
	assert.Greater(t, over.Percent, 100.0)
}

func TestDerivePercentMonotonic(t *testing.T) {
	prev := -1.0
	for s := 0; s <= 500*60; s += 37 {
		p := Derive(t0, PhaseComeUp, t0.Add(time.Duration(s)*time.Second))
		require.GreaterOrEqual(t, p.Percent, prev, "at %ds", s)
		prev = p.Percent
	}
}

func TestDeriveDoesNotAdvancePhase(t *testing.T) {
	p := Derive(t0, PhaseComeUp, at(600))
	assert.Equal(t, PhaseComeUp, p.CurrentPhase)
	assert.Equal(t, PhaseComedown, p.ScheduledPhase)
}

func TestScheduledPhaseBoundaries(t *testing.T) {
	cases := map[int]Phase{
		0: PhaseComeUp, 59: PhaseComeUp, 60: PhasePeak, 299: PhasePeak,
		300: PhaseComedown, 419: PhaseComedown, 420: PhaseComedown, -5: PhaseComeUp,
	}
	for m, want := range cases {
		assert.Equal(t, want, Derive(t0, PhaseComeUp, at(m)).ScheduledPhase, "minute %d", m)
	}
}

func TestRemainingText(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{0, "less than an hour"},
		{59, "less than an hour"},
		{-20, "less than an hour"},
		{60, "a little under 2h"},
		{89, "a little under 2h"},
		{90, "about 1h"},
		{119, "about 1h"},
		{400, "about 6h"},
		{370, "a little under 7h"},
		{420, "a little under 8h"},
		{390, "about 6h"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RemainingText(c.minutes), "minutes=%d", c.minutes)
	}
}

func TestPhaseRemainingText(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{0, "less than 5 minutes"},
		{4, "less than 5 minutes"},
		{5, "about 5 minutes"},
		{7, "about 5 minutes"},
		{8, "about 10 minutes"},
		{57, "about 55 minutes"},
		{58, "about 1h"},
		{60, "about 1h"},
		{92, "about 1h and 30min"},
		{240, "about 4h"},
		{143, "about 2h and 25min"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, PhaseRemainingText(c.minutes), "minutes=%d", c.minutes)
	}
}

func TestProgressTexts(t *testing.T) {
	p := Derive(t0, PhasePeak, at(100))
	assert.Equal(t, 320, p.RemainingMinutes)
	assert.Equal(t, "a little under 6h", p.RemainingText())
	assert.Equal(t, "about 3h and 20min", p.PhaseRemainingText())
}
