package trip

import (
	"fmt"
	"time"
)

// Phase is one stage of an active trip.
type Phase string

const (
	PhaseComeUp    Phase = "come-up"
	PhasePeak      Phase = "peak"
	PhaseComedown  Phase = "comedown"
	phaseUndefined Phase = ""
)

type phaseSpec struct {
	phase   Phase
	minutes int
	label   string
}

var phaseTable = []phaseSpec{
	{PhaseComeUp, 60, "Come-up"},
	{PhasePeak, 240, "Peak"},
	{PhaseComedown, 120, "Comedown"},
}

// TotalMinutes is the nominal length of a whole trip.
const TotalMinutes = 420

// Phases returns the phases in order.
func Phases() []Phase {
	out := make([]Phase, len(phaseTable))
	for i, ps := range phaseTable {
		out[i] = ps.phase
	}
	return out
}

// Index returns the phase's position, or -1 for an unknown phase.
func (p Phase) Index() int {
	for i, ps := range phaseTable {
		if ps.phase == p {
			return i
		}
	}
	return -1
}

func (p Phase) Valid() bool { return p.Index() >= 0 }

// Minutes is the nominal duration of the phase.
func (p Phase) Minutes() int {
	if i := p.Index(); i >= 0 {
		return phaseTable[i].minutes
	}
	return 0
}

func (p Phase) Label() string {
	if i := p.Index(); i >= 0 {
		return phaseTable[i].label
	}
	return "Not started"
}

// Next returns the following phase; false in the last phase.
func (p Phase) Next() (Phase, bool) {
	i := p.Index()
	if i < 0 || i+1 >= len(phaseTable) {
		return phaseUndefined, false
	}
	return phaseTable[i+1].phase, true
}

// PhaseStartOffset is the sum of the durations of all phases before p, in minutes.
func PhaseStartOffset(p Phase) int {
	offset := 0
	for _, ps := range phaseTable {
		if ps.phase == p {
			return offset
		}
		offset += ps.minutes
	}
	return offset
}

// Progress is the derived, read-only view of an active trip at one instant.
// Nothing in it is stored; it is recomputed from the start time on demand.
type Progress struct {
	StartTime      time.Time
	ElapsedMinutes int
	CurrentPhase   Phase
	// PhaseElapsedMinutes is the time spent past the current phase's nominal start.
	PhaseElapsedMinutes int
	// TimeToNextPhase is only meaningful when HasNextPhase is true. It goes
	// negative when the trip runs past the phase's nominal end.
	TimeToNextPhase int
	HasNextPhase    bool
	// Percent is not clamped; it exceeds 100 when the trip overruns.
	Percent          float64
	RemainingMinutes int
	// ScheduledPhase is the phase elapsed time alone implies. CurrentPhase only
	// moves on explicit updates, so the two can disagree.
	ScheduledPhase Phase
}

// Derive computes progress for a trip that started at start and is currently
// in phase current.
func Derive(start time.Time, current Phase, now time.Time) Progress {
	if !current.Valid() {
		current = PhaseComeUp
	}
	elapsed := floorMinutes(now.Sub(start))
	phaseElapsed := elapsed - PhaseStartOffset(current)

	p := Progress{
		StartTime:           start,
		ElapsedMinutes:      elapsed,
		CurrentPhase:        current,
		PhaseElapsedMinutes: phaseElapsed,
		Percent:             100 * float64(elapsed) / TotalMinutes,
		RemainingMinutes:    TotalMinutes - elapsed,
		ScheduledPhase:      scheduledPhase(elapsed),
	}
	if _, ok := current.Next(); ok {
		p.HasNextPhase = true
		p.TimeToNextPhase = current.Minutes() - phaseElapsed
	}
	return p
}

// PhaseBehindSchedule reports whether elapsed time has moved past the
// current phase's nominal window without an explicit phase update.
func (p Progress) PhaseBehindSchedule() bool {
	return p.ScheduledPhase.Index() > p.CurrentPhase.Index()
}

// PhaseRemainingMinutes is the nominal time left in the current phase.
func (p Progress) PhaseRemainingMinutes() int {
	return p.CurrentPhase.Minutes() - p.PhaseElapsedMinutes
}

func (p Progress) RemainingText() string { return RemainingText(p.RemainingMinutes) }

func (p Progress) PhaseRemainingText() string {
	return PhaseRemainingText(p.PhaseRemainingMinutes())
}

func scheduledPhase(elapsed int) Phase {
	offset := 0
	for _, ps := range phaseTable {
		offset += ps.minutes
		if elapsed < offset {
			return ps.phase
		}
	}
	return phaseTable[len(phaseTable)-1].phase
}

func floorMinutes(d time.Duration) int {
	m := int(d / time.Minute)
	if d < 0 && d%time.Minute != 0 {
		m--
	}
	return m
}

// RemainingText describes the time left in the whole trip.
func RemainingText(minutes int) string {
	if minutes < 60 {
		return "less than an hour"
	}
	h, m := minutes/60, minutes%60
	if m >= 30 {
		return fmt.Sprintf("about %dh", h)
	}
	return fmt.Sprintf("a little under %dh", h+1)
}

// PhaseRemainingText describes the time left in a phase, rounded to the
// nearest five minutes.
func PhaseRemainingText(minutes int) string {
	if minutes < 5 {
		return "less than 5 minutes"
	}
	rounded := (minutes + 2) / 5 * 5
	if rounded >= 60 {
		h, m := rounded/60, rounded%60
		if m == 0 {
			return fmt.Sprintf("about %dh", h)
		}
		return fmt.Sprintf("about %dh and %dmin", h, m)
	}
	return fmt.Sprintf("about %d minutes", rounded)
}
