package intention

import (
	"time"

	"github.com/sadopc/tripguide/internal/core"
)

// FollowUpStatus is the state of one follow-up slot at a given instant.
type FollowUpStatus struct {
	Type      core.RatingType
	Threshold int
	DaysSince int
	// AlreadyRated wins over the threshold: a rated slot is never reported as
	// available or locked.
	AlreadyRated  bool
	Available     bool
	DaysRemaining int
}

// Locked reports whether the slot is waiting for its threshold.
func (s FollowUpStatus) Locked() bool { return !s.AlreadyRated && !s.Available }

// DaysSince is the number of whole days from end to now.
func DaysSince(end, now time.Time) int {
	d := now.Sub(end)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

// FollowUp computes the status of one follow-up rating kind for a trip that
// ended at end, given the ratings already recorded.
func FollowUp(kind core.RatingType, end, now time.Time, ratings core.RatingSet) (FollowUpStatus, error) {
	threshold, ok := kind.FollowupDays()
	if !ok {
		return FollowUpStatus{}, &core.ValidationError{Field: "rating type", Reason: string(kind) + " is not a follow-up"}
	}
	s := FollowUpStatus{Type: kind, Threshold: threshold, DaysSince: DaysSince(end, now)}
	if _, rated := ratings.Value(kind); rated {
		s.AlreadyRated = true
		return s, nil
	}
	if s.DaysSince >= threshold {
		s.Available = true
		return s, nil
	}
	s.DaysRemaining = threshold - s.DaysSince
	return s, nil
}

// FollowUps reports every follow-up kind in order.
func FollowUps(end, now time.Time, ratings core.RatingSet) []FollowUpStatus {
	out := make([]FollowUpStatus, 0, len(core.FollowupTypes))
	for _, kind := range core.FollowupTypes {
		s, _ := FollowUp(kind, end, now, ratings)
		out = append(out, s)
	}
	return out
}
