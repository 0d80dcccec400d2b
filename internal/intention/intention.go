// Package intention keeps reusable intentions and the ratings recorded
// against them across trips.
package intention

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sadopc/tripguide/internal/core"
)

// UsageCap is the number of trips one intention may be attached to.
const UsageCap = 3

type Intention struct {
	ID          string    `json:"id"`
	Emoji       string    `json:"emoji,omitempty"`
	Text        string    `json:"text"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	// Tags are display labels rebuilt from the link titles on every change.
	Tags  []string `json:"tags"`
	Trips []Link   `json:"trips"`
}

// Link ties an intention to one trip and carries the ratings and notes
// recorded for it on that trip.
type Link struct {
	TripID    string         `json:"tripId"`
	TripTitle string         `json:"tripTitle,omitempty"`
	TripDate  time.Time      `json:"tripDate"`
	Ratings   core.RatingSet `json:"ratings"`
	Notes     []core.Note    `json:"notes"`
}

func (in Intention) UsageCount() int { return len(in.Trips) }

// Available reports whether the intention can still be picked for a new trip.
func (in Intention) Available() bool { return in.UsageCount() < UsageCap }

// Link returns the link to tripID.
func (in *Intention) Link(tripID string) (*Link, error) {
	for i := range in.Trips {
		if in.Trips[i].TripID == tripID {
			return &in.Trips[i], nil
		}
	}
	return nil, fmt.Errorf("intention %s on trip %s: %w", in.ID, tripID, core.ErrNotFound)
}

// Average is the mean of the rated values of kind across every trip, rounded
// to one decimal. ok is false when no trip has a value of that kind.
func (in Intention) Average(kind core.RatingType) (avg float64, ok bool) {
	sum, n := 0, 0
	for _, l := range in.Trips {
		if v, rated := l.Ratings.Value(kind); rated {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return math.Round(float64(sum)/float64(n)*10) / 10, true
}

func (in *Intention) deriveTags() {
	var tags []string
	seen := make(map[string]bool)
	for _, l := range in.Trips {
		t := strings.TrimSpace(l.TripTitle)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	in.Tags = tags
}

// Clone returns a deep copy.
func (in Intention) Clone() Intention {
	c := in
	c.Tags = append([]string(nil), in.Tags...)
	if in.Trips != nil {
		c.Trips = make([]Link, len(in.Trips))
		for i, l := range in.Trips {
			l.Ratings = l.Ratings.Clone()
			l.Notes = append([]core.Note(nil), l.Notes...)
			c.Trips[i] = l
		}
	}
	return c
}

func validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &core.ValidationError{Field: "text", Reason: "must not be empty"}
	}
	return text, nil
}
