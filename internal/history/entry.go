package history

import (
	"fmt"
	"time"

	"github.com/sadopc/tripguide/internal/core"
	"github.com/sadopc/tripguide/internal/sitter"
	"github.com/sadopc/tripguide/internal/trip"
)

// Entry is a completed trip. Entries are never edited in place; a change
// produces a new Entry that replaces the old one in the log.
type Entry struct {
	ID            string            `json:"id"`
	Title         string            `json:"title,omitempty"`
	StartTime     time.Time         `json:"startTime"`
	EndTime       time.Time         `json:"endTime"`
	Dose          trip.Dose         `json:"dose"`
	Set           trip.Confirmation `json:"set"`
	Setting       trip.Confirmation `json:"setting"`
	Safety        trip.Safety       `json:"safety,omitempty"`
	TripSitter    *sitter.Contact   `json:"tripSitter,omitempty"`
	Intentions    []IntentionRecord `json:"intentions"`
	GeneralNotes  []core.Note       `json:"generalNotes"`
	PostTripRated bool              `json:"postTripRated"`
}

// IntentionRecord is an intention as it stood during one trip, with the
// ratings and notes recorded against it.
type IntentionRecord struct {
	ID          string         `json:"id"`
	Emoji       string         `json:"emoji,omitempty"`
	Text        string         `json:"text"`
	Description string         `json:"description,omitempty"`
	Notes       []core.Note    `json:"notes"`
	Ratings     core.RatingSet `json:"ratings"`
}

// Snapshot freezes an active draft into a history entry ending at end.
func Snapshot(d trip.Draft, end time.Time, title string) (Entry, error) {
	if !d.Active() {
		return Entry{}, fmt.Errorf("snapshot trip %s: never started: %w", d.ID, core.ErrInvalidTransition)
	}
	d = d.Clone()
	if end.Before(*d.StartTime) {
		end = *d.StartTime
	}
	if title == "" {
		title = DefaultTitle(d, *d.StartTime)
	}

	e := Entry{
		ID:           d.ID,
		Title:        title,
		StartTime:    *d.StartTime,
		EndTime:      end,
		Dose:         d.Dose,
		Set:          d.Set,
		Setting:      d.Setting,
		Safety:       d.Safety,
		TripSitter:   d.TripSitter,
		GeneralNotes: d.GeneralNotes,
	}
	for _, in := range d.Intentions {
		e.Intentions = append(e.Intentions, IntentionRecord{
			ID:          in.ID,
			Emoji:       in.Emoji,
			Text:        in.Text,
			Description: in.Description,
			Notes:       in.Notes,
		})
	}
	return e, nil
}

// DefaultTitle names a trip after its substance and start date.
func DefaultTitle(d trip.Draft, start time.Time) string {
	if d.Dose.Substance == "" {
		return "Trip " + start.Format("Jan 2, 2006")
	}
	return fmt.Sprintf("%s, %s", d.Dose.Substance, start.Format("Jan 2, 2006"))
}

func (e Entry) Duration() time.Duration { return e.EndTime.Sub(e.StartTime) }

// Intention returns the record for intention id.
func (e *Entry) Intention(id string) (*IntentionRecord, error) {
	for i := range e.Intentions {
		if e.Intentions[i].ID == id {
			return &e.Intentions[i], nil
		}
	}
	return nil, fmt.Errorf("intention %s in trip %s: %w", id, e.ID, core.ErrNotFound)
}

// RateIntention stores r on the intention's record, replacing any rating of
// the same type.
func (e *Entry) RateIntention(intentionID string, r core.Rating) error {
	if err := r.Validate(); err != nil {
		return err
	}
	rec, err := e.Intention(intentionID)
	if err != nil {
		return err
	}
	rec.Ratings.Put(r)
	return nil
}

func (e *Entry) AddIntentionNote(intentionID string, n core.Note) error {
	if err := n.Validate(); err != nil {
		return err
	}
	rec, err := e.Intention(intentionID)
	if err != nil {
		return err
	}
	rec.Notes = append(rec.Notes, n)
	return nil
}

// Clone returns a deep copy.
func (e Entry) Clone() Entry {
	c := e
	c.Safety = e.Safety.Clone()
	if e.TripSitter != nil {
		ts := *e.TripSitter
		c.TripSitter = &ts
	}
	c.GeneralNotes = append([]core.Note(nil), e.GeneralNotes...)
	if e.Intentions != nil {
		c.Intentions = make([]IntentionRecord, len(e.Intentions))
		for i, rec := range e.Intentions {
			rec.Notes = append([]core.Note(nil), rec.Notes...)
			rec.Ratings = rec.Ratings.Clone()
			c.Intentions[i] = rec
		}
	}
	return c
}
