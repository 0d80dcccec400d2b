package intention

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/tripguide/internal/core"
)

// Engine owns the intention collection. Each mutation is a read-modify-write
// of the whole collection done under one lock.
type Engine struct {
	mu         sync.Mutex
	intentions []Intention
	now        core.Clock
	persist    *core.Persister
	log        *slog.Logger
}

type Option func(*Engine)

func WithClock(c core.Clock) Option {
	return func(e *Engine) { e.now = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Open loads the intentions stored in blobs. A nil blobs keeps them in memory.
func Open(ctx context.Context, blobs core.BlobStore, opts ...Option) (*Engine, error) {
	e := &Engine{now: core.SystemClock, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(slog.String("component", "intention"))
	e.persist = core.NewPersister(blobs, core.KeyIntentions, e.log)

	if _, err := e.persist.Load(ctx, &e.intentions); err != nil {
		return nil, fmt.Errorf("open intentions: %w", err)
	}
	for i := range e.intentions {
		e.intentions[i].deriveTags()
	}
	return e, nil
}

func (e *Engine) indexOf(id string) int {
	for i, in := range e.intentions {
		if in.ID == id {
			return i
		}
	}
	return -1
}

// mutate applies fn to a copy of intention id and swaps the copy in if fn
// succeeds.
func (e *Engine) mutate(ctx context.Context, id string, fn func(in *Intention) error) (Intention, error) {
	e.mu.Lock()
	i := e.indexOf(id)
	if i < 0 {
		e.mu.Unlock()
		return Intention{}, fmt.Errorf("intention %s: %w", id, core.ErrNotFound)
	}
	updated := e.intentions[i].Clone()
	if err := fn(&updated); err != nil {
		e.mu.Unlock()
		return Intention{}, err
	}
	updated.deriveTags()
	e.intentions[i] = updated
	snap := e.persist.Snapshot(e.intentions)
	e.mu.Unlock()

	return updated.Clone(), e.persist.Write(ctx, snap)
}

// Add creates an intention and returns its id.
func (e *Engine) Add(ctx context.Context, text, description, emoji string) (string, error) {
	text, err := validateText(text)
	if err != nil {
		return "", err
	}
	in := Intention{
		ID:          uuid.NewString(),
		Emoji:       strings.TrimSpace(emoji),
		Text:        text,
		Description: strings.TrimSpace(description),
		CreatedAt:   e.now(),
	}

	e.mu.Lock()
	e.intentions = append(e.intentions, in)
	snap := e.persist.Snapshot(e.intentions)
	e.mu.Unlock()

	e.log.Info("intention added", slog.String("intention_id", in.ID))
	return in.ID, e.persist.Write(ctx, snap)
}

func (e *Engine) Edit(ctx context.Context, id, text, description, emoji string) error {
	text, err := validateText(text)
	if err != nil {
		return err
	}
	_, err = e.mutate(ctx, id, func(in *Intention) error {
		in.Text = text
		in.Description = strings.TrimSpace(description)
		in.Emoji = strings.TrimSpace(emoji)
		return nil
	})
	return err
}

// Delete removes an intention together with its ratings.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	i := e.indexOf(id)
	if i < 0 {
		e.mu.Unlock()
		return fmt.Errorf("delete intention %s: %w", id, core.ErrNotFound)
	}
	next := make([]Intention, 0, len(e.intentions)-1)
	next = append(next, e.intentions[:i]...)
	next = append(next, e.intentions[i+1:]...)
	e.intentions = next
	snap := e.persist.Snapshot(e.intentions)
	e.mu.Unlock()

	e.log.Info("intention deleted", slog.String("intention_id", id))
	return e.persist.Write(ctx, snap)
}

// AttachToTrip links the intention to a trip. Linking to a trip it is already
// linked to changes nothing; a new link beyond UsageCap is rejected.
func (e *Engine) AttachToTrip(ctx context.Context, id, tripID string, tripDate time.Time, tripTitle string) error {
	if tripID == "" {
		return &core.ValidationError{Field: "trip id", Reason: "must not be empty"}
	}
	e.mu.Lock()
	i := e.indexOf(id)
	if i >= 0 {
		if _, err := e.intentions[i].Link(tripID); err == nil {
			e.mu.Unlock()
			return nil
		}
	}
	e.mu.Unlock()

	_, err := e.mutate(ctx, id, func(in *Intention) error {
		if _, err := in.Link(tripID); err == nil {
			return nil
		}
		if in.UsageCount() >= UsageCap {
			return fmt.Errorf("attach intention %s to trip %s: used on %d trips: %w",
				in.ID, tripID, in.UsageCount(), core.ErrUsageCapExceeded)
		}
		in.Trips = append(in.Trips, Link{TripID: tripID, TripTitle: strings.TrimSpace(tripTitle), TripDate: tripDate})
		return nil
	})
	return err
}

func (e *Engine) DetachFromTrip(ctx context.Context, id, tripID string) error {
	_, err := e.mutate(ctx, id, func(in *Intention) error {
		for i, l := range in.Trips {
			if l.TripID == tripID {
				in.Trips = append(in.Trips[:i:i], in.Trips[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("detach intention %s from trip %s: %w", in.ID, tripID, core.ErrNotFound)
	})
	return err
}

// SetTripDetails stamps the link to tripID with the trip's start date and
// title once the trip is over. A zero date keeps the one set at attach time.
func (e *Engine) SetTripDetails(ctx context.Context, id, tripID string, date time.Time, title string) error {
	_, err := e.mutate(ctx, id, func(in *Intention) error {
		l, err := in.Link(tripID)
		if err != nil {
			return err
		}
		if !date.IsZero() {
			l.TripDate = date
		}
		l.TripTitle = strings.TrimSpace(title)
		return nil
	})
	return err
}

// UpsertRating stores r on the intention's link to tripID, replacing any
// rating of the same type.
func (e *Engine) UpsertRating(ctx context.Context, id, tripID string, r core.Rating) error {
	if err := r.Validate(); err != nil {
		return err
	}
	_, err := e.mutate(ctx, id, func(in *Intention) error {
		l, err := in.Link(tripID)
		if err != nil {
			return err
		}
		l.Ratings.Put(r)
		return nil
	})
	return err
}

func (e *Engine) AddNote(ctx context.Context, id, tripID string, n core.Note) error {
	if err := n.Validate(); err != nil {
		return err
	}
	_, err := e.mutate(ctx, id, func(in *Intention) error {
		l, err := in.Link(tripID)
		if err != nil {
			return err
		}
		l.Notes = append(l.Notes, n)
		return nil
	})
	return err
}

// AverageRating averages ratings of kind across every trip the intention was
// used on. ok is false when none carries a value.
func (e *Engine) AverageRating(id string, kind core.RatingType) (avg float64, ok bool, err error) {
	in, err := e.Get(id)
	if err != nil {
		return 0, false, err
	}
	avg, ok = in.Average(kind)
	return avg, ok, nil
}

func (e *Engine) UsageCount(id string) (int, error) {
	in, err := e.Get(id)
	if err != nil {
		return 0, err
	}
	return in.UsageCount(), nil
}

func (e *Engine) Get(id string) (Intention, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(id)
	if i < 0 {
		return Intention{}, fmt.Errorf("intention %s: %w", id, core.ErrNotFound)
	}
	return e.intentions[i].Clone(), nil
}

// List returns every intention in creation order.
func (e *Engine) List() []Intention {
	return e.filter(func(Intention) bool { return true })
}

// Available returns the intentions still under the usage cap.
func (e *Engine) Available() []Intention {
	return e.filter(Intention.Available)
}

func (e *Engine) filter(keep func(Intention) bool) []Intention {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Intention
	for _, in := range e.intentions {
		if keep(in) {
			out = append(out, in.Clone())
		}
	}
	return out
}

// FollowUpsFor reports follow-up status for the intention's link to tripID,
// for a trip that ended at end.
func (e *Engine) FollowUpsFor(id, tripID string, end time.Time) ([]FollowUpStatus, error) {
	in, err := e.Get(id)
	if err != nil {
		return nil, err
	}
	l, err := in.Link(tripID)
	if err != nil {
		return nil, err
	}
	return FollowUps(end, e.now(), l.Ratings), nil
}

// Summary aggregates one intention for reports.
type Summary struct {
	ID         string
	Emoji      string
	Text       string
	UsageCount int
	Averages   map[core.RatingType]float64
}

func (e *Engine) Summary(id string) (Summary, error) {
	in, err := e.Get(id)
	if err != nil {
		return Summary{}, err
	}
	return summarize(in), nil
}

// Summaries returns a summary per intention, in creation order.
func (e *Engine) Summaries() []Summary {
	list := e.List()
	out := make([]Summary, 0, len(list))
	for _, in := range list {
		out = append(out, summarize(in))
	}
	return out
}

func summarize(in Intention) Summary {
	s := Summary{
		ID:         in.ID,
		Emoji:      in.Emoji,
		Text:       in.Text,
		UsageCount: in.UsageCount(),
		Averages:   make(map[core.RatingType]float64),
	}
	for _, kind := range core.RatingTypes {
		if avg, ok := in.Average(kind); ok {
			s.Averages[kind] = avg
		}
	}
	return s
}
