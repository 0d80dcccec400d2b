// Package guide sequences the flows that span more than one collection:
// picking intentions for a trip, ending it into history, and rating it
// afterwards.
package guide

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sadopc/tripguide/internal/core"
	"github.com/sadopc/tripguide/internal/history"
	"github.com/sadopc/tripguide/internal/intention"
	"github.com/sadopc/tripguide/internal/sitter"
	"github.com/sadopc/tripguide/internal/trip"
)

type Guide struct {
	// mu serialises the flows that read the draft and then write it back, so
	// the draft and the intention links never disagree.
	mu sync.Mutex

	session    *trip.Session
	history    *history.Log
	intentions *intention.Engine
	sitters    *sitter.Registry
	now        core.Clock
	log        *slog.Logger
}

type Option func(*Guide)

func WithClock(c core.Clock) Option {
	return func(g *Guide) { g.now = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Guide) { g.log = l }
}

func New(s *trip.Session, h *history.Log, e *intention.Engine, r *sitter.Registry, opts ...Option) *Guide {
	g := &Guide{
		session:    s,
		history:    h,
		intentions: e,
		sitters:    r,
		now:        core.SystemClock,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With(slog.String("component", "guide"))
	return g
}

func (g *Guide) Session() *trip.Session        { return g.session }
func (g *Guide) History() *history.Log         { return g.history }
func (g *Guide) Intentions() *intention.Engine { return g.intentions }
func (g *Guide) Sitters() *sitter.Registry     { return g.sitters }

// settle keeps persistence failures, which leave memory updated, and drops
// nil errors so a flow can continue and report every failed write at the end.
func settle(errs []error, err error) ([]error, error) {
	if err == nil {
		return errs, nil
	}
	if core.IsPersistence(err) {
		return append(errs, err), nil
	}
	return errs, err
}

// SelectIntention links the intention to the trip being prepared and adds it
// to the draft. Intentions are fixed once the trip starts.
func (g *Guide) SelectIntention(ctx context.Context, intentionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session.IsActive() {
		return fmt.Errorf("select intention %s: trip already started: %w", intentionID, core.ErrInvalidTransition)
	}
	d := g.session.Draft()
	if d.HasIntention(intentionID) {
		return nil
	}
	in, err := g.intentions.Get(intentionID)
	if err != nil {
		return err
	}

	var errs []error
	if errs, err = settle(errs, g.intentions.AttachToTrip(ctx, in.ID, d.ID, g.now(), "")); err != nil {
		return err
	}
	selected := append(d.Intentions, trip.DraftIntention{
		ID:          in.ID,
		Emoji:       in.Emoji,
		Text:        in.Text,
		Description: in.Description,
	})
	errs = append(errs, g.session.UpdateIntentions(ctx, selected))
	return errors.Join(errs...)
}

func (g *Guide) DeselectIntention(ctx context.Context, intentionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session.IsActive() {
		return fmt.Errorf("deselect intention %s: trip already started: %w", intentionID, core.ErrInvalidTransition)
	}
	d := g.session.Draft()
	if !d.HasIntention(intentionID) {
		return fmt.Errorf("intention %s in trip %s: %w", intentionID, d.ID, core.ErrNotFound)
	}

	var errs []error
	err := g.intentions.DetachFromTrip(ctx, intentionID, d.ID)
	if errors.Is(err, core.ErrNotFound) {
		err = nil
	}
	if errs, err = settle(errs, err); err != nil {
		return err
	}
	kept := make([]trip.DraftIntention, 0, len(d.Intentions))
	for _, in := range d.Intentions {
		if in.ID != intentionID {
			kept = append(kept, in)
		}
	}
	errs = append(errs, g.session.UpdateIntentions(ctx, kept))
	return errors.Join(errs...)
}

// SetTripSitter copies the registered contact into the draft. An empty id
// clears it.
func (g *Guide) SetTripSitter(ctx context.Context, sitterID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if sitterID == "" {
		return g.session.UpdateTripSitter(ctx, nil)
	}
	c, err := g.sitters.Get(sitterID)
	if err != nil {
		return err
	}
	return g.session.UpdateTripSitter(ctx, &c)
}

func (g *Guide) StartTrip(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := g.session.Start(ctx)
	return err
}

// EndTrip freezes the active draft into history and then resets the draft.
// If the history write fails the entry is still kept in memory and the draft
// is still reset; every failed write is returned.
func (g *Guide) EndTrip(ctx context.Context, title string) (history.Entry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := g.session.Draft()
	entry, err := history.Snapshot(d, g.now(), strings.TrimSpace(title))
	if err != nil {
		return history.Entry{}, err
	}

	var errs []error
	if errs, err = settle(errs, g.history.Append(ctx, entry)); err != nil {
		return history.Entry{}, fmt.Errorf("end trip %s: %w", entry.ID, err)
	}
	for _, in := range entry.Intentions {
		err := g.intentions.SetTripDetails(ctx, in.ID, entry.ID, entry.StartTime, entry.Title)
		if errors.Is(err, core.ErrNotFound) {
			g.log.Warn("intention gone at trip end", slog.String("intention_id", in.ID))
			continue
		}
		if errs, err = settle(errs, err); err != nil {
			return entry, err
		}
	}
	errs = append(errs, g.session.End(ctx))

	g.log.Info("trip ended", slog.String("trip_id", entry.ID), slog.Duration("duration", entry.Duration()))
	return entry, errors.Join(errs...)
}

// DiscardDraft throws away a trip that never started, releasing its
// intentions.
func (g *Guide) DiscardDraft(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session.IsActive() {
		return fmt.Errorf("discard draft: trip already started: %w", core.ErrInvalidTransition)
	}
	d := g.session.Draft()
	var errs []error
	for _, in := range d.Intentions {
		err := g.intentions.DetachFromTrip(ctx, in.ID, d.ID)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if errs, err = settle(errs, err); err != nil {
			return err
		}
	}
	errs = append(errs, g.session.End(ctx))
	return errors.Join(errs...)
}

func (g *Guide) AddTripNote(ctx context.Context, content string) (core.Note, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session.AddNote(ctx, content)
}

func (g *Guide) AddIntentionNote(ctx context.Context, intentionID, content string) (core.Note, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session.AddIntentionNote(ctx, intentionID, content)
}
