package guide

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sadopc/tripguide/internal/core"
	"github.com/sadopc/tripguide/internal/history"
	"github.com/sadopc/tripguide/internal/intention"
)

// RatePostTrip records post-trip ratings for a completed trip, keyed by
// intention id. A nil value means the intention was left unrated. Ratings go
// into the history entry and the intention ledger.
func (g *Guide) RatePostTrip(ctx context.Context, tripID string, values map[string]*int) error {
	now := g.now()
	ratings := make(map[string]core.Rating, len(values))
	for id, v := range values {
		r, err := core.NewRating(core.RatingPostTrip, v, now)
		if err != nil {
			return err
		}
		ratings[id] = r
	}

	var errs []error
	_, err := g.history.Update(ctx, tripID, func(e *history.Entry) error {
		for id, r := range ratings {
			if err := e.RateIntention(id, r); err != nil {
				return err
			}
		}
		e.PostTripRated = true
		return nil
	})
	if errs, err = settle(errs, err); err != nil {
		return fmt.Errorf("rate trip %s: %w", tripID, err)
	}

	for id, r := range ratings {
		err := g.intentions.UpsertRating(ctx, id, tripID, r)
		if errors.Is(err, core.ErrNotFound) {
			g.log.Warn("post-trip rating not in ledger", slog.String("intention_id", id), slog.String("trip_id", tripID))
			continue
		}
		if errs, err = settle(errs, err); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

// RecordFollowUp stores a follow-up rating, and an optional note, for one
// intention of a completed trip. A slot whose threshold has not passed is
// rejected; a slot already rated is overwritten.
func (g *Guide) RecordFollowUp(ctx context.Context, tripID, intentionID string, kind core.RatingType, value *int, note string) error {
	entry, err := g.history.FindByID(tripID)
	if err != nil {
		return err
	}
	if _, err := entry.Intention(intentionID); err != nil {
		return err
	}
	now := g.now()
	status, err := intention.FollowUp(kind, entry.EndTime, now, core.RatingSet{})
	if err != nil {
		return err
	}
	if !status.Available {
		return fmt.Errorf("%s follow-up for trip %s opens in %d days: %w",
			kind, tripID, status.DaysRemaining, core.ErrInvalidTransition)
	}

	r, err := core.NewRating(kind, value, now)
	if err != nil {
		return err
	}
	var n *core.Note
	if strings.TrimSpace(note) != "" {
		fn, err := core.NewFollowupNote(status.Threshold, note, now)
		if err != nil {
			return err
		}
		n = &fn
	}

	var errs []error
	_, err = g.history.Update(ctx, tripID, func(e *history.Entry) error {
		if err := e.RateIntention(intentionID, r); err != nil {
			return err
		}
		if n != nil {
			return e.AddIntentionNote(intentionID, *n)
		}
		return nil
	})
	if errs, err = settle(errs, err); err != nil {
		return err
	}

	err = g.intentions.UpsertRating(ctx, intentionID, tripID, r)
	if err == nil && n != nil {
		err = g.intentions.AddNote(ctx, intentionID, tripID, *n)
	}
	if errors.Is(err, core.ErrNotFound) {
		g.log.Warn("follow-up not in ledger", slog.String("intention_id", intentionID), slog.String("trip_id", tripID))
		err = nil
	}
	if errs, err = settle(errs, err); err != nil {
		return err
	}
	g.log.Info("follow-up recorded", slog.String("trip_id", tripID), slog.String("type", string(kind)))
	return errors.Join(errs...)
}

// IntentionFollowUps is the follow-up state of one intention on one trip.
type IntentionFollowUps struct {
	IntentionID string
	Emoji       string
	Text        string
	Statuses    []intention.FollowUpStatus
}

// FollowUps reports every intention's follow-up slots for a completed trip.
func (g *Guide) FollowUps(tripID string) ([]IntentionFollowUps, error) {
	entry, err := g.history.FindByID(tripID)
	if err != nil {
		return nil, err
	}
	now := g.now()
	out := make([]IntentionFollowUps, 0, len(entry.Intentions))
	for _, rec := range entry.Intentions {
		out = append(out, IntentionFollowUps{
			IntentionID: rec.ID,
			Emoji:       rec.Emoji,
			Text:        rec.Text,
			Statuses:    intention.FollowUps(entry.EndTime, now, rec.Ratings),
		})
	}
	return out, nil
}

// PendingFollowUp is an open follow-up slot, used for reminders in the CLI
// and TUI.
type PendingFollowUp struct {
	TripID      string
	TripTitle   string
	IntentionID string
	Text        string
	Type        core.RatingType
}

// Pending lists the follow-up slots that are open and not yet rated, most
// recent trip first.
func (g *Guide) Pending() []PendingFollowUp {
	now := g.now()
	var out []PendingFollowUp
	for _, e := range g.history.List() {
		for _, rec := range e.Intentions {
			for _, s := range intention.FollowUps(e.EndTime, now, rec.Ratings) {
				if s.Available {
					out = append(out, PendingFollowUp{
						TripID:      e.ID,
						TripTitle:   e.Title,
						IntentionID: rec.ID,
						Text:        rec.Text,
						Type:        s.Type,
					})
				}
			}
		}
	}
	return out
}
