package trip

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sadopc/tripguide/internal/core"
	"github.com/sadopc/tripguide/internal/sitter"
)

// Session owns the single trip draft. Only one trip can be active per
// session; a second Start is rejected.
type Session struct {
	mu      sync.RWMutex
	draft   Draft
	now     core.Clock
	persist *core.Persister
	log     *slog.Logger
}

type Option func(*Session)

func WithClock(c core.Clock) Option {
	return func(s *Session) { s.now = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// Open restores the persisted draft, so a trip interrupted by a restart keeps
// its original start time. A nil blobs keeps the draft in memory only.
func Open(ctx context.Context, blobs core.BlobStore, opts ...Option) (*Session, error) {
	s := &Session{now: core.SystemClock, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("component", "trip"))
	s.persist = core.NewPersister(blobs, core.KeyTripDraft, s.log)

	var d Draft
	ok, err := s.persist.Load(ctx, &d)
	if err != nil {
		return nil, fmt.Errorf("open trip session: %w", err)
	}
	if !ok || d.ID == "" {
		d = NewDraft()
	}
	if d.Active() && !d.CurrentPhase.Valid() {
		d.CurrentPhase = PhaseComeUp
	}
	s.draft = d
	if d.Active() {
		s.log.Info("resumed active trip", slog.String("trip_id", d.ID), slog.Time("start", *d.StartTime))
	}
	return s, nil
}

// mutate applies fn under the lock and persists the resulting draft after
// releasing it.
func (s *Session) mutate(ctx context.Context, fn func(d *Draft) error) error {
	s.mu.Lock()
	if err := fn(&s.draft); err != nil {
		s.mu.Unlock()
		return err
	}
	snap := s.persist.Snapshot(s.draft)
	s.mu.Unlock()
	return s.persist.Write(ctx, snap)
}

func (s *Session) UpdateDose(ctx context.Context, dose Dose) error {
	return s.mutate(ctx, func(d *Draft) error { d.Dose = dose; return nil })
}

func (s *Session) UpdateSet(ctx context.Context, set Confirmation) error {
	return s.mutate(ctx, func(d *Draft) error { d.Set = set; return nil })
}

func (s *Session) UpdateSetting(ctx context.Context, setting Confirmation) error {
	return s.mutate(ctx, func(d *Draft) error { d.Setting = setting; return nil })
}

func (s *Session) UpdateSafety(ctx context.Context, safety Safety) error {
	safety = safety.Clone()
	return s.mutate(ctx, func(d *Draft) error { d.Safety = safety; return nil })
}

// UpdateTripSitter stores a snapshot of the contact; nil clears it.
func (s *Session) UpdateTripSitter(ctx context.Context, c *sitter.Contact) error {
	var snap *sitter.Contact
	if c != nil {
		cp := *c
		snap = &cp
	}
	return s.mutate(ctx, func(d *Draft) error { d.TripSitter = snap; return nil })
}

func (s *Session) UpdateIntentions(ctx context.Context, intentions []DraftIntention) error {
	intentions = cloneIntentions(intentions)
	return s.mutate(ctx, func(d *Draft) error { d.Intentions = intentions; return nil })
}

// AddNote appends a general note to the draft.
func (s *Session) AddNote(ctx context.Context, content string) (core.Note, error) {
	n, err := core.NewNote(core.NoteDuring, content, s.now())
	if err != nil {
		return core.Note{}, err
	}
	return n, s.mutate(ctx, func(d *Draft) error {
		d.GeneralNotes = append(d.GeneralNotes, n)
		return nil
	})
}

// AddIntentionNote appends a note to one of the draft's intentions.
func (s *Session) AddIntentionNote(ctx context.Context, intentionID, content string) (core.Note, error) {
	n, err := core.NewNote(core.NoteDuring, content, s.now())
	if err != nil {
		return core.Note{}, err
	}
	return n, s.mutate(ctx, func(d *Draft) error {
		for i := range d.Intentions {
			if d.Intentions[i].ID == intentionID {
				d.Intentions[i].Notes = append(d.Intentions[i].Notes, n)
				return nil
			}
		}
		return fmt.Errorf("intention %s in trip %s: %w", intentionID, d.ID, core.ErrNotFound)
	})
}

// Start begins the trip now, in the come-up phase. The returned error may be
// a persistence error, in which case the trip has still started.
func (s *Session) Start(ctx context.Context) (time.Time, error) {
	now := s.now()
	err := s.mutate(ctx, func(d *Draft) error {
		if d.Active() {
			return fmt.Errorf("start trip %s: already active since %s: %w",
				d.ID, d.StartTime.Format(time.RFC3339), core.ErrInvalidTransition)
		}
		d.StartTime = &now
		d.CurrentPhase = PhaseComeUp
		return nil
	})
	if err != nil && !core.IsPersistence(err) {
		return time.Time{}, err
	}
	s.log.Info("trip started", slog.String("trip_id", s.ID()), slog.Time("start", now))
	return now, err
}

// SetPhase records an explicit phase change. Phases never advance on their own.
func (s *Session) SetPhase(ctx context.Context, p Phase) error {
	if !p.Valid() {
		return &core.ValidationError{Field: "phase", Reason: fmt.Sprintf("unknown phase %q", p)}
	}
	err := s.mutate(ctx, func(d *Draft) error {
		if !d.Active() {
			return fmt.Errorf("set phase %s: no active trip: %w", p, core.ErrInvalidTransition)
		}
		d.CurrentPhase = p
		return nil
	})
	if err == nil || core.IsPersistence(err) {
		s.log.Info("phase changed", slog.String("phase", string(p)))
	}
	return err
}

// AdvancePhase moves to the next phase on the user's request.
func (s *Session) AdvancePhase(ctx context.Context) (Phase, error) {
	var next Phase
	err := s.mutate(ctx, func(d *Draft) error {
		if !d.Active() {
			return fmt.Errorf("advance phase: no active trip: %w", core.ErrInvalidTransition)
		}
		n, ok := d.CurrentPhase.Next()
		if !ok {
			return fmt.Errorf("advance phase: %s is the last phase: %w", d.CurrentPhase, core.ErrInvalidTransition)
		}
		d.CurrentPhase = n
		next = n
		return nil
	})
	return next, err
}

// End resets the draft to an empty default with a new trip id. It does not
// record history; snapshot the draft first.
func (s *Session) End(ctx context.Context) error {
	var ended string
	err := s.mutate(ctx, func(d *Draft) error {
		ended = d.ID
		*d = NewDraft()
		return nil
	})
	s.log.Info("draft reset", slog.String("trip_id", ended))
	return err
}

func (s *Session) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft.Active()
}

// ID returns the id of the trip being prepared or under way.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft.ID
}

// Draft returns a deep copy of the current draft.
func (s *Session) Draft() Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft.Clone()
}

// Progress derives the active trip's progress at the session clock's now.
func (s *Session) Progress() (Progress, bool) {
	s.mu.RLock()
	start, phase := s.draft.StartTime, s.draft.CurrentPhase
	var st time.Time
	if start != nil {
		st = *start
	}
	s.mu.RUnlock()

	if start == nil {
		return Progress{}, false
	}
	return Derive(st, phase, s.now()), true
}

// Now exposes the session clock.
func (s *Session) Now() time.Time { return s.now() }
