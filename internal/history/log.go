// Package history is the system of record for completed trips.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sadopc/tripguide/internal/core"
)

// Log holds completed trips, most recent first. Every mutation rewrites the
// whole collection.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	persist *core.Persister
	log     *slog.Logger
}

// Open loads the log from blobs. A nil blobs keeps it in memory.
func Open(ctx context.Context, blobs core.BlobStore, log *slog.Logger) (*Log, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "history"))
	l := &Log{
		persist: core.NewPersister(blobs, core.KeyTripHistory, log),
		log:     log,
	}
	if _, err := l.persist.Load(ctx, &l.entries); err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return l, nil
}

// Append inserts e at the head of the log.
func (l *Log) Append(ctx context.Context, e Entry) error {
	e = e.Clone()

	l.mu.Lock()
	if l.indexOf(e.ID) >= 0 {
		l.mu.Unlock()
		return fmt.Errorf("append trip %s: already recorded: %w", e.ID, core.ErrInvalidTransition)
	}
	l.entries = append([]Entry{e}, l.entries...)
	snap := l.persist.Snapshot(l.entries)
	l.mu.Unlock()

	l.log.Info("trip recorded", slog.String("trip_id", e.ID), slog.Duration("duration", e.Duration()))
	return l.persist.Write(ctx, snap)
}

// ReplaceAll swaps in a whole new collection.
func (l *Log) ReplaceAll(ctx context.Context, entries []Entry) error {
	seen := make(map[string]bool, len(entries))
	next := make([]Entry, len(entries))
	for i, e := range entries {
		if seen[e.ID] {
			return &core.ValidationError{Field: "history", Reason: fmt.Sprintf("duplicate trip id %s", e.ID)}
		}
		seen[e.ID] = true
		next[i] = e.Clone()
	}

	l.mu.Lock()
	l.entries = next
	snap := l.persist.Snapshot(l.entries)
	l.mu.Unlock()

	return l.persist.Write(ctx, snap)
}

// Update finds the entry with id, applies fn to a copy and replaces the whole
// collection with the result, all under one lock. If fn fails nothing changes.
func (l *Log) Update(ctx context.Context, id string, fn func(e *Entry) error) (Entry, error) {
	l.mu.Lock()
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		return Entry{}, fmt.Errorf("trip %s: %w", id, core.ErrNotFound)
	}
	updated := l.entries[i].Clone()
	if err := fn(&updated); err != nil {
		l.mu.Unlock()
		return Entry{}, err
	}
	updated.ID = id

	next := make([]Entry, len(l.entries))
	copy(next, l.entries)
	next[i] = updated
	l.entries = next
	snap := l.persist.Snapshot(l.entries)
	l.mu.Unlock()

	return updated.Clone(), l.persist.Write(ctx, snap)
}

func (l *Log) FindByID(id string) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(id)
	if i < 0 {
		return Entry{}, fmt.Errorf("trip %s: %w", id, core.ErrNotFound)
	}
	return l.entries[i].Clone(), nil
}

// List returns all entries, most recent first.
func (l *Log) List() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return nil
	}
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Clone()
	}
	return out
}

// MostRecent returns the entry at index 0.
func (l *Log) MostRecent() (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[0].Clone(), true
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Log) indexOf(id string) int {
	for i, e := range l.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
