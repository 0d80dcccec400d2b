// Package sitter keeps the emergency contacts a user can pick as trip sitter.
package sitter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sadopc/tripguide/internal/core"
)

type Contact struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

func (c Contact) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &core.ValidationError{Field: "sitter name", Reason: "empty"}
	}
	if strings.TrimSpace(c.Phone) == "" {
		return &core.ValidationError{Field: "sitter phone", Reason: "empty"}
	}
	return nil
}

// Registry is a flat, persisted list of contacts.
type Registry struct {
	mu       sync.Mutex
	contacts []Contact
	persist  *core.Persister
	log      *slog.Logger
}

// Open loads the registry from blobs. A nil blobs keeps it in memory.
func Open(ctx context.Context, blobs core.BlobStore, log *slog.Logger) (*Registry, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "sitters"))
	r := &Registry{
		persist: core.NewPersister(blobs, core.KeyTripSitters, log),
		log:     log,
	}
	if _, err := r.persist.Load(ctx, &r.contacts); err != nil {
		return nil, fmt.Errorf("open sitter registry: %w", err)
	}
	return r, nil
}

func (r *Registry) Add(ctx context.Context, c Contact) (string, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	if err := c.validate(); err != nil {
		return "", err
	}
	c.ID = uuid.NewString()

	r.mu.Lock()
	r.contacts = append(r.contacts, c)
	snap := r.persist.Snapshot(r.contacts)
	r.mu.Unlock()

	r.log.Info("sitter added", slog.String("sitter_id", c.ID))
	return c.ID, r.persist.Write(ctx, snap)
}

// Update replaces the contact with the same ID.
func (r *Registry) Update(ctx context.Context, c Contact) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	if err := c.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	i := r.indexOf(c.ID)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("sitter %s: %w", c.ID, core.ErrNotFound)
	}
	r.contacts[i] = c
	snap := r.persist.Snapshot(r.contacts)
	r.mu.Unlock()

	return r.persist.Write(ctx, snap)
}

func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("sitter %s: %w", id, core.ErrNotFound)
	}
	r.contacts = append(r.contacts[:i:i], r.contacts[i+1:]...)
	snap := r.persist.Snapshot(r.contacts)
	r.mu.Unlock()

	r.log.Info("sitter removed", slog.String("sitter_id", id))
	return r.persist.Write(ctx, snap)
}

func (r *Registry) Get(id string) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return Contact{}, fmt.Errorf("sitter %s: %w", id, core.ErrNotFound)
	}
	return r.contacts[i], nil
}

func (r *Registry) List() []Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.contacts) == 0 {
		return nil
	}
	out := make([]Contact, len(r.contacts))
	copy(out, r.contacts)
	return out
}

func (r *Registry) indexOf(id string) int {
	for i, c := range r.contacts {
		if c.ID == id {
			return i
		}
	}
	return -1
}
