package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// BlobStore is the persistence port: opaque JSON blobs keyed by name.
type BlobStore interface {
	// Get returns the blob stored under key; ok is false when absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Keys used by the collections in this module.
const (
	KeyTripDraft   = "trip_draft"
	KeyTripHistory = "trip_history"
	KeyIntentions  = "intentions"
	KeyTripSitters = "trip_sitters"
)

// Snapshot is a marshalled collection waiting to be written.
type Snapshot struct {
	seq  uint64
	data []byte
	err  error
}

// Persister overwrites one key with whole-collection snapshots. Snapshots are
// taken under the owning collection's lock and written after it is released;
// a snapshot older than the last one written is dropped, so a slow write can
// never clobber a newer state.
type Persister struct {
	store BlobStore
	key   string
	log   *slog.Logger

	seqMu sync.Mutex
	seq   uint64

	writeMu sync.Mutex
	written uint64
}

// NewPersister returns a persister for key. A nil store keeps collections in
// memory only.
func NewPersister(store BlobStore, key string, log *slog.Logger) *Persister {
	if log == nil {
		log = slog.Default()
	}
	return &Persister{store: store, key: key, log: log}
}

func (p *Persister) Key() string { return p.key }

// Snapshot marshals v and tags it with the next sequence number.
func (p *Persister) Snapshot(v any) Snapshot {
	p.seqMu.Lock()
	p.seq++
	seq := p.seq
	p.seqMu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		err = fmt.Errorf("marshal: %w", err)
	}
	return Snapshot{seq: seq, data: data, err: err}
}

// Write stores snap unless a newer snapshot has already been written.
func (p *Persister) Write(ctx context.Context, snap Snapshot) error {
	if snap.err != nil {
		return p.fail(snap.err)
	}
	if p.store == nil {
		return nil
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if snap.seq <= p.written {
		return nil
	}
	if err := p.store.Set(ctx, p.key, snap.data); err != nil {
		return p.fail(err)
	}
	p.written = snap.seq
	return nil
}

func (p *Persister) fail(err error) error {
	p.log.Warn("persist collection", slog.String("key", p.key), slog.String("error", err.Error()))
	return &PersistenceError{Key: p.key, Err: err}
}

// Load decodes the stored blob into v. It reports false when nothing has been
// stored yet.
func (p *Persister) Load(ctx context.Context, v any) (bool, error) {
	if p.store == nil {
		return false, nil
	}
	data, ok, err := p.store.Get(ctx, p.key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", p.key, err)
	}
	if !ok || len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", p.key, err)
	}
	return true, nil
}
