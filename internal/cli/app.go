package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sadopc/tripguide/internal/config"
	"github.com/sadopc/tripguide/internal/core"
	"github.com/sadopc/tripguide/internal/guide"
	"github.com/sadopc/tripguide/internal/history"
	"github.com/sadopc/tripguide/internal/intention"
	"github.com/sadopc/tripguide/internal/logging"
	"github.com/sadopc/tripguide/internal/sitter"
	"github.com/sadopc/tripguide/internal/store"
	"github.com/sadopc/tripguide/internal/trip"
)

// BlobBackend is a BlobStore that owns an open database.
type BlobBackend interface {
	core.BlobStore
	Close() error
}

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	Config *config.Config
	Log    *slog.Logger
	Store  BlobBackend
	Guide  *guide.Guide

	logFile io.Closer
}

// OpenBackend opens the storage backend named in cfg.
func OpenBackend(cfg *config.Config) (BlobBackend, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		return store.NewBadger(cfg.BadgerDir())
	case config.BackendSQLite:
		return store.New(cfg.DBPath())
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// NewAppContext opens the log file and the store, then loads every
// collection.
func NewAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	log, logFile, err := logging.Open(cfg.LogPath(), level)
	if err != nil {
		return nil, err
	}

	blobs, err := OpenBackend(cfg)
	if err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}

	a := &AppContext{Config: cfg, Log: log, Store: blobs, logFile: logFile}
	g, err := a.build(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Guide = g
	log.Info("tripguide started", slog.String("backend", cfg.Backend), slog.String("data_dir", cfg.DataDir))
	return a, nil
}

func (a *AppContext) build(ctx context.Context) (*guide.Guide, error) {
	s, err := trip.Open(ctx, a.Store, trip.WithLogger(a.Log))
	if err != nil {
		return nil, err
	}
	h, err := history.Open(ctx, a.Store, a.Log)
	if err != nil {
		return nil, err
	}
	e, err := intention.Open(ctx, a.Store, intention.WithLogger(a.Log))
	if err != nil {
		return nil, err
	}
	r, err := sitter.Open(ctx, a.Store, a.Log)
	if err != nil {
		return nil, err
	}
	return guide.New(s, h, e, r, guide.WithLogger(a.Log)), nil
}

// Close releases all resources held by the AppContext.
func (a *AppContext) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}
