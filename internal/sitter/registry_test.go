package sitter

import (
	"context"
	"testing"

	"github.com/sadopc/tripguide/internal/core"
	"github.com/sadopc/tripguide/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndList(t *testing.T) {
	ctx := context.Background()
	r, err := Open(ctx, newTestStore(t), nil)
	require.NoError(t, err)

	id, err := r.Add(ctx, Contact{Name: " Sam ", Phone: "555-0100", Relationship: "friend"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Sam", list[0].Name)
	assert.Equal(t, id, list[0].ID)
}

func TestAddRequiresNameAndPhone(t *testing.T) {
	ctx := context.Background()
	r, err := Open(ctx, nil, nil)
	require.NoError(t, err)

	_, err = r.Add(ctx, Contact{Phone: "555"})
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = r.Add(ctx, Contact{Name: "Sam"})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Empty(t, r.List())
}

func TestUpdateAndRemove(t *testing.T) {
	ctx := context.Background()
	r, err := Open(ctx, nil, nil)
	require.NoError(t, err)

	id, err := r.Add(ctx, Contact{Name: "Sam", Phone: "555"})
	require.NoError(t, err)

	require.NoError(t, r.Update(ctx, Contact{ID: id, Name: "Sam K", Phone: "556"}))
	c, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Sam K", c.Name)

	require.NoError(t, r.Remove(ctx, id))
	_, err = r.Get(id)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, r.Remove(ctx, id), core.ErrNotFound)
	assert.ErrorIs(t, r.Update(ctx, Contact{ID: "nope", Name: "x", Phone: "1"}), core.ErrNotFound)
}

func TestRegistryReloads(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	r, err := Open(ctx, s, nil)
	require.NoError(t, err)
	_, err = r.Add(ctx, Contact{Name: "Alex", Phone: "555-0199"})
	require.NoError(t, err)

	reopened, err := Open(ctx, s, nil)
	require.NoError(t, err)
	require.Len(t, reopened.List(), 1)
	assert.Equal(t, "Alex", reopened.List()[0].Name)
}
