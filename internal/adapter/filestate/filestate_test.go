package filestate

import (
	"context"
	"path/filepath"
	"testing"

	"knowledge-orchestrator/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStore_AppendAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	ctx := context.Background()

	store, err := NewHistoryStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Append(ctx,
		domain.ChatTurn{Role: domain.RoleUser, Content: "what is in report.pdf?"},
		domain.ChatTurn{Role: domain.RoleAssistant, Content: "a quarterly summary"},
	))

	// A fresh store over the same path must see the persisted turns.
	reloaded, err := NewHistoryStore(path)
	require.NoError(t, err)

	turns, err := reloaded.List(ctx)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Equal(t, "a quarterly summary", turns[1].Content)
}

func TestHistoryStore_ListCopies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	ctx := context.Background()

	store, err := NewHistoryStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, domain.ChatTurn{Role: domain.RoleUser, Content: "hi"}))

	turns, err := store.List(ctx)
	require.NoError(t, err)
	turns[0].Content = "mutated"

	again, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hi", again[0].Content)
}

func TestFileMapStore_AssignResolveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file_map.json")
	ctx := context.Background()

	store, err := NewFileMapStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Assign(ctx, "report.pdf", domain.CategoryEducation))

	category, err := store.Resolve(ctx, "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryEducation, category)

	reloaded, err := NewFileMapStore(path)
	require.NoError(t, err)
	category, err = reloaded.Resolve(ctx, "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryEducation, category)
}

func TestFileMapStore_ResolveUnknown(t *testing.T) {
	store, err := NewFileMapStore(filepath.Join(t.TempDir(), "file_map.json"))
	require.NoError(t, err)

	_, err = store.Resolve(context.Background(), "missing.pdf")
	assert.ErrorIs(t, err, domain.ErrFileNotMapped)
}

func TestFileMapStore_AssignRejectsUnknownCategory(t *testing.T) {
	store, err := NewFileMapStore(filepath.Join(t.TempDir(), "file_map.json"))
	require.NoError(t, err)

	err = store.Assign(context.Background(), "report.pdf", domain.Category("Gossip"))
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)
}

func TestFileMapStore_ReassignOverwrites(t *testing.T) {
	store, err := NewFileMapStore(filepath.Join(t.TempDir(), "file_map.json"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Assign(ctx, "report.pdf", domain.CategoryEducation))
	require.NoError(t, store.Assign(ctx, "report.pdf", domain.CategoryPolitics))

	category, err := store.Resolve(ctx, "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryPolitics, category)
}
