package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tutor/pkg/types"
)

func TestNewBackend(t *testing.T) {
	ctx := context.Background()
	store := NewBackend()
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer store.Detach()

	id, err := store.Students().Set(ctx, &types.Student{Name: "Ana"})
	require.NoError(t, err)

	err = store.WithTx(ctx, func(tables types.Tables) error {
		_, err := tables.Vocabulary().Set(ctx, &types.VocabularyEntry{StudentID: id, Word: "cat", LessonDate: "2026-10-17"})
		return err
	})
	require.NoError(t, err)

	entries, err := store.Vocabulary().Fetch(ctx, types.Filter{"student_id": id})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, store.Detach())
	_, err = store.Students().Get(ctx, id)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}
