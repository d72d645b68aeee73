package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/unipack/internal/domain/session"
)

func newSession(id string, createdAt time.Time) *domain.Session {
	return &domain.Session{
		ID:        id,
		Status:    domain.StatusOpen,
		CreatedAt: createdAt,
	}
}

// TestStore_NotFound verifies missing sessions are reported with ErrNotFound.
func TestStore_NotFound(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	_, err := store.Load(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)

	err = store.AppendOperation(context.Background(), "missing", domain.Operation{Seq: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

// TestStore_AppendAndLoad ensures operations come back in recorded order.
func TestStore_AppendAndLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(t.TempDir())
	sess := newSession("s1", time.Now().UTC())
	require.NoError(t, store.Create(ctx, sess))

	ops := []domain.Operation{
		{Seq: 1, Kind: domain.KindCreateDir, Path: "/tmp/out"},
		{Seq: 2, Kind: domain.KindCreateFile, Path: "/tmp/out/app"},
		{Seq: 3, Kind: domain.KindMove, Path: "/tmp/a", Dest: "/tmp/b"},
	}
	for _, op := range ops {
		require.NoError(t, store.AppendOperation(ctx, sess.ID, op))
	}

	loaded, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusOpen, loaded.Status)
	require.Len(t, loaded.Operations, 3)

	for i, op := range loaded.Operations {
		require.Equal(t, ops[i].Seq, op.Seq)
		require.Equal(t, ops[i].Kind, op.Kind)
		require.Equal(t, ops[i].Path, op.Path)
	}
}

// TestStore_SetStatus covers legal and illegal lifecycle transitions.
func TestStore_SetStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(t.TempDir())
	require.NoError(t, store.Create(ctx, newSession("s1", time.Now().UTC())))

	require.NoError(t, store.SetStatus(ctx, "s1", domain.StatusCommitted))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCommitted, loaded.Status)

	// Committed sessions may still be rolled back manually, but never reopened.
	require.Error(t, store.SetStatus(ctx, "s1", domain.StatusOpen))
	require.NoError(t, store.SetStatus(ctx, "s1", domain.StatusRolledBack))
	require.Error(t, store.SetStatus(ctx, "s1", domain.StatusCommitted))
}

// TestStore_List returns summaries most recent first.
func TestStore_List(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(t.TempDir())
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.Create(ctx, newSession("older", base.Add(-time.Hour))))
	require.NoError(t, store.Create(ctx, newSession("newer", base)))
	require.NoError(t, store.AppendOperation(ctx, "newer", domain.Operation{Seq: 1, Kind: domain.KindCreateDir, Path: "/x"}))

	summaries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, "newer", summaries[0].ID)
	require.Equal(t, 1, summaries[0].OperationCount)
	require.Equal(t, "older", summaries[1].ID)
	require.Equal(t, 0, summaries[1].OperationCount)
}

// TestStore_ListEmptyRoot tolerates a session root that does not exist yet.
func TestStore_ListEmptyRoot(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir() + "/never-created")

	summaries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, summaries)
}

// TestStore_MarkAbandoned flags open sessions from prior runs without
// touching finished ones.
func TestStore_MarkAbandoned(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(t.TempDir())

	require.NoError(t, store.Create(ctx, newSession("crashed", time.Now().UTC())))
	require.NoError(t, store.Create(ctx, newSession("done", time.Now().UTC())))
	require.NoError(t, store.SetStatus(ctx, "done", domain.StatusCommitted))

	marked, err := store.MarkAbandoned(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"crashed"}, marked)

	loaded, err := store.Load(ctx, "crashed")
	require.NoError(t, err)
	require.Equal(t, domain.StatusAbandoned, loaded.Status)
}
