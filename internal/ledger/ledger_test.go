package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/unipack/internal/domain/session"
	repo "github.com/oshokin/unipack/internal/repository/session"
)

// newLedger returns a ledger with an open session and the store root.
func newLedger(t *testing.T) (*Ledger, string) {
	t.Helper()

	root := t.TempDir()
	led := New(repo.NewStore(filepath.Join(root, "sessions")))

	_, err := led.Begin(context.Background())
	require.NoError(t, err)

	return led, root
}

// TestBegin_OnlyOneOpenSession verifies a second Begin is rejected while
// a session is open and allowed again after Commit.
func TestBegin_OnlyOneOpenSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	led, _ := newLedger(t)

	_, err := led.Begin(ctx)
	require.Error(t, err)

	require.NoError(t, led.Commit(ctx))
	require.Empty(t, led.SessionID())

	_, err = led.Begin(ctx)
	require.NoError(t, err)
}

// TestRecord_WriteThenAct verifies the operation is persisted before the
// filesystem effect happens.
func TestRecord_WriteThenAct(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	led, root := newLedger(t)
	id := led.SessionID()

	target := filepath.Join(root, "out")
	require.NoError(t, led.MkdirAll(ctx, target))

	sess, err := led.Store().Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, sess.Operations, 1)
	require.Equal(t, domain.KindCreateDir, sess.Operations[0].Kind)
	require.Equal(t, target, sess.Operations[0].Path)
	require.DirExists(t, target)
}

// TestRollback_ReverseOrder records {create dir D, create file D/f} and
// asserts rollback removes f before D and that D no longer exists.
func TestRollback_ReverseOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	led, root := newLedger(t)
	id := led.SessionID()

	dir := filepath.Join(root, "out")
	file := filepath.Join(dir, "app.bin")

	require.NoError(t, led.MkdirAll(ctx, dir))
	require.NoError(t, led.WriteFile(ctx, file, []byte("binary"), 0o600))

	require.NoError(t, led.Rollback(ctx, id))
	require.NoFileExists(t, file)
	require.NoDirExists(t, dir)

	sess, err := led.Store().Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.StatusRolledBack, sess.Status)
}

// TestRollback_RestoresModifiedFile verifies an overwritten file gets its
// prior content back.
func TestRollback_RestoresModifiedFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	led, root := newLedger(t)
	id := led.SessionID()

	file := filepath.Join(root, "artifact.txt")
	require.NoError(t, os.WriteFile(file, []byte("old content"), 0o600))

	require.NoError(t, led.WriteFile(ctx, file, []byte("new content"), 0o600))

	require.NoError(t, led.Rollback(ctx, id))

	restored, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, "old content", string(restored))
}

// TestRollback_RestoresDeletedTree verifies a removed directory tree is
// restored from its snapshot.
func TestRollback_RestoresDeletedTree(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	led, root := newLedger(t)
	id := led.SessionID()

	dir := filepath.Join(root, "dist")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "keep.txt"), []byte("keep"), 0o600))

	require.NoError(t, led.Remove(ctx, dir))
	require.NoDirExists(t, dir)

	require.NoError(t, led.Rollback(ctx, id))

	restored, err := os.ReadFile(filepath.Join(dir, "nested", "keep.txt"))
	require.NoError(t, err)
	require.Equal(t, "keep", string(restored))
}

// TestRollback_InvertsMove verifies a rename is undone.
func TestRollback_InvertsMove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	led, root := newLedger(t)
	id := led.SessionID()

	src := filepath.Join(root, "a.txt")
	dst := filepath.Join(root, "b.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))

	require.NoError(t, led.Move(ctx, src, dst))
	require.NoFileExists(t, src)

	require.NoError(t, led.Rollback(ctx, id))
	require.FileExists(t, src)
	require.NoFileExists(t, dst)
}

// TestRollback_PartialFailure deletes a backup behind the ledger's back
// and expects a RollbackError listing the un-inverted operation while the
// other operations are still inverted.
func TestRollback_PartialFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	led, root := newLedger(t)
	id := led.SessionID()

	modified := filepath.Join(root, "modified.txt")
	created := filepath.Join(root, "created.txt")
	require.NoError(t, os.WriteFile(modified, []byte("before"), 0o600))

	require.NoError(t, led.WriteFile(ctx, modified, []byte("after"), 0o600))
	require.NoError(t, led.WriteFile(ctx, created, []byte("new"), 0o600))

	// Sabotage: remove the snapshot needed to restore the modified file.
	sess, err := led.Store().Load(ctx, id)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(sess.Operations[0].Backup))

	err = led.Rollback(ctx, id)

	var rbErr *RollbackError

	require.ErrorAs(t, err, &rbErr)
	require.Equal(t, id, rbErr.SessionID)
	require.Len(t, rbErr.Failed, 1)
	require.Equal(t, domain.KindModifyFile, rbErr.Failed[0].Kind)

	// The independent create was still inverted.
	require.NoFileExists(t, created)

	sess, err = led.Store().Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPartiallyRolledBack, sess.Status)
}

// TestRollback_AlreadyRolledBack rejects a second full rollback.
func TestRollback_AlreadyRolledBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	led, root := newLedger(t)
	id := led.SessionID()

	require.NoError(t, led.MkdirAll(ctx, filepath.Join(root, "out")))
	require.NoError(t, led.Rollback(ctx, id))
	require.Error(t, led.Rollback(ctx, id))
}

// TestMkdirAll_RecordsTopmostMissing ensures the whole created chain is
// removed by one inverse step.
func TestMkdirAll_RecordsTopmostMissing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	led, root := newLedger(t)
	id := led.SessionID()

	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, led.MkdirAll(ctx, deep))

	sess, err := led.Store().Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, sess.Operations, 1)
	require.Equal(t, filepath.Join(root, "a"), sess.Operations[0].Path)

	require.NoError(t, led.Rollback(ctx, id))
	require.NoDirExists(t, filepath.Join(root, "a"))
}

// TestMkdirAll_ExistingDirNotRecorded verifies no operation is recorded
// when the directory already exists.
func TestMkdirAll_ExistingDirNotRecorded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	led, root := newLedger(t)
	id := led.SessionID()

	require.NoError(t, led.MkdirAll(ctx, root))

	sess, err := led.Store().Load(ctx, id)
	require.NoError(t, err)
	require.Empty(t, sess.Operations)
}

// TestRecord_RequiresOpenSession verifies mutations outside a session fail.
func TestRecord_RequiresOpenSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	led := New(repo.NewStore(filepath.Join(t.TempDir(), "sessions")))

	err := led.MkdirAll(ctx, filepath.Join(t.TempDir(), "out"))
	require.ErrorIs(t, err, errNoOpenSession)
}
