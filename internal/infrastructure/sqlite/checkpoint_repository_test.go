package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCheckpoints_SaveLoad(t *testing.T) {
	repo := openTestDB(t).Checkpoints()

	require.NoError(t, repo.Save("/src/main.go", "hash-1", "go", []int{0, 16, 48, 32, 16}))

	set, err := repo.Load("/src/main.go", "hash-1")
	require.NoError(t, err)
	require.Equal(t, "/src/main.go", set.Path)
	require.Equal(t, "hash-1", set.Hash)
	require.Equal(t, "go", set.Language)
	require.Equal(t, []int{0, 16, 32, 48}, set.Rows, "sorted and deduplicated")
	require.WithinDuration(t, time.Now(), set.UpdatedAt, time.Minute)
}

func TestCheckpoints_LoadStaleOrMissing(t *testing.T) {
	repo := openTestDB(t).Checkpoints()

	_, err := repo.Load("/nope.c", "x")
	require.ErrorIs(t, err, ErrNoCheckpoints)

	require.NoError(t, repo.Save("/a.c", "old", "c", []int{0, 16}))
	_, err = repo.Load("/a.c", "new")
	require.ErrorIs(t, err, ErrNoCheckpoints, "content changed since save")
}

func TestCheckpoints_SaveReplaces(t *testing.T) {
	db := openTestDB(t)
	repo := db.Checkpoints()

	require.NoError(t, repo.Save("/a.rs", "h1", "rust", []int{0, 16, 32}))
	require.NoError(t, repo.Save("/a.rs", "h2", "rust", []int{0, 20}))

	_, err := repo.Load("/a.rs", "h1")
	require.ErrorIs(t, err, ErrNoCheckpoints)

	set, err := repo.Load("/a.rs", "h2")
	require.NoError(t, err)
	require.Equal(t, []int{0, 20}, set.Rows)

	var orphans int
	require.NoError(t, db.conn.QueryRow(
		"SELECT COUNT(*) FROM checkpoint_rows WHERE document_id NOT IN (SELECT id FROM documents)",
	).Scan(&orphans))
	require.Zero(t, orphans, "replaced rows are cascaded away")
}

func TestCheckpoints_RelativePathsAreResolved(t *testing.T) {
	repo := openTestDB(t).Checkpoints()

	require.NoError(t, repo.Save("notes.md", "h", "markdown", []int{0}))
	abs, err := filepath.Abs("notes.md")
	require.NoError(t, err)

	set, err := repo.Load(abs, "h")
	require.NoError(t, err)
	require.Equal(t, abs, set.Path)
}

func TestCheckpoints_Prune(t *testing.T) {
	repo := openTestDB(t).Checkpoints()
	require.NoError(t, repo.Save("/a.py", "h", "python", []int{0}))

	deleted, err := repo.Prune("/a.py")
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = repo.Prune("/a.py")
	require.NoError(t, err)
	require.False(t, deleted)

	_, err = repo.Load("/a.py", "h")
	require.ErrorIs(t, err, ErrNoCheckpoints)
}

func TestCheckpoints_PruneOlderThan(t *testing.T) {
	repo := openTestDB(t).Checkpoints()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	repo.now = func() time.Time { return base }
	require.NoError(t, repo.Save("/old.go", "h", "go", []int{0}))
	repo.now = func() time.Time { return base.Add(48 * time.Hour) }
	require.NoError(t, repo.Save("/new.go", "h", "go", []int{0}))

	n, err := repo.PruneOlderThan(24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = repo.Load("/old.go", "h")
	require.ErrorIs(t, err, ErrNoCheckpoints)
	_, err = repo.Load("/new.go", "h")
	require.NoError(t, err)
}
