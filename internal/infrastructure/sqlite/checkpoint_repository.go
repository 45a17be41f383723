package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/zjrosen/rowlight/internal/log"
)

// CheckpointRepository stores one CheckpointSet per file path.
type CheckpointRepository struct {
	db  *sql.DB
	now func() time.Time
}

func newCheckpointRepository(db *sql.DB) *CheckpointRepository {
	return &CheckpointRepository{db: db, now: time.Now}
}

// Save replaces whatever is stored for path.
func (r *CheckpointRepository) Save(path, hash, language string, rows []int) error {
	path = clean(path)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin checkpoint save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Cascades to checkpoint_rows.
	if _, err := tx.Exec(`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO documents (path, hash, language, updated_at) VALUES (?, ?, ?, ?)`,
		path, hash, language, r.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO checkpoint_rows (document_id, row) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare checkpoint insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for _, row := range rows {
		if _, err := stmt.Exec(id, row); err != nil {
			return fmt.Errorf("failed to insert checkpoint %d: %w", row, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkpoints: %w", err)
	}
	log.Debug(log.CatDB, "Saved checkpoints", "path", path, "count", len(rows))
	return nil
}

// Load returns the checkpoints saved for path if they were recorded for
// content with the given hash. Otherwise it returns ErrNoCheckpoints.
func (r *CheckpointRepository) Load(path, hash string) (*CheckpointSet, error) {
	path = clean(path)

	var m documentModel
	err := r.db.QueryRow(
		`SELECT id, path, hash, language, updated_at FROM documents WHERE path = ?`, path,
	).Scan(&m.ID, &m.Path, &m.Hash, &m.Language, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoCheckpoints
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	if m.Hash != hash {
		log.Debug(log.CatDB, "Stale checkpoints", "path", path)
		return nil, ErrNoCheckpoints
	}

	rows, err := r.db.Query(`SELECT row FROM checkpoint_rows WHERE document_id = ? ORDER BY row`, m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkpoints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []int
	for rows.Next() {
		var row int
		if err := rows.Scan(&row); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checkpoints: %w", err)
	}
	return m.toSet(out), nil
}

// Prune deletes what is stored for path. It reports whether anything was
// deleted.
func (r *CheckpointRepository) Prune(path string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM documents WHERE path = ?`, clean(path))
	if err != nil {
		return false, fmt.Errorf("failed to prune checkpoints: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count pruned rows: %w", err)
	}
	return n > 0, nil
}

// PruneOlderThan deletes every entry not saved within age and returns how
// many were removed.
func (r *CheckpointRepository) PruneOlderThan(age time.Duration) (int64, error) {
	cutoff := r.now().Add(-age).Unix()
	result, err := r.db.Exec(`DELETE FROM documents WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune old checkpoints: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}
	if n > 0 {
		log.Info(log.CatDB, "Pruned old checkpoints", "count", n)
	}
	return n, nil
}

func clean(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
