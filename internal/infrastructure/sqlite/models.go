package sqlite

import (
	"errors"
	"time"
)

// ErrNoCheckpoints is returned by Load when nothing is stored for the path
// or the stored content hash differs.
var ErrNoCheckpoints = errors.New("no checkpoints for content")

// CheckpointSet is the saved checkpoint rows of one file at one content hash.
type CheckpointSet struct {
	Path      string
	Hash      string
	Language  string
	Rows      []int
	UpdatedAt time.Time
}

// documentModel is a row of the documents table.
type documentModel struct {
	ID        int64
	Path      string
	Hash      string
	Language  string
	UpdatedAt int64 // Unix timestamp
}

func (m *documentModel) toSet(rows []int) *CheckpointSet {
	return &CheckpointSet{
		Path:      m.Path,
		Hash:      m.Hash,
		Language:  m.Language,
		Rows:      rows,
		UpdatedAt: time.Unix(m.UpdatedAt, 0),
	}
}
