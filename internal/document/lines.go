// Package document connects a row provider to a classifier: it serves
// highlighted rows in any order by replaying from checkpoints, and keeps the
// minimal editable text model the CLI and pager need.
package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/zjrosen/rowlight/internal/pubsub"
)

// ErrRowOutOfRange is returned by edits addressing a row that does not exist.
var ErrRowOutOfRange = errors.New("row out of range")

// Provider supplies row text by index.
type Provider interface {
	Rows() int
	Text(row int) string
}

// Edit is published after every change to a Lines.
type Edit struct {
	// FirstRow is the first row whose content may differ.
	FirstRow int
	// Count is the number of rows inserted, deleted or replaced.
	Count int
}

// Lines is an in-memory Provider split on '\n'. A trailing '\r' is dropped
// from each row.
type Lines struct {
	mu     sync.RWMutex
	rows   []string
	broker *pubsub.Broker[Edit]
}

var _ Provider = (*Lines)(nil)

// NewLines splits text into rows.
func NewLines(text string) *Lines {
	return &Lines{
		rows:   SplitRows(text),
		broker: pubsub.NewBroker[Edit](),
	}
}

// ReadFile loads a file into Lines.
func ReadFile(path string) (*Lines, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the file the user asked to highlight
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return NewLines(string(data)), nil
}

// SplitRows splits text into rows. Empty text is one empty row.
func SplitRows(text string) []string {
	rows := strings.Split(text, "\n")
	for i, r := range rows {
		rows[i] = strings.TrimSuffix(r, "\r")
	}
	return rows
}

// Hash returns the hex SHA-256 of text, used to key persisted checkpoints.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Rows implements Provider.
func (l *Lines) Rows() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rows)
}

// Text implements Provider. Rows outside the document are empty.
func (l *Lines) Text(row int) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if row < 0 || row >= len(l.rows) {
		return ""
	}
	return l.rows[row]
}

// String returns the rows joined with '\n'.
func (l *Lines) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return strings.Join(l.rows, "\n")
}

// Subscribe returns a channel of edits that closes when ctx is done.
func (l *Lines) Subscribe(ctx context.Context) <-chan pubsub.Event[Edit] {
	return l.broker.Subscribe(ctx)
}

// Broker exposes the edit broker, e.g. for a pubsub.ContinuousListener.
func (l *Lines) Broker() *pubsub.Broker[Edit] {
	return l.broker
}

// Close ends all subscriptions.
func (l *Lines) Close() {
	l.broker.Close()
}

// Insert inserts text before row. row may equal Rows() to append. Text
// containing newlines inserts several rows.
func (l *Lines) Insert(row int, text string) error {
	l.mu.Lock()
	if row < 0 || row > len(l.rows) {
		n := len(l.rows)
		l.mu.Unlock()
		return fmt.Errorf("%w: insert at %d of %d", ErrRowOutOfRange, row, n)
	}
	added := SplitRows(text)
	l.rows = slices.Insert(l.rows, row, added...)
	l.mu.Unlock()

	l.broker.Publish(pubsub.InsertedEvent, Edit{FirstRow: row, Count: len(added)})
	return nil
}

// Delete removes n rows starting at row. Deleting every row leaves one empty
// row.
func (l *Lines) Delete(row, n int) error {
	l.mu.Lock()
	if row < 0 || n < 0 || row+n > len(l.rows) {
		total := len(l.rows)
		l.mu.Unlock()
		return fmt.Errorf("%w: delete %d rows at %d of %d", ErrRowOutOfRange, n, row, total)
	}
	l.rows = slices.Delete(l.rows, row, row+n)
	if len(l.rows) == 0 {
		l.rows = []string{""}
	}
	l.mu.Unlock()

	l.broker.Publish(pubsub.DeletedEvent, Edit{FirstRow: row, Count: n})
	return nil
}

// Replace swaps the content of row for text, which may span several rows.
func (l *Lines) Replace(row int, text string) error {
	l.mu.Lock()
	if row < 0 || row >= len(l.rows) {
		n := len(l.rows)
		l.mu.Unlock()
		return fmt.Errorf("%w: replace %d of %d", ErrRowOutOfRange, row, n)
	}
	repl := SplitRows(text)
	l.rows = slices.Replace(l.rows, row, row+1, repl...)
	l.mu.Unlock()

	l.broker.Publish(pubsub.UpdatedEvent, Edit{FirstRow: row, Count: len(repl)})
	return nil
}

// Reload replaces the whole text and returns the first changed row, or -1
// when nothing changed.
func (l *Lines) Reload(text string) int {
	first := FirstChangedRow(l.String(), text)
	if first < 0 {
		return -1
	}

	rows := SplitRows(text)
	l.mu.Lock()
	l.rows = rows
	l.mu.Unlock()

	l.broker.Publish(pubsub.ReloadedEvent, Edit{FirstRow: first, Count: len(rows) - first})
	return first
}
