package document

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// FirstChangedRow returns the first row that differs between two versions of
// a text, or -1 if they are identical.
func FirstChangedRow(before, after string) int {
	if before == after {
		return -1
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	row := 0
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffEqual {
			return row
		}
		row += strings.Count(d.Text, "\n")
	}
	return row
}
