package highlight

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		spans   []Span
		rowLen  int
		wantErr bool
	}{
		{"empty", nil, 0, false},
		{"adjacent", []Span{{StyleKeyword, 0, 3}, {StyleNumber, 3, 2}}, 5, false},
		{"gap", []Span{{StyleKeyword, 0, 3}, {StyleComment, 6, 4}}, 10, false},
		{"past end", []Span{{StyleComment, 2, 9}}, 10, true},
		{"overlap", []Span{{StyleString, 0, 4}, {StyleChar, 3, 1}}, 10, true},
		{"unsorted", []Span{{StyleString, 5, 1}, {StyleChar, 0, 1}}, 10, true},
		{"negative", []Span{{StyleString, -1, 1}}, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.spans, tt.rowLen)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSpan_String(t *testing.T) {
	s := Span{Style: StyleStatementEnd, Offset: 10, Length: 1}
	require.Equal(t, "{statement_end 10 1}", s.String())
	require.Equal(t, 11, s.End())
}

func TestNoOp(t *testing.T) {
	c := NoOp("cobol")
	require.Equal(t, "cobol", c.Name())
	require.Nil(t, c.Apply(0, "anything at all"))
	require.False(t, c.Snapshot().Open())
	c.Restore(nil)
	require.Equal(t, Closed, c.Snapshot())
}

func TestStyles_Distinct(t *testing.T) {
	seen := map[Style]bool{}
	for _, s := range Styles() {
		require.False(t, seen[s], s)
		seen[s] = true
	}
	require.Contains(t, seen, StyleKeyword)
	require.Contains(t, seen, StyleFence)
}
