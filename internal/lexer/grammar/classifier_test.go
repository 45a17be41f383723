package grammar

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/rowlight/internal/highlight"
	"github.com/zjrosen/rowlight/internal/lexer/block"
	"github.com/zjrosen/rowlight/internal/lexer/trie"
)

func cLike() *Descriptor {
	return &Descriptor{
		Name:         "c",
		Keywords:     trie.FromList("int, char, return, if, else, while"),
		Escape:       '\\',
		CharDelim:    '\'',
		StringDelim:  '"',
		LineComment:  "//",
		BlockComment: block.NewRange("block_comment", "/*", "*/", highlight.StyleBlockComment),
		StatementEnd: ';',
	}
}

func kotlinLike() *Descriptor {
	return &Descriptor{
		Name:         "kotlin",
		Keywords:     trie.FromList("as, as?, in, !in, is, !is, val, var, fun"),
		Escape:       '\\',
		CharDelim:    '\'',
		StringDelim:  '"',
		TextBlock:    block.NewNeutral("text_block", `"""`, highlight.StyleTextBlock),
		LineComment:  "//",
		BlockComment: block.NewRange("block_comment", "/*", "*/", highlight.StyleBlockComment),
		StatementEnd: ';',
	}
}

func span(style highlight.Style, off, n int) highlight.Span {
	return highlight.Span{Style: style, Offset: off, Length: n}
}

func TestApply_StatementWithTrailingComment(t *testing.T) {
	c := New(cLike())
	got := c.Apply(0, "int x = 10; // comment")
	require.Equal(t, []highlight.Span{
		span(highlight.StyleKeyword, 0, 3),
		span(highlight.StyleNumber, 8, 2),
		span(highlight.StyleStatementEnd, 10, 1),
		span(highlight.StyleComment, 12, 10),
	}, got)
	require.False(t, c.Open())
}

// TestApply_Priority verifies that the earliest construct at a position wins,
// so comment openers inside strings and quotes inside comments stay inert.
func TestApply_Priority(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want []highlight.Span
	}{
		{
			name: "quote inside line comment",
			row:  `// say "hi"`,
			want: []highlight.Span{span(highlight.StyleComment, 0, 11)},
		},
		{
			name: "comment marker inside string",
			row:  `"a // b"`,
			want: []highlight.Span{span(highlight.StyleString, 0, 8)},
		},
		{
			name: "block opener inside string",
			row:  `"/*";`,
			want: []highlight.Span{span(highlight.StyleString, 0, 4), span(highlight.StyleStatementEnd, 4, 1)},
		},
		{
			name: "escaped quote",
			row:  `"a\"b";`,
			want: []highlight.Span{span(highlight.StyleString, 0, 6), span(highlight.StyleStatementEnd, 6, 1)},
		},
		{
			name: "unterminated string ends at row end",
			row:  `"abc`,
			want: []highlight.Span{span(highlight.StyleString, 0, 4)},
		},
		{
			name: "trailing escape",
			row:  `"ab\`,
			want: []highlight.Span{span(highlight.StyleString, 0, 4)},
		},
		{
			name: "char literal",
			row:  `char c = 'x';`,
			want: []highlight.Span{
				span(highlight.StyleKeyword, 0, 4),
				span(highlight.StyleChar, 9, 3),
				span(highlight.StyleStatementEnd, 12, 1),
			},
		},
		{
			name: "keyword prefix of identifier",
			row:  "integer iffy",
			want: nil,
		},
		{
			name: "digits inside identifier",
			row:  "x1 = 2",
			want: []highlight.Span{span(highlight.StyleNumber, 5, 1)},
		},
		{
			name: "block comment mid row",
			row:  "a /* b */ return",
			want: []highlight.Span{span(highlight.StyleBlockComment, 2, 7), span(highlight.StyleKeyword, 10, 6)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(cLike()).Apply(0, tt.row)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestApply_NonLatinText(t *testing.T) {
	c := New(cLike())
	// offsets count code points, not bytes
	got := c.Apply(0, `"héllo wörld"; int`)
	require.Equal(t, []highlight.Span{
		span(highlight.StyleString, 0, 13),
		span(highlight.StyleStatementEnd, 13, 1),
		span(highlight.StyleKeyword, 15, 3),
	}, got)
}

// TestApply_OperatorKeywords verifies keywords that extend past an identifier
// (as?) or start with punctuation (!in).
func TestApply_OperatorKeywords(t *testing.T) {
	tests := []struct {
		row  string
		want []highlight.Span
	}{
		{"val y = x as? Int", []highlight.Span{span(highlight.StyleKeyword, 0, 3), span(highlight.StyleKeyword, 10, 3)}},
		{"x as y", []highlight.Span{span(highlight.StyleKeyword, 2, 2)}},
		{"a !in b", []highlight.Span{span(highlight.StyleKeyword, 2, 3)}},
		{"x!is", []highlight.Span{span(highlight.StyleKeyword, 1, 3)}},
		{"a !inside", nil},
		{"a != b", nil},
	}

	for _, tt := range tests {
		t.Run(tt.row, func(t *testing.T) {
			got := New(kotlinLike()).Apply(0, tt.row)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestApply_TextBlockAcrossRows(t *testing.T) {
	c := New(kotlinLike())

	require.Equal(t, []highlight.Span{
		span(highlight.StyleKeyword, 0, 3),
		span(highlight.StyleTextBlock, 8, 3),
	}, c.Apply(0, `val s = """`))
	require.True(t, c.Open())

	require.Equal(t, []highlight.Span{span(highlight.StyleTextBlock, 0, 14)}, c.Apply(1, `hello "quoted"`))

	require.Equal(t, []highlight.Span{
		span(highlight.StyleTextBlock, 0, 3),
		span(highlight.StyleStatementEnd, 3, 1),
		span(highlight.StyleKeyword, 5, 3),
	}, c.Apply(2, `"""; val t`))
	require.False(t, c.Open())
}

func TestApply_BlockCommentAcrossRows(t *testing.T) {
	c := New(cLike())
	rows := []string{"int a; /* start", "int b; \"no string\"", "end */ return;"}

	require.Equal(t, []highlight.Span{
		span(highlight.StyleKeyword, 0, 3),
		span(highlight.StyleStatementEnd, 5, 1),
		span(highlight.StyleBlockComment, 7, 8),
	}, c.Apply(0, rows[0]))
	require.Equal(t, []highlight.Span{span(highlight.StyleBlockComment, 0, 18)}, c.Apply(1, rows[1]))
	require.Equal(t, []highlight.Span{
		span(highlight.StyleBlockComment, 0, 6),
		span(highlight.StyleKeyword, 7, 6),
		span(highlight.StyleStatementEnd, 13, 1),
	}, c.Apply(2, rows[2]))
}

// TestSnapshotRestore_ReplaysSameRow verifies that restoring a snapshot and
// re-applying a row reproduces the original spans.
func TestSnapshotRestore_ReplaysSameRow(t *testing.T) {
	c := New(kotlinLike())
	c.Apply(0, `val s = """`)
	saved := c.Snapshot()
	require.True(t, saved.Open())

	first := c.Apply(1, `"""; fun`)
	require.False(t, c.Open())

	c.Restore(saved)
	require.True(t, c.Open())
	require.Equal(t, first, c.Apply(1, `"""; fun`))

	c.Restore(nil)
	require.False(t, c.Open())
	c.Restore(highlight.Closed)
	require.False(t, c.Open())
}

func TestDescriptor_Validate(t *testing.T) {
	require.NoError(t, cLike().Validate())
	require.Error(t, (&Descriptor{}).Validate())
	require.Error(t, (&Descriptor{Name: "x", StringDelim: '"', CharDelim: '"'}).Validate())

	bad := cLike()
	bad.Blocks = []*block.Type{{Name: "broken"}}
	require.Error(t, bad.Validate())
}

func TestDescriptor_BlockTypesOrder(t *testing.T) {
	d := kotlinLike()
	extra := block.NewNeutral("raw", "`", highlight.StyleTextBlock)
	d.Blocks = []*block.Type{extra}
	require.Equal(t, []*block.Type{d.BlockComment, d.TextBlock, extra}, d.BlockTypes())
	require.Equal(t, []string{"kotlin"}, d.Names())
}

func TestApply_SpansAlwaysValid(t *testing.T) {
	alphabet := []rune(`ab iasv?!n09._"'\/*;` + "`é\t")
	rapid.Check(t, func(t *rapid.T) {
		c := New(kotlinLike())
		rows := rapid.SliceOfN(
			rapid.StringOf(rapid.SampledFrom(alphabet)),
			1, 12,
		).Draw(t, "rows")

		for i, row := range rows {
			spans := c.Apply(i, row)
			if err := highlight.Validate(spans, utf8.RuneCountInString(row)); err != nil {
				t.Fatalf("row %d %q: %v", i, row, err)
			}
			for _, s := range spans {
				if s.Length == 0 {
					t.Fatalf("row %d %q: empty span %v", i, row, s)
				}
			}
		}
	})
}

func TestApply_ReplayFromSnapshotIsDeterministic(t *testing.T) {
	alphabet := []rune(`ab"/*; ` + "`")
	rapid.Check(t, func(t *rapid.T) {
		rows := rapid.SliceOfN(rapid.StringOf(rapid.SampledFrom(alphabet)), 2, 10).Draw(t, "rows")
		at := rapid.IntRange(1, len(rows)-1).Draw(t, "at")

		c := New(kotlinLike())
		var want [][]highlight.Span
		var saved highlight.Resume
		for i, row := range rows {
			if i == at {
				saved = c.Snapshot()
			}
			want = append(want, c.Apply(i, row))
		}

		c.Restore(saved)
		for i := at; i < len(rows); i++ {
			require.Equal(t, want[i], c.Apply(i, rows[i]), "row %d", i)
		}
	})
}
