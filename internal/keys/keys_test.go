package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/require"
)

func TestViewer_KeyAssignments(t *testing.T) {
	tests := []struct {
		name     string
		binding  key.Binding
		expected []string
	}{
		{"Up uses k and up", Viewer.Up, []string{"k", "up"}},
		{"Down uses j and down", Viewer.Down, []string{"j", "down"}},
		{"PageUp", Viewer.PageUp, []string{"pgup", "b"}},
		{"PageDown", Viewer.PageDown, []string{"pgdown", "f", " "}},
		{"Top uses g", Viewer.Top, []string{"g", "home"}},
		{"Bottom uses G", Viewer.Bottom, []string{"G", "end"}},
		{"Quit", Viewer.Quit, []string{"q", "ctrl+c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.binding.Keys())
		})
	}
}

func TestViewer_NoDuplicateKeys(t *testing.T) {
	seen := map[string]string{}
	for _, group := range Viewer.FullHelp() {
		for _, b := range group {
			for _, k := range b.Keys() {
				prev, dup := seen[k]
				require.False(t, dup, "key %q bound to both %q and %q", k, prev, b.Help().Desc)
				seen[k] = b.Help().Desc
			}
		}
	}
}

func TestViewer_HelpText(t *testing.T) {
	for _, b := range Viewer.ShortHelp() {
		require.NotEmpty(t, b.Help().Key)
		require.NotEmpty(t, b.Help().Desc)
	}
	require.Len(t, Viewer.FullHelp(), 3)
}
