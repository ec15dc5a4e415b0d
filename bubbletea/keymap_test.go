package bubbletea_test

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/codereview/bubbletea"
	"github.com/stretchr/testify/assert"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDefaultAnalyzeKeyMap(t *testing.T) {
	t.Parallel()

	km := bubbletea.DefaultAnalyzeKeyMap()

	tests := []struct {
		name    string
		msg     tea.KeyMsg
		binding key.Binding
	}{
		{"ctrl+s submits", tea.KeyMsg{Type: tea.KeyCtrlS}, km.Submit},
		{"ctrl+l cycles language", tea.KeyMsg{Type: tea.KeyCtrlL}, km.Language},
		{"tab switches focus", tea.KeyMsg{Type: tea.KeyTab}, km.Focus},
		{"k scrolls up", runes("k"), km.Up},
		{"arrow up scrolls up", tea.KeyMsg{Type: tea.KeyUp}, km.Up},
		{"j scrolls down", runes("j"), km.Down},
		{"y copies", runes("y"), km.Copy},
		{"d toggles diff", runes("d"), km.ToggleDiff},
		{"esc goes back", tea.KeyMsg{Type: tea.KeyEsc}, km.Back},
		{"q quits", runes("q"), km.Quit},
		{"ctrl+c force quits", tea.KeyMsg{Type: tea.KeyCtrlC}, km.ForceQuit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, key.Matches(tt.msg, tt.binding))
			assert.NotEmpty(t, tt.binding.Help().Key)
			assert.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestDefaultHistoryKeyMap(t *testing.T) {
	t.Parallel()

	km := bubbletea.DefaultHistoryKeyMap()

	tests := []struct {
		name    string
		msg     tea.KeyMsg
		binding key.Binding
	}{
		{"k moves up", runes("k"), km.Up},
		{"j moves down", runes("j"), km.Down},
		{"slash searches", runes("/"), km.Search},
		{"enter opens", tea.KeyMsg{Type: tea.KeyEnter}, km.Open},
		{"esc goes back", tea.KeyMsg{Type: tea.KeyEsc}, km.Back},
		{"1 shows summary", runes("1"), km.Summary},
		{"2 shows original", runes("2"), km.Original},
		{"3 shows optimized", runes("3"), km.Optimized},
		{"tab cycles tabs", tea.KeyMsg{Type: tea.KeyTab}, km.NextTab},
		{"d deletes", runes("d"), km.Delete},
		{"y confirms", runes("y"), km.Confirm},
		{"r refreshes", runes("r"), km.Refresh},
		{"q quits", runes("q"), km.Quit},
		{"ctrl+c quits", tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, key.Matches(tt.msg, tt.binding))
			assert.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}
