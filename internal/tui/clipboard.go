package tui

import (
	"errors"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

type copyResultMsg struct {
	err error
}

// copyText copies text to the system clipboard.
func copyText(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard command available")
	}
	return clipboard.WriteAll(text)
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text)}
	}
}
