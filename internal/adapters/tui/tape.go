package tui

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vito/progrock"
)

// TapeSource is a blocking source of progrock updates.
// Read returns io.EOF once the report is closed and drained.
type TapeSource interface {
	Read() (*progrock.StatusUpdate, error)
}

// MsgTapeUpdate wraps the raw update from progrock.
type MsgTapeUpdate struct {
	Update *progrock.StatusUpdate
}

// MsgTapeEnded is sent when the tape stream has ended.
type MsgTapeEnded struct {
	Err error
}

// MsgStopping is sent when the build is being cancelled.
type MsgStopping struct{}

// WaitForTape returns a Bubble Tea command that reads the next update from the tape.
func WaitForTape(tape TapeSource) tea.Cmd {
	return func() tea.Msg {
		update, err := tape.Read()
		if errors.Is(err, io.EOF) {
			return MsgTapeEnded{}
		}
		if err != nil {
			return MsgTapeEnded{Err: err}
		}
		return MsgTapeUpdate{Update: update}
	}
}
