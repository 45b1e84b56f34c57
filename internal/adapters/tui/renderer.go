package tui

import (
	"bytes"
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/smake/internal/core/ports"
	"go.trai.ch/zerr"
)

// LogSink is a logger whose destination can be swapped while the display runs.
type LogSink interface {
	SetOutput(w io.Writer)
}

// Renderer draws a progrock report as a live display until the report ends.
type Renderer struct {
	tape TapeSource
	out  io.Writer

	logs    LogSink
	logsOut io.Writer
}

var _ ports.Renderer = (*Renderer)(nil)

// NewRenderer creates a Renderer reading from tape and drawing to out.
func NewRenderer(tape TapeSource, out io.Writer) *Renderer {
	return &Renderer{tape: tape, out: out}
}

// WithLogSink holds back records written to logs while the display runs and
// replays them to restore once it has finished.
func (r *Renderer) WithLogSink(logs LogSink, restore io.Writer) *Renderer {
	r.logs = logs
	r.logsOut = restore
	return r
}

// Run draws until the tape ends. Cancelling ctx does not stop the display;
// it shows that the build is stopping and keeps drawing until the report is closed.
// Keyboard input is not captured, so an interrupt reaches the process as a signal.
func (r *Renderer) Run(ctx context.Context) error {
	model := NewModel(r.tape)
	p := tea.NewProgram(model,
		tea.WithOutput(r.out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)

	stop := context.AfterFunc(ctx, func() { p.Send(MsgStopping{}) })
	defer stop()

	if r.logs != nil {
		var held bytes.Buffer
		r.logs.SetOutput(&held)
		defer func() {
			r.logs.SetOutput(r.logsOut)
			_, _ = r.logsOut.Write(held.Bytes())
		}()
	}

	if _, err := p.Run(); err != nil {
		return zerr.Wrap(err, "tui renderer failed")
	}
	if model.err != nil {
		return zerr.Wrap(model.err, "reading progress stream")
	}
	return nil
}
