// Package linear provides a line-oriented renderer for CI and non-interactive output.
package linear

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/muesli/termenv"
	"github.com/vito/progrock"
	telemetry "go.trai.ch/smake/internal/adapters/telemetry/progrock"
	"go.trai.ch/smake/internal/core/domain"
	"go.trai.ch/smake/internal/core/ports"
	"go.trai.ch/zerr"
)

// TapeSource is a blocking source of progrock updates.
type TapeSource interface {
	Read() (*progrock.StatusUpdate, error)
}

// Renderer prints one line per unit transition to stderr and the recipe output,
// prefixed with the target name, to stdout.
type Renderer struct {
	tape   TapeSource
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	board   *telemetry.Board
	names   map[string]string
	buffers map[string]*bytes.Buffer
}

var _ ports.Renderer = (*Renderer)(nil)

// NewRenderer creates a Renderer reading from tape.
func NewRenderer(tape TapeSource, stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		tape:    tape,
		stdout:  stdout,
		stderr:  stderr,
		output:  termenv.NewOutput(stderr, termenv.WithProfile(colorProfile())),
		board:   telemetry.NewBoard(),
		names:   make(map[string]string),
		buffers: make(map[string]*bytes.Buffer),
	}
}

// colorProfile returns the color profile based on environment.
func colorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	// Use ANSI for basic color support in CI
	return termenv.ANSI
}

// Run prints updates until the tape ends. The tape, not ctx, bounds the run so
// that the transitions of a cancelled build are still printed.
func (r *Renderer) Run(_ context.Context) error {
	for {
		update, err := r.tape.Read()
		if errors.Is(err, io.EOF) {
			r.flushAll()
			return nil
		}
		if err != nil {
			r.flushAll()
			return zerr.Wrap(err, "reading progress stream")
		}
		r.apply(update)
	}
}

func (r *Renderer) apply(update *progrock.StatusUpdate) {
	for _, l := range update.Logs {
		r.log(l.Vertex, l.Data)
	}
	for _, u := range r.board.Apply(update) {
		r.names[u.ID] = u.Target()
		r.transition(u)
	}
}

func (r *Renderer) transition(u *telemetry.Unit) {
	prefix := fmt.Sprintf("[%s]", u.Target())

	switch u.Status {
	case domain.UnitStatusQueued:
		_, _ = fmt.Fprintf(r.stderr, "%s %s\n", prefix, r.output.String("Queued").Faint())
	case domain.UnitStatusRunning:
		_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", prefix)
	case domain.UnitStatusCompleted:
		r.flush(u.ID)
		symbol := r.output.String("✓").Foreground(termenv.ANSIGreen)
		_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", prefix, symbol, elapsed(u))
	case domain.UnitStatusFailed:
		r.flush(u.ID)
		symbol := r.output.String("✗").Foreground(termenv.ANSIRed)
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %s\n", prefix, symbol, elapsed(u), u.Err)
	case domain.UnitStatusSkipped:
		symbol := r.output.String("↷").Faint()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Skipped: %s\n", prefix, symbol, skipReason(u))
	}
}

func skipReason(u *telemetry.Unit) string {
	if u.Err == domain.ErrDependencyFailed.Error() {
		return "a dependency failed"
	}
	return "build stopped"
}

func elapsed(u *telemetry.Unit) time.Duration {
	return u.Elapsed(u.Completed).Round(time.Millisecond)
}

// log buffers data and prints complete lines with the target prefix.
func (r *Renderer) log(id string, data []byte) {
	buf, ok := r.buffers[id]
	if !ok {
		buf = new(bytes.Buffer)
		r.buffers[id] = buf
	}
	buf.Write(data)

	for {
		i := bytes.IndexByte(buf.Bytes(), '\n')
		if i < 0 {
			return
		}
		line := buf.Next(i + 1)
		r.printLine(id, line)
	}
}

// flush prints any partial line left in the buffer of id.
func (r *Renderer) flush(id string) {
	buf, ok := r.buffers[id]
	if !ok {
		return
	}
	if buf.Len() > 0 {
		r.printLine(id, buf.Bytes())
	}
	delete(r.buffers, id)
}

func (r *Renderer) flushAll() {
	for id := range r.buffers {
		r.flush(id)
	}
}

func (r *Renderer) printLine(id string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}

	name, ok := r.names[id]
	if !ok {
		name = id
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", name, line)
}
