package detector

import (
	"io"

	"go.trai.ch/smake/internal/adapters/linear"
	telemetry "go.trai.ch/smake/internal/adapters/telemetry/progrock"
	"go.trai.ch/smake/internal/adapters/tui"
	"go.trai.ch/smake/internal/core/domain"
	"go.trai.ch/smake/internal/core/ports"
	"go.trai.ch/zerr"
)

// Display implements ports.Display. Every Open creates a fresh progrock stream
// shared by the returned reporter and renderer.
type Display struct {
	stdout io.Writer
	stderr io.Writer
	detect func() OutputMode
	logs   tui.LogSink
}

var _ ports.Display = (*Display)(nil)

// NewDisplay creates a Display drawing to stdout and stderr.
func NewDisplay(stdout, stderr io.Writer) *Display {
	return &Display{
		stdout: stdout,
		stderr: stderr,
		detect: DetectEnvironment,
	}
}

// WithLogSink makes the live display hold back records written to logs until
// it has finished drawing.
func (d *Display) WithLogSink(logs tui.LogSink) *Display {
	d.logs = logs
	return d
}

// Open creates a reporter and the renderer selected by mode.
func (d *Display) Open(mode string) (ports.Reporter, ports.Renderer, error) {
	if !KnownMode(mode) {
		return nil, nil, zerr.With(domain.ErrInvalidOutputMode, "mode", mode)
	}

	stream := telemetry.NewStream()
	reporter := telemetry.NewReporter(stream)

	if ResolveMode(d.detect(), mode) == ModeTUI {
		renderer := tui.NewRenderer(stream, d.stdout)
		if d.logs != nil {
			renderer.WithLogSink(d.logs, d.stderr)
		}
		return reporter, renderer, nil
	}
	return reporter, linear.NewRenderer(stream, d.stdout, d.stderr), nil
}
