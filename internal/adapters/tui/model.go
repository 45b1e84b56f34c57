// Package tui renders build progress as a live terminal display.
package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vito/progrock"
	telemetry "go.trai.ch/smake/internal/adapters/telemetry/progrock"
)

// logTailLimit is the number of recent output lines kept per unit.
const logTailLimit = 5

type logTail struct {
	lines   []string
	partial string
}

func (t *logTail) write(data []byte) {
	text := t.partial + string(data)
	parts := strings.Split(text, "\n")
	t.partial = parts[len(parts)-1]
	for _, line := range parts[:len(parts)-1] {
		t.push(line)
	}
}

func (t *logTail) push(line string) {
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > logTailLimit {
		t.lines = t.lines[len(t.lines)-logTailLimit:]
	}
}

func (t *logTail) tail() []string {
	if t.partial == "" {
		return t.lines
	}
	lines := append([]string(nil), t.lines...)
	lines = append(lines, strings.TrimRight(t.partial, "\r"))
	if len(lines) > logTailLimit {
		lines = lines[len(lines)-logTailLimit:]
	}
	return lines
}

// Model is the Bubble Tea model of the live display.
type Model struct {
	tape     TapeSource
	board    *telemetry.Board
	logs     map[string]*logTail
	spinner  spinner.Model
	width    int
	height   int
	now      func() time.Time
	stopping bool
	err      error
}

// NewModel creates a new TUI model reading from tape.
func NewModel(tape TapeSource) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runningStyle

	return &Model{
		tape:    tape,
		board:   telemetry.NewBoard(),
		logs:    make(map[string]*logTail),
		spinner: s,
		now:     time.Now,
	}
}

// Init starts reading from the tape and animating the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		WaitForTape(m.tape),
		m.spinner.Tick,
	)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case MsgTapeUpdate:
		m.apply(msg.Update)
		return m, WaitForTape(m.tape)
	case MsgStopping:
		m.stopping = true
		return m, nil
	case MsgTapeEnded:
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) apply(update *progrock.StatusUpdate) {
	m.board.Apply(update)
	for _, l := range update.Logs {
		tail, ok := m.logs[l.Vertex]
		if !ok {
			tail = &logTail{}
			m.logs[l.Vertex] = tail
		}
		tail.write(l.Data)
	}
}
