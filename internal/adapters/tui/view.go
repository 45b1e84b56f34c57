package tui

import (
	"fmt"
	"strings"
	"time"

	telemetry "go.trai.ch/smake/internal/adapters/telemetry/progrock"
	"go.trai.ch/smake/internal/core/domain"
)

// View renders one row per unit in queue order, followed by the recent output
// of running and failed units.
func (m *Model) View() string {
	now := m.now()
	var lines []string
	for _, u := range m.board.Units() {
		lines = append(lines, m.row(u, now))
		if u.Status != domain.UnitStatusRunning && u.Status != domain.UnitStatusFailed {
			continue
		}
		if tail, ok := m.logs[u.ID]; ok {
			for _, line := range tail.tail() {
				lines = append(lines, logStyle.Render(line))
			}
		}
	}
	if m.stopping && !m.board.Done() {
		lines = append(lines, footerStyle.Render("stopping: waiting for running recipes"))
	}

	if m.height > 0 && len(lines) > m.height {
		lines = lines[len(lines)-m.height:]
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *Model) row(u *telemetry.Unit, now time.Time) string {
	switch u.Status {
	case domain.UnitStatusRunning:
		return fmt.Sprintf("%s %s %s", m.spinner.View(), u.Label, runningStyle.Render(formatElapsed(u.Elapsed(now))))
	case domain.UnitStatusCompleted:
		return fmt.Sprintf("%s %s %s", "✅", u.Label, doneStyle.Render(formatElapsed(u.Elapsed(now))))
	case domain.UnitStatusFailed:
		return fmt.Sprintf("%s %s %s", errorStyle.Render("✗"), u.Label, errorStyle.Render(u.Err))
	case domain.UnitStatusSkipped:
		return fmt.Sprintf("%s %s", skippedStyle.Render("↷"), skippedStyle.Render(u.Label))
	default:
		return fmt.Sprintf("%s %s %s", "⏳", u.Label, queuedStyle.Render("⋯"))
	}
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
