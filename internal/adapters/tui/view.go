package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/gate/internal/ui/style"
)

// View renders the target list next to the logs of the selected target.
func (m *Model) View() string {
	if m.Viewport.Height == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.targetList(),
		m.logPane(),
	)
}

func (m *Model) targetList() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("TARGETS") + "\n\n")

	end := len(m.Targets)
	if m.ListHeight > 0 {
		end = min(end, m.ListOffset+m.ListHeight)
	}

	for i := m.ListOffset; i < end; i++ {
		node := m.Targets[i]
		icon, st := statusIcon(node.Status)

		line := icon + " " + node.Name
		if node.Status == StatusDone || node.Status == StatusError {
			line += style.Muted.Render(" " + formatDuration(node.Duration))
		}

		if i == m.SelectedIdx {
			s.WriteString(selectedStyle.Render("> ") + st.Render(line) + "\n")
		} else {
			s.WriteString("  " + st.Render(line) + "\n")
		}
	}

	return listStyle.Render(s.String())
}

func (m *Model) logPane() string {
	header := headerStyle.Render("LOGS (Waiting...)")
	if node := m.Selected(); node != nil {
		header = headerStyle.Render("LOGS: " + node.Name)
	}

	return logStyle.Render(
		lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			m.Viewport.View(),
		),
	)
}

func statusIcon(status TargetStatus) (string, lipgloss.Style) {
	switch status {
	case StatusRunning:
		return style.Dot, runningStyle
	case StatusDone:
		return style.Check, style.Success
	case StatusError:
		return style.Cross, style.Failure
	default:
		return style.Circle, style.Muted
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}
