// Package statusview renders a coordinator status snapshot for terminal
// display, reusing the theme and style conventions of the cluster's other
// CLI tooling rather than printing raw JSON.
package statusview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/haivivi/mtreecluster/internal/wire"
)

// Theme defines the color scheme for the status view.
type Theme struct {
	Primary lipgloss.Color
	Good    lipgloss.Color
	Bad     lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme matches the bright-green accent used across the cluster's
// terminal tooling.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Good:    lipgloss.Color("#00ff9f"),
	Bad:     lipgloss.Color("#ff5f5f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds the styles derived from a Theme.
type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Good  lipgloss.Style
	Bad   lipgloss.Style
	Dim   lipgloss.Style
}

// NewStyles builds Styles from t.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label: lipgloss.NewStyle().Bold(true),
		Good:  lipgloss.NewStyle().Foreground(t.Good),
		Bad:   lipgloss.NewStyle().Foreground(t.Bad).Bold(true),
		Dim:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Render formats a coordinator status response as a human-readable report.
// It is a one-shot render, not a live frame: the status CLI queries the
// coordinator once and prints the result rather than driving a TUI loop.
func Render(s wire.CoordinatorStatusResponse) string {
	return RenderWithStyles(s, NewStyles(DefaultTheme))
}

// RenderWithStyles renders s using an explicit Styles, letting callers
// swap themes or disable color for non-terminal output.
func RenderWithStyles(s wire.CoordinatorStatusResponse, styles Styles) string {
	var b strings.Builder

	fmt.Fprintln(&b, styles.Title.Render("mtreecluster coordinator"))
	fmt.Fprintf(&b, "%s %s\n", styles.Label.Render("orchestrator:"), statusStyle(styles, s.OrchestratorStatus))
	fmt.Fprintf(&b, "%s %s\n", styles.Label.Render("consistent hasher:"), statusStyle(styles, s.ConsistentHasherStatus))
	fmt.Fprintf(&b, "%s %d\n", styles.Label.Render("active workers:"), s.ActiveWorkersCount)
	fmt.Fprintln(&b)

	if len(s.WorkerDetails) == 0 {
		fmt.Fprintln(&b, styles.Dim.Render("  (no workers registered)"))
		return b.String()
	}

	for _, w := range s.WorkerDetails {
		fmt.Fprintf(&b, "  %-16s %-24s %s  size=%d\n",
			w.NodeID, w.NodeURL, statusStyle(styles, w.Status), w.MTreeSize)
	}
	return b.String()
}

func statusStyle(styles Styles, status string) string {
	if status == "ok" {
		return styles.Good.Render(status)
	}
	return styles.Bad.Render(status)
}
