package hpt

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	recapTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	recapHeader = lipgloss.NewStyle().Bold(true).Underline(true)
	recapBest   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	recapFailed = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	recapBox    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// RenderRecap writes a summary of the study: one row per trial, then the
// parameters of the best trial.
func RenderRecap(w io.Writer, s *Study) error {
	var b strings.Builder
	b.WriteString(recapTitle.Render(fmt.Sprintf("Tuning recap %s (%s, %d trials)", s.Name, s.Direction, len(s.Trials))))
	b.WriteString("\n")
	b.WriteString(recapHeader.Render(fmt.Sprintf("%6s  %-9s  %14s  %12s", "trial", "state", "value", "duration")))
	b.WriteString("\n")

	best, bestErr := s.Best()
	for _, t := range s.Trials {
		row := fmt.Sprintf("%6d  %-9s  %14.6f  %12s", t.Number, t.State, t.Value, t.Duration.Round(time.Microsecond))
		switch {
		case t.State == TrialFailed:
			row = recapFailed.Render(row)
		case bestErr == nil && t.Number == best.Number:
			row = recapBest.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	if bestErr != nil {
		b.WriteString(recapFailed.Render("no complete trial"))
	} else {
		b.WriteString(recapBest.Render(fmt.Sprintf("best trial %d, value %.6f", best.Number, best.Value)))
		names := make([]string, 0, len(best.Params))
		for name := range best.Params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "\n  %-40s %g", name, best.Params[name])
		}
	}

	_, err := fmt.Fprintln(w, recapBox.Render(b.String()))
	return err
}
