package classify

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// WriteReport prints set the way the command line tool shows it. Headers are
// styled only when w is a terminal.
func WriteReport(w io.Writer, set PredictionSet, threshold float64) {
	header := lipgloss.NewRenderer(w).NewStyle().Bold(true)
	percent := threshold * 100

	if len(set) == 0 {
		fmt.Fprintf(w, "\n%s\n", header.Render(fmt.Sprintf("No predictions above %.0f%% confidence", percent)))
		return
	}

	fmt.Fprintf(w, "\n%s\n", header.Render(fmt.Sprintf("Predictions above %.0f%% confidence:", percent)))
	for _, p := range set {
		fmt.Fprintf(w, "%s (Index %d): %.6f\n", p.Label, p.Index, p.Probability)
	}
}
