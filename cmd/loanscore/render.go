package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"loanscore/internal/loan"
	"loanscore/internal/server"
)

const barWidth = 40

var (
	approvedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50"))
	rejectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F44336"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func decisionStyle(d loan.Decision) lipgloss.Style {
	if d == loan.Approved {
		return approvedStyle
	}
	return rejectedStyle
}

// probabilityBar splits barWidth cells between approval and rejection.
func probabilityBar(pApprove float64) string {
	n := int(math.Round(pApprove * barWidth))
	n = max(0, min(barWidth, n))
	return approvedStyle.Render(strings.Repeat("█", n)) +
		rejectedStyle.Render(strings.Repeat("░", barWidth-n))
}

func percent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

// renderPrediction formats one scored row: the decision, both percentages
// and a bar.
func renderPrediction(row int, p server.Prediction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n",
		dimStyle.Render(fmt.Sprintf("#%d", row+1)),
		decisionStyle(p.Label).Render(string(p.Label)))
	fmt.Fprintf(&b, "  %s %s\n", approvedStyle.Render("Approval:"), percent(p.ApprovalProbability))
	fmt.Fprintf(&b, "  %s %s\n", rejectedStyle.Render("Rejection:"), percent(p.RejectionProbability))
	fmt.Fprintf(&b, "  %s\n", probabilityBar(p.ApprovalProbability))
	return b.String()
}

func renderPredictions(w io.Writer, title string, preds []server.Prediction) {
	fmt.Fprintln(w, headerStyle.Render(title))
	for i, p := range preds {
		fmt.Fprint(w, renderPrediction(i, p))
	}
}
