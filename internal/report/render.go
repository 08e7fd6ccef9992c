// internal/report/render.go

package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"driftmon/internal/util"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	modelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	driftStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
)

// RenderTable renders the report as an aligned terminal table.
func RenderTable(r Report) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("Accuracy report: %d runs (%s to %s)", r.Runs, r.FirstRun, r.LastRun)))
	b.WriteString("\n\n")

	nameWidth := len("Model")
	for _, m := range r.Models {
		if len(m.Name) > nameWidth {
			nameWidth = len(m.Name)
		}
	}

	header := fmt.Sprintf("%-*s  %8s", nameWidth, "Model", "Overall")
	for _, category := range r.Categories {
		header += fmt.Sprintf("  %*s", columnWidth(category), shortCategory(category))
	}
	header += fmt.Sprintf("  %9s  %10s  %8s  %s", "Latency", "Cost", "Blocked", "Drift")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for _, m := range r.Models {
		row := fmt.Sprintf("%-*s  %8s", nameWidth, m.Name, FormatAccuracy(m.Overall))
		for _, category := range r.Categories {
			row += fmt.Sprintf("  %*s", columnWidth(category), FormatAccuracy(m.Categories[category]))
		}
		row += fmt.Sprintf("  %7.0fms  %10s  %8d  ", m.MeanLatencyMs, util.USD(m.TotalCostUSD), m.Blocked)
		b.WriteString(modelStyle.Render(row))
		b.WriteString(driftCell(m))
		b.WriteString("\n")
	}

	if len(r.CostRanking) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Cost efficiency (accuracy per dollar):"))
		b.WriteString("\n")
		for i, id := range r.CostRanking {
			m := findModel(r, id)
			if m == nil {
				continue
			}
			b.WriteString(fmt.Sprintf("  %d. %s (%.1f)\n", i+1, m.Name, *m.AccuracyPerDollar))
		}
	}
	return b.String()
}

func driftCell(m ModelReport) string {
	if m.Drift == nil {
		return "-"
	}
	if !m.Drift.Drifted {
		return okStyle.Render("stable")
	}
	return driftStyle.Render(fmt.Sprintf("%s %s", m.Drift.Severity, m.Drift.Direction))
}

// RenderMarkdown renders the report as a Markdown document for sharing.
func RenderMarkdown(r Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Accuracy report\n\n")
	fmt.Fprintf(&b, "Generated %s over %d runs (%s to %s).\n\n", r.GeneratedAt.Format("2006-01-02 15:04"), r.Runs, r.FirstRun, r.LastRun)

	b.WriteString("| Model | Overall |")
	for _, category := range r.Categories {
		fmt.Fprintf(&b, " %s |", category)
	}
	b.WriteString(" Latency | Cost | Blocked | Drift |\n")
	b.WriteString("|---|---|")
	for range r.Categories {
		b.WriteString("---|")
	}
	b.WriteString("---|---|---|---|\n")

	for _, m := range r.Models {
		fmt.Fprintf(&b, "| %s | %s |", m.Name, FormatAccuracy(m.Overall))
		for _, category := range r.Categories {
			fmt.Fprintf(&b, " %s |", FormatAccuracy(m.Categories[category]))
		}
		driftText := "-"
		if m.Drift != nil {
			driftText = "stable"
			if m.Drift.Drifted {
				driftText = fmt.Sprintf("%s %s (p=%.4f, d=%.2f)", m.Drift.Severity, m.Drift.Direction, m.Drift.Test.P, m.Drift.EffectSize)
			}
		}
		fmt.Fprintf(&b, " %.0fms | %s | %d | %s |\n", m.MeanLatencyMs, util.USD(m.TotalCostUSD), m.Blocked, driftText)
	}

	if len(r.CostRanking) > 0 {
		b.WriteString("\n## Cost efficiency\n\n")
		for i, id := range r.CostRanking {
			m := findModel(r, id)
			if m == nil {
				continue
			}
			fmt.Fprintf(&b, "%d. %s: %.1f accuracy per dollar\n", i+1, m.Name, *m.AccuracyPerDollar)
		}
	}
	return b.String()
}

func findModel(r Report, id string) *ModelReport {
	for i := range r.Models {
		if r.Models[i].ModelID == id {
			return &r.Models[i]
		}
	}
	return nil
}

// shortCategory abbreviates the long category names so the table fits a
// terminal.
func shortCategory(category string) string {
	switch category {
	case "creative-writing":
		return "creative"
	case "instruction-following":
		return "instruct"
	case "consistency":
		return "consist"
	default:
		return category
	}
}

func columnWidth(category string) int {
	w := len(shortCategory(category))
	if w < 6 {
		w = 6
	}
	return w
}
