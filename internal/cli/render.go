package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/datacopilot/internal/models"
)

// Theme holds the color scheme for rendered output.
type Theme struct {
	High    lipgloss.Color
	Medium  lipgloss.Color
	Low     lipgloss.Color
	Header  lipgloss.Color
	Hint    lipgloss.Color
	Warning lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	High:    lipgloss.Color("#00D787"), // green
	Medium:  lipgloss.Color("#D7AF00"), // amber
	Low:     lipgloss.Color("#FF005F"), // red
	Header:  lipgloss.Color("#5FAFD7"), // light blue
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Warning: lipgloss.Color("#FF8700"), // orange
}

func (t Theme) headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Header).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) warningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warning)
}

// confidenceMeta maps a score to the display band: high is verified truth or
// a correct refusal, medium is general advice on assumptions, low is
// hallucination risk.
func (t Theme) confidenceMeta(score float64) (string, lipgloss.Style) {
	switch {
	case score >= 0.9:
		return "High Confidence", lipgloss.NewStyle().Foreground(t.High).Bold(true)
	case score >= 0.7:
		return "Medium Confidence", lipgloss.NewStyle().Foreground(t.Medium).Bold(true)
	default:
		return "Low Confidence", lipgloss.NewStyle().Foreground(t.Low).Bold(true)
	}
}

func renderRejection(state models.SessionState) {
	theme := defaultTheme
	label := "Too vague"
	if state.Status == models.StatusOffTopic {
		label = "Off topic"
	}
	fmt.Printf("%s %s\n", theme.warningStyle().Render("✗ "+label+":"), state.Message)
}

func renderClarification(questions []string) {
	theme := defaultTheme
	fmt.Println(theme.warningStyle().Render("Clarification needed:"))
	for _, q := range questions {
		fmt.Printf("  • %s\n", q)
	}
}

func renderResults(results models.Results, threshold float64) {
	theme := defaultTheme

	for _, intent := range results.OrderedIntents() {
		res := results[intent]

		fmt.Println(theme.headerStyle().Render("── " + intent.Title() + " " + strings.Repeat("─", 40)))

		label, style := theme.confidenceMeta(res.Score)
		fmt.Printf("%s (%.2f)\n", style.Render(label), res.Score)

		if res.Score < 0.9 && res.Rationale != "" {
			fmt.Println(theme.hintStyle().Render("Diagnosis: " + res.Rationale))
		}
		if !res.Valid {
			fmt.Println(theme.warningStyle().Render("Scope check failed: " + res.Feedback))
		}
		if res.Degraded {
			fmt.Println(theme.hintStyle().Render("(degraded: a fallback value was substituted)"))
		}
		if res.Score < threshold {
			fmt.Println(theme.warningStyle().Render("Below the configured confidence threshold — verify before use."))
		}

		fmt.Println()
		fmt.Println(res.Output)
		fmt.Println()
	}
}
