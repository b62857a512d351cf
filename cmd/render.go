package cmd

import (
	"fmt"
	"strings"

	"github.com/tankyu/diary/internal/clock"
	"github.com/tankyu/diary/internal/competency"
	"github.com/tankyu/diary/internal/report"
	"github.com/tankyu/diary/internal/streak"
	"github.com/tankyu/diary/internal/ui/theme"
)

func renderClassification(c *report.Classification) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Classification") + "\n\n")

	phase := c.Phase
	if phase == "" {
		phase = "-"
	}
	b.WriteString(theme.Row("Phase", phase) + "\n")
	b.WriteString(theme.Row("Source", c.Source) + "\n\n")

	for _, a := range c.Competencies {
		style := theme.Sub
		if a.Role == competency.RoleStrong {
			style = theme.Strong
		}
		b.WriteString(fmt.Sprintf("%s %s\n", style.Render(fmt.Sprintf("%-6s +%d", a.Role, a.Points)), a.Name))
	}
	b.WriteString("\n" + theme.Hint.Render(c.Comment))
	return theme.Card.Render(b.String())
}

func renderStreak(s streak.State) string {
	last := "-"
	if s.LastReportDate != nil {
		last = clock.FormatDate(*s.LastReportDate)
	}
	lines := []string{
		theme.Title.Render("Streak"),
		"",
		theme.Row("Current", fmt.Sprintf("%d days", s.Current)),
		theme.Row("Best", fmt.Sprintf("%d days", s.Max)),
		theme.Row("Last", last),
	}
	return theme.Card.Render(strings.Join(lines, "\n"))
}

func renderSummary(sum *report.Summary) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Achievements") + "\n\n")
	b.WriteString(theme.Row("Reports", fmt.Sprintf("%d", sum.TotalReports)) + "\n")
	b.WriteString(theme.Row("Streak", fmt.Sprintf("%d (best %d, next goal %d)",
		sum.Streak.Current, sum.Streak.Max, sum.NextStreakMilestone)) + "\n\n")

	most := 1
	for _, c := range sum.Competencies {
		most = max(most, c.Count)
	}
	for _, c := range sum.Competencies {
		b.WriteString(fmt.Sprintf("%s %3d  %s\n", theme.Bar(c.Count*20/most, 20), c.Count, c.Name))
	}

	b.WriteString("\n")
	if len(sum.Badges) == 0 {
		b.WriteString(theme.Hint.Render("No badges yet."))
	}
	for i, bd := range sum.Badges {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%s %s  %s", bd.Icon, theme.Earned.Render(bd.Name), theme.Hint.Render(bd.Description)))
	}
	return theme.Card.Render(b.String())
}
