package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tagren/internal/application/commands"
	"tagren/internal/domain"
)

var (
	summaryTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	summaryKey   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Width(16)
	summaryOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	summaryBad   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	summaryBox   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)
)

func printRunSummary(w io.Writer, r *commands.RunResult, csvPath string) {
	committed, commitFailed := 0, 0
	dryRun := false
	if r.Commit != nil {
		committed = r.Commit.Committed + r.Commit.Fallbacks
		commitFailed = len(r.Commit.Failures)
		dryRun = r.Commit.DryRun
	}

	title := "Run summary"
	if r.RunID > 0 {
		title = fmt.Sprintf("Run #%d", r.RunID)
	}
	if dryRun {
		title += " (dry run)"
	}

	var b strings.Builder
	b.WriteString(summaryTitle.Render(title) + "\n")
	b.WriteString(summaryLine("ok", r.OK, false))
	b.WriteString(summaryLine("failed", r.Failed, r.Failed > 0))
	b.WriteString(summaryLine("committed", committed, false))
	b.WriteString(summaryLine("commit_failed", commitFailed, commitFailed > 0))
	if r.Commit != nil && r.Commit.Fallbacks > 0 {
		b.WriteString(summaryLine("copied", r.Commit.Fallbacks, false))
	}
	if r.Commit != nil && r.Commit.RolledBack > 0 {
		b.WriteString(summaryLine("rolled_back", r.Commit.RolledBack, true))
	}
	b.WriteString(summaryKey.Render("mapping") + csvPath)

	fmt.Fprintln(w, summaryBox.Render(b.String()))

	for _, rec := range r.Records {
		if rec.Status == domain.StatusOK {
			continue
		}
		fmt.Fprintf(w, "  %s  %s\n", summaryBad.Render(string(rec.Status)), rec.SourcePath())
	}
	if r.Commit != nil {
		for _, f := range r.Commit.Failures {
			fmt.Fprintf(w, "  %s  %v\n", summaryBad.Render("COMMIT_FAILURE"), f)
		}
		for _, tmp := range r.Commit.Leftovers {
			fmt.Fprintf(w, "  %s  %s (run tagren-cli recover)\n", summaryBad.Render("LEFTOVER"), tmp)
		}
	}
	if r.Message != "" {
		fmt.Fprintln(w, r.Message)
	}
}

func summaryLine(key string, n int, bad bool) string {
	style := summaryOK
	if bad {
		style = summaryBad
	}
	return summaryKey.Render(key) + style.Render(fmt.Sprint(n)) + "\n"
}
