// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-tools/internal/pipeline"
	"github.com/jonathan/resume-tools/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		line = truncate(line, boxWidth-4)
		pad := boxWidth - 4 - utf8.RuneCountInString(line)
		fmt.Fprintf(p.out, "│ %s%s │\n", line, strings.Repeat(" ", pad))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// writeList writes a labeled bullet list, showing at most limit items.
func writeList(sb *strings.Builder, label string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(label + ":\n")
	for _, item := range items[:min(len(items), limit)] {
		fmt.Fprintf(sb, "  • %s\n", item)
	}
	if len(items) > limit {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-limit)
	}
	sb.WriteString("\n")
}

// describeEntry summarizes a free-form experience or education entry.
func describeEntry(entry map[string]any) string {
	var parts []string
	for _, key := range []string{"title", "degree", "company", "institution", "duration", "year"} {
		if v, ok := entry[key]; ok {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				parts = append(parts, s)
			}
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}

	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, entry[k]))
	}
	return strings.Join(parts, ", ")
}

// PrintEvent outputs one progress line.
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) PrintEvent(event pipeline.Event) {
	fmt.Fprintf(p.out, "[%d/%d] %s\n", event.Index, event.Total, event.Message)
}

// PrintResumeAnalysis outputs a summary of the resume analysis.
func (p *Printer) PrintResumeAnalysis(analysis *types.ResumeAnalysis) {
	if analysis == nil {
		return
	}

	var sb strings.Builder
	if analysis.Summary != "" {
		sb.WriteString(analysis.Summary + "\n\n")
	}
	writeList(&sb, "Skills", analysis.Skills, maxItemsToShow)

	entries := make([]string, 0, len(analysis.Experience))
	for _, e := range analysis.Experience {
		entries = append(entries, describeEntry(e))
	}
	writeList(&sb, "Experience", entries, 3)

	entries = entries[:0]
	for _, e := range analysis.Education {
		entries = append(entries, describeEntry(e))
	}
	writeList(&sb, "Education", entries, 3)

	p.printBox("RESUME ANALYSIS", strings.TrimSuffix(sb.String(), "\n\n"))
}

// PrintJobAnalysis outputs a summary of the job analysis.
func (p *Printer) PrintJobAnalysis(analysis *types.JobAnalysis) {
	if analysis == nil {
		return
	}

	var sb strings.Builder
	writeList(&sb, "Required Skills", analysis.RequiredSkills, maxItemsToShow)
	writeList(&sb, "Preferred Skills", analysis.PreferredSkills, 3)
	writeList(&sb, "Responsibilities", analysis.Responsibilities, 3)
	writeList(&sb, "Company Values", analysis.CompanyValues, 3)
	writeList(&sb, "Keywords", analysis.Keywords, maxItemsToShow)

	p.printBox("JOB ANALYSIS", strings.TrimSuffix(sb.String(), "\n\n"))
}

// PrintCustomization outputs the suggested resume changes.
func (p *Printer) PrintCustomization(c *types.ResumeCustomization) {
	if c == nil {
		return
	}

	var sb strings.Builder
	writeList(&sb, "Highlight", c.HighlightedSkills, maxItemsToShow)

	if len(c.ExperienceEmphasize) > 0 {
		roles := make([]string, 0, len(c.ExperienceEmphasize))
		for role := range c.ExperienceEmphasize {
			roles = append(roles, role)
		}
		sort.Strings(roles)

		lines := make([]string, 0, len(roles))
		for _, role := range roles {
			lines = append(lines, fmt.Sprintf("%s: %s", role, strings.Join(c.ExperienceEmphasize[role], "; ")))
		}
		writeList(&sb, "Emphasize", lines, 3)
	}

	writeList(&sb, "Add", c.SuggestedAdditions, 3)
	writeList(&sb, "Remove", c.SuggestedRemovals, 3)

	p.printBox("CUSTOMIZATION SUGGESTIONS", strings.TrimSuffix(sb.String(), "\n\n"))
}

// PrintJobMatch outputs the match score with strengths and gaps.
func (p *Printer) PrintJobMatch(match *types.JobMatch) {
	if match == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Match Score: %d/100 %s\n\n", match.MatchScore, scoreBar(match.MatchScore))
	if match.ExperienceAlignment != "" {
		sb.WriteString(match.ExperienceAlignment + "\n\n")
	}
	writeList(&sb, "Matching Skills", match.MatchingSkills, maxItemsToShow)
	writeList(&sb, "Missing Skills", match.MissingSkills, maxItemsToShow)
	writeList(&sb, "Strengths", match.Strengths, 3)
	writeList(&sb, "Weaknesses", match.Weaknesses, 3)
	writeList(&sb, "Recommendations", match.Recommendations, 3)

	p.printBox("JOB MATCH", strings.TrimSuffix(sb.String(), "\n\n"))
}

// PrintOutcome prints every record the outcome carries.
func (p *Printer) PrintOutcome(outcome *pipeline.Outcome) {
	if outcome == nil {
		return
	}
	p.PrintResumeAnalysis(outcome.ResumeAnalysis)
	p.PrintJobAnalysis(outcome.JobAnalysis)
	p.PrintCustomization(outcome.Customization)
	p.PrintJobMatch(outcome.Match)
}

// scoreBar renders a 0-100 score as a ten-cell bar.
func scoreBar(score int) string {
	filled := max(0, min(score, 100)) / 10
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", 10-filled) + "]"
}
