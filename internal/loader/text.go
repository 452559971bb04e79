package loader

import (
	"regexp"
	"strings"
)

var (
	runsOfSpace = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes extracted text while keeping its line structure.
// Line endings become LF, runs of spaces collapse, bullets keep their
// indentation and at most one blank line separates paragraphs.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t\u00a0")
	trimmed := strings.TrimLeft(line, " \t\u00a0")
	if trimmed == "" {
		return ""
	}

	indent := len(line) - len(trimmed)
	if isBulletLine(trimmed) && indent > 0 {
		return strings.Repeat(" ", indent) + runsOfSpace.ReplaceAllString(trimmed, " ")
	}
	return runsOfSpace.ReplaceAllString(trimmed, " ")
}

func isBulletLine(trimmed string) bool {
	for _, marker := range []string{"- ", "* ", "• ", "· "} {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
	}
	return false
}
