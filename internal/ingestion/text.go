package ingestion

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	blankLineRun  = regexp.MustCompile(`\n{3,}`)

	// bulletMarker matches the list glyphs job boards render. ASCII markers
	// need a following space so emphasis like "*Remote*" is left alone.
	bulletMarker = regexp.MustCompile(`^(?:[-*+]\s+|[\x{2022}\x{00b7}\x{25aa}\x{25ab}\x{25e6}\x{25cf}\x{25cb}\x{25a0}\x{25a1}\x{2023}\x{2043}\x{2013}\x{2014}]\s*)`)
)

// invisibleChars are pasted into postings by rich-text editors.
var invisibleChars = strings.NewReplacer(
	"\u00a0", " ",
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\u2060", "",
	"\ufeff", "",
)

// toggleLabels are expand/collapse controls that survive text extraction.
var toggleLabels = map[string]bool{
	"show more":           true,
	"show less":           true,
	"see more":            true,
	"see less":            true,
	"read more":           true,
	"\u2026more":          true,
	"\u2026 more":         true,
	"show more show less": true,
}

// CleanText normalizes extracted posting text for the model: line endings,
// invisible characters, bullet glyphs (all become "- "), inner whitespace,
// expand/collapse labels and runs of blank lines. Headings and indentation
// are kept.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = invisibleChars.Replace(content)

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	prev := ""
	for _, line := range lines {
		line = cleanLine(line)
		// LinkedIn repeats the title block when the description is expanded
		if line != "" && line == prev {
			continue
		}
		cleaned = append(cleaned, line)
		prev = line
	}

	result := blankLineRun.ReplaceAllString(strings.Join(cleaned, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || toggleLabels[strings.ToLower(trimmed)] {
		return ""
	}

	indent := indentWidth(line)

	if strings.HasPrefix(trimmed, "#") {
		return whitespaceRun.ReplaceAllString(trimmed, " ")
	}

	if loc := bulletMarker.FindStringIndex(trimmed); loc != nil {
		item := whitespaceRun.ReplaceAllString(trimmed[loc[1]:], " ")
		if item == "" {
			return ""
		}
		return strings.Repeat(" ", indent) + "- " + item
	}

	return strings.Repeat(" ", indent) + whitespaceRun.ReplaceAllString(trimmed, " ")
}

// indentWidth counts leading spaces, with a tab as four.
func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}
