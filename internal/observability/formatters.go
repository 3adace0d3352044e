// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/jobcraft/internal/retry"
	"github.com/jonathan/jobcraft/internal/security"
	"github.com/jonathan/jobcraft/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// descriptionPreview is how much of a job description is shown
	descriptionPreview = 200
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for _, line := range lines {
		// Truncate long lines
		if r := []rune(line); len(r) > boxWidth-4 {
			line = string(r[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// PrintJob outputs a human-readable summary of a scraped job.
func (p *Printer) PrintJob(job *types.Job) {
	if job == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Role:        %s\n", orNA(job.Role)))
	sb.WriteString(fmt.Sprintf("Company:     %s\n", orNA(job.Company)))
	sb.WriteString(fmt.Sprintf("Location:    %s\n", orNA(job.Location)))
	sb.WriteString(fmt.Sprintf("Platform:    %s\n", orNA(job.Platform)))
	sb.WriteString(fmt.Sprintf("Description: %d chars\n", len(job.Description)))
	sb.WriteString(fmt.Sprintf("Name:        %s\n", orNA(job.SuggestedName)))
	sb.WriteString(fmt.Sprintf("URL:         %s\n", orNA(job.Link)))

	if job.Description != "" {
		preview := []rune(strings.Join(strings.Fields(job.Description), " "))
		if len(preview) > descriptionPreview {
			preview = append(preview[:descriptionPreview], []rune("...")...)
		}
		sb.WriteString("\n")
		for _, line := range wrap(string(preview), boxWidth-4) {
			sb.WriteString(line + "\n")
		}
	}

	p.printBox("SCRAPED JOB", sb.String())
}

// PrintScrapeFailure outputs why a URL could not be scraped.
func (p *Printer) PrintScrapeFailure(url string, err error) {
	if err == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("URL:      %s\n", security.RedactURL(url)))

	var rerr *retry.Error
	if errors.As(err, &rerr) {
		sb.WriteString(fmt.Sprintf("Category: %s\n", rerr.Category))
		sb.WriteString(fmt.Sprintf("Attempts: %d\n", rerr.Attempts))
	}

	sb.WriteString("\n")
	for _, line := range wrap(security.SanitizeForLogging(err.Error()), boxWidth-4) {
		sb.WriteString(line + "\n")
	}

	p.printBox("SCRAPE FAILED", sb.String())
}

// PrintAttempts outputs the failed attempts of one retried call.
func (p *Printer) PrintAttempts(history []retry.Attempt) {
	if len(history) == 0 {
		return
	}

	var sb strings.Builder
	for _, a := range history {
		sb.WriteString(fmt.Sprintf("#%d  %-22s", a.Number, a.Classification.Category))
		if a.Classification.StatusCode != 0 {
			sb.WriteString(fmt.Sprintf(" HTTP %d", a.Classification.StatusCode))
		}
		if a.Delay > 0 {
			sb.WriteString(fmt.Sprintf(" wait %s", a.Delay))
		}
		sb.WriteString("\n")
	}

	p.printBox("RETRY ATTEMPTS", sb.String())
}

// wrap splits text into lines of at most width runes on word boundaries.
func wrap(text string, width int) []string {
	var lines []string
	var line []rune
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		if len(line) > 0 && len(line)+1+len(w) > width {
			lines = append(lines, string(line))
			line = nil
		}
		if len(line) > 0 {
			line = append(line, ' ')
		}
		line = append(line, w...)
	}
	if len(line) > 0 {
		lines = append(lines, string(line))
	}
	return lines
}
