package ingestion

import (
	"crypto/md5" //nolint:gosec // file naming, not security
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jonathan/jobcraft/internal/security"
	"github.com/jonathan/jobcraft/internal/types"
)

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9]+`)

// ValidateJob checks that role, company and description are present.
func ValidateJob(job *types.Job) error {
	if job == nil {
		return &MissingFieldError{Fields: []string{"role", "company", "description"}}
	}
	if missing := job.MissingFields(); len(missing) > 0 {
		return &MissingFieldError{URL: job.Link, Fields: missing}
	}
	return nil
}

// SuggestedName returns the first 10 hex characters of md5(url).
func SuggestedName(url string) string {
	sum := md5.Sum([]byte(url)) //nolint:gosec // file naming, not security
	return hex.EncodeToString(sum[:])[:10]
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// OutputFileName builds "<company>-<role>-<suggested>.json" from the job.
// Company and role come from the page and are reduced to [a-z0-9-].
func OutputFileName(job *types.Job) string {
	suggested := job.SuggestedName
	if suggested == "" {
		suggested = SuggestedName(job.Link)
	}

	var parts []string
	for _, field := range []string{job.Company, job.Role} {
		slug := slugify(security.SanitizeHeaderField(field))
		if slug != "" {
			parts = append(parts, slug)
		}
	}
	parts = append(parts, suggested)

	return strings.Join(parts, "-") + ".json"
}

func slugify(s string) string {
	s = unsafeNameChars.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if len(s) > 40 {
		s = strings.TrimRight(s[:40], "-")
	}
	return s
}

// WriteOutput writes the job as indented JSON into outDir and returns the path.
func WriteOutput(outDir string, job *types.Job) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal job to JSON: %w", err)
	}

	path := filepath.Join(outDir, OutputFileName(job))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write job file: %w", err)
	}

	return path, nil
}
