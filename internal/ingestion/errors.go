package ingestion

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/jobcraft/internal/security"
)

var (
	// ErrInvalidURL is returned when the URL fails validation
	ErrInvalidURL = errors.New("invalid URL")
	// ErrHTTPRequestFailed is returned when the page cannot be fetched
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when no usable text is found
	ErrContentExtractionFailed = errors.New("content extraction failed")
	// ErrLLMExtractionFailed is returned when the model output is unusable
	ErrLLMExtractionFailed = errors.New("LLM extraction failed")
	// ErrIncompleteJob is matched by *MissingFieldError
	ErrIncompleteJob = errors.New("incomplete job data")
)

// MissingFieldError reports required job fields that are empty.
type MissingFieldError struct {
	URL    string
	Fields []string
}

func (e *MissingFieldError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("incomplete job data for %s: missing %s", security.RedactURL(e.URL), strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("incomplete job data: missing %s", strings.Join(e.Fields, ", "))
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrIncompleteJob
}
