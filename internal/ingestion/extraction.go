package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/jobcraft/internal/llm"
	"github.com/jonathan/jobcraft/internal/schemas"
	"github.com/jonathan/jobcraft/internal/types"
)

// maxPromptText bounds the page text sent to the model.
const maxPromptText = 30000

// ExtractJob asks the model for the structured fields of a posting and
// checks the reply against the job schema.
func ExtractJob(ctx context.Context, caller llm.Caller, text string) (*types.Extraction, error) {
	text = truncateText(text, maxPromptText)

	prompt := llm.BuildExtractionPrompt(llm.JobPostingSchema(), text)

	doc, err := llm.InvokeJSON(ctx, caller, prompt)
	if err != nil {
		return nil, err
	}

	if err := schemas.ValidateJob(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLLMExtractionFailed, err)
	}

	var extracted types.Extraction
	if err := json.Unmarshal([]byte(doc), &extracted); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal JSON: %w", ErrLLMExtractionFailed, err)
	}

	extracted.Role = strings.TrimSpace(extracted.Role)
	extracted.Company = strings.TrimSpace(extracted.Company)
	extracted.Description = strings.TrimSpace(extracted.Description)
	extracted.Location = strings.TrimSpace(extracted.Location)

	return &extracted, nil
}

// truncateText cuts s to at most limit bytes without splitting a rune.
func truncateText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
