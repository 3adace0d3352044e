// Package prompts holds the model prompt texts for job extraction, embedded
// from extraction.json.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

//go:embed extraction.json
var extractionJSON []byte

// Prompt keys in extraction.json.
const (
	JobPosting  = "job-posting"
	OutputRules = "output-rules"
	InputBlock  = "input-block"
)

var requiredKeys = []string{JobPosting, OutputRules, InputBlock}

var load = sync.OnceValues(func() (map[string]string, error) {
	return parse(extractionJSON)
})

// placeholder matches {{.Key}}, tolerating spaces inside the braces.
var placeholder = regexp.MustCompile(`\{\{\s*\.(\w+)\s*\}\}`)

// parse decodes a prompt set and checks that every required key has text.
func parse(data []byte) (map[string]string, error) {
	var set map[string]string
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse extraction prompts: %w", err)
	}

	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(set[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("extraction prompts missing %s", strings.Join(missing, ", "))
	}
	return set, nil
}

// Get returns the prompt stored under key.
func Get(key string) (string, error) {
	set, err := load()
	if err != nil {
		return "", err
	}
	prompt, ok := set[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found", key)
	}
	return prompt, nil
}

// MustGet is Get for the keys declared above. It panics when the prompt is
// missing.
func MustGet(key string) string {
	prompt, err := Get(key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// Format fills {{.Key}} placeholders from data in a single pass. Scraped text
// that itself contains "{{.X}}" is inserted literally and never expanded.
// Placeholders without a value are left in place.
func Format(template string, data map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		if value, ok := data[key]; ok {
			return value
		}
		return m
	})
}
