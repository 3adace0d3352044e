package llm

import (
	"fmt"
	"strings"

	"github.com/jonathan/jobcraft/internal/prompts"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
// It provides a reusable way to define what information to extract from text.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "JobPosting")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint shown to the model; empty means string
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	// System description
	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	// Output schema
	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString(prompts.MustGet(prompts.OutputRules))
	sb.WriteString("\n\n")
	sb.WriteString(prompts.Format(prompts.MustGet(prompts.InputBlock), map[string]string{"Input": inputText}))

	return sb.String()
}

// --- Predefined Schemas ---

// JobPostingSchema returns the extraction schema for a scraped job posting.
// Role, company and description are required for a usable job record.
func JobPostingSchema() ExtractionSchema {
	return ExtractionSchema{
		Name:        "JobPosting",
		Description: prompts.MustGet(prompts.JobPosting),
		Fields: []SchemaField{
			{
				Name:        "role",
				Type:        "\"string\"",
				Description: "Job title exactly as written",
				Required:    true,
			},
			{
				Name:        "company",
				Type:        "\"string\"",
				Description: "Hiring company name",
				Required:    true,
			},
			{
				Name:        "description",
				Type:        "\"string\"",
				Description: "Full job description text, verbatim",
				Required:    true,
			},
			{
				Name:        "location",
				Type:        "\"string\"",
				Description: "Work location or 'Remote'; empty string if not stated",
				Required:    false,
			},
		},
	}
}
