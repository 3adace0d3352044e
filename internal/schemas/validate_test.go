package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobSchema_IsValidJSON(t *testing.T) {
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(JobSchema()), &v))
	assert.Equal(t, "object", v["type"])
}

func TestValidateJob(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantError bool
		wantField string
	}{
		{
			name: "complete posting",
			doc:  `{"role": "Backend Engineer", "company": "Acme", "description": "Build APIs", "location": "Remote"}`,
		},
		{
			name: "location optional",
			doc:  `{"role": "Backend Engineer", "company": "Acme", "description": "Build APIs"}`,
		},
		{
			name:      "missing company",
			doc:       `{"role": "Backend Engineer", "description": "Build APIs"}`,
			wantError: true,
			wantField: "(root)",
		},
		{
			name:      "empty role",
			doc:       `{"role": "", "company": "Acme", "description": "Build APIs"}`,
			wantError: true,
			wantField: "role",
		},
		{
			name:      "wrong type",
			doc:       `{"role": "SWE", "company": 42, "description": "Build APIs"}`,
			wantError: true,
			wantField: "company",
		},
		{
			name:      "not json",
			doc:       `Sorry, I cannot help with that.`,
			wantError: true,
			wantField: "(root)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJob(tt.doc)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.NotEmpty(t, validationErr.Errors)
			assert.Equal(t, tt.wantField, validationErr.Errors[0].Field)
		})
	}
}

func TestValidateJSONString_Valid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`

	assert.NoError(t, ValidateJSONString(schemaContent, `{"name": "test"}`))
}

func TestValidateJSONString_Invalid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`

	err := ValidateJSONString(schemaContent, `{"age": 30}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidateJSONString_BrokenSchema(t *testing.T) {
	err := ValidateJSONString(`{"type": 12}`, `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "role", Message: "is required"},
			{Field: "company", Message: "must be a string"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "1. role")
	assert.Contains(t, errorMsg, "2. company")
}
