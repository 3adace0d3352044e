// Package types provides type definitions for structured data used throughout jobcraft.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// Job represents a structured job posting scraped from a URL
type Job struct {
	ID            uuid.UUID `json:"id"`
	Role          string    `json:"role"`
	Company       string    `json:"company"`
	Description   string    `json:"description"`
	Location      string    `json:"location,omitempty"`
	Link          string    `json:"link"`
	Platform      string    `json:"platform,omitempty"`
	SuggestedName string    `json:"suggested_name"`           // first 10 hex chars of md5(link)
	ContentHash   string    `json:"content_hash,omitempty"`   // sha256 of the cleaned page text
	ScrapedAt     time.Time `json:"scraped_at"`
}

// Extraction is the shape the model is asked to return for a posting.
type Extraction struct {
	Role        string `json:"role"`
	Company     string `json:"company"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
}

// MissingFields lists the required fields that are empty.
func (j *Job) MissingFields() []string {
	var missing []string
	if j.Role == "" {
		missing = append(missing, "role")
	}
	if j.Company == "" {
		missing = append(missing, "company")
	}
	if j.Description == "" {
		missing = append(missing, "description")
	}
	return missing
}
