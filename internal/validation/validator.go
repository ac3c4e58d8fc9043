// Package validation checks the parameters of render requests before a form
// is parsed or the rule service is contacted.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPageLength is the maximum length of a page id
	MaxPageLength = 64
	// MaxIdentifierLength bounds belongsTo, elementId and control names
	MaxIdentifierLength = 128
	// MaxChanges is the maximum number of replayed changes per request
	MaxChanges = 500
)

// pagePattern matches the characters allowed in a cache key suffix
var pagePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidationResult holds the result of validation
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

// NewValidationResult creates a new validation result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:  true,
		Errors: make(map[string]string),
	}
}

// AddError adds a field error and marks the result as invalid
func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors[field] = message
}

// Merge combines another validation result into this one
func (v *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for field, message := range other.Errors {
		v.AddError(field, message)
	}
}

// ChangeParams is one replayed control edit.
type ChangeParams struct {
	Name       string
	FormID     string
	Occurrence int
}

// RenderParams contains the parameters of a render request
type RenderParams struct {
	Page      string
	BelongsTo string
	ElementID string
	HTML      string
	Changes   []ChangeParams
}

// ValidateRender validates all render request fields
func ValidateRender(params RenderParams) *ValidationResult {
	result := NewValidationResult()
	result.Merge(ValidatePage(params.Page))
	result.Merge(validateIdentifier("belongsTo", params.BelongsTo))
	result.Merge(validateIdentifier("elementId", params.ElementID))

	if strings.TrimSpace(params.HTML) == "" {
		result.AddError("html", "HTML is required")
	}

	result.Merge(ValidateChanges(params.Changes))
	return result
}

// ValidatePage validates a page id, which becomes part of the cache key
func ValidatePage(page string) *ValidationResult {
	result := NewValidationResult()
	page = strings.TrimSpace(page)

	if page == "" {
		result.AddError("page", "Page is required")
		return result
	}

	if utf8.RuneCountInString(page) > MaxPageLength {
		result.AddError("page", "Page must not exceed 64 characters")
		return result
	}

	if !pagePattern.MatchString(page) {
		result.AddError("page", "Page must contain only alphanumeric characters, underscores, and hyphens")
	}

	return result
}

// ValidateChanges validates the replayed edits
func ValidateChanges(changes []ChangeParams) *ValidationResult {
	result := NewValidationResult()

	if len(changes) > MaxChanges {
		result.AddError("changes", fmt.Sprintf("At most %d changes are allowed", MaxChanges))
		return result
	}

	for i, c := range changes {
		field := fmt.Sprintf("changes[%d]", i)
		if strings.TrimSpace(c.Name) == "" {
			result.AddError(field+".name", "Name is required")
		} else if utf8.RuneCountInString(c.Name) > MaxIdentifierLength {
			result.AddError(field+".name", "Name must not exceed 128 characters")
		}
		if c.Occurrence < 0 {
			result.AddError(field+".occurrence", "Occurrence must not be negative")
		}
	}

	return result
}

func validateIdentifier(field, value string) *ValidationResult {
	result := NewValidationResult()
	if utf8.RuneCountInString(value) > MaxIdentifierLength {
		result.AddError(field, fmt.Sprintf("%s must not exceed 128 characters", field))
	}
	return result
}
