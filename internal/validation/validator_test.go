package validation

import (
	"strings"
	"testing"
)

func TestValidatePage(t *testing.T) {
	tests := []struct {
		name        string
		page        string
		wantValid   bool
		wantMessage string
	}{
		{
			name:      "numeric post id",
			page:      "42",
			wantValid: true,
		},
		{
			name:      "option page slug",
			page:      "acpt_options-page",
			wantValid: true,
		},
		{
			name:        "empty",
			page:        "",
			wantValid:   false,
			wantMessage: "Page is required",
		},
		{
			name:        "whitespace only",
			page:        "   ",
			wantValid:   false,
			wantMessage: "Page is required",
		},
		{
			name:        "too long",
			page:        strings.Repeat("1", 65),
			wantValid:   false,
			wantMessage: "Page must not exceed 64 characters",
		},
		{
			name:      "exactly 64 chars",
			page:      strings.Repeat("1", 64),
			wantValid: true,
		},
		{
			name:        "path separator",
			page:        "../42",
			wantValid:   false,
			wantMessage: "Page must contain only alphanumeric characters, underscores, and hyphens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidatePage(tt.page)
			if result.Valid != tt.wantValid {
				t.Errorf("ValidatePage(%q) valid = %v, want %v", tt.page, result.Valid, tt.wantValid)
			}
			if !tt.wantValid && result.Errors["page"] != tt.wantMessage {
				t.Errorf("ValidatePage(%q) message = %q, want %q", tt.page, result.Errors["page"], tt.wantMessage)
			}
		})
	}
}

func TestValidateChanges(t *testing.T) {
	result := ValidateChanges([]ChangeParams{
		{Name: "color", FormID: "box_1"},
		{Name: "", FormID: "box_1"},
		{Name: "note", Occurrence: -1},
	})

	if result.Valid {
		t.Fatal("Expected invalid result")
	}
	if result.Errors["changes[1].name"] != "Name is required" {
		t.Errorf("Unexpected errors: %v", result.Errors)
	}
	if result.Errors["changes[2].occurrence"] != "Occurrence must not be negative" {
		t.Errorf("Unexpected errors: %v", result.Errors)
	}
	if _, ok := result.Errors["changes[0].name"]; ok {
		t.Error("Expected first change to be valid")
	}
}

func TestValidateChanges_TooMany(t *testing.T) {
	result := ValidateChanges(make([]ChangeParams, MaxChanges+1))
	if result.Valid || result.Errors["changes"] == "" {
		t.Errorf("Expected changes limit error, got %v", result.Errors)
	}
}

func TestValidateRender(t *testing.T) {
	valid := RenderParams{Page: "42", BelongsTo: "customPostType", ElementID: "42", HTML: "<form></form>"}
	if r := ValidateRender(valid); !r.Valid {
		t.Errorf("Expected valid params, got %v", r.Errors)
	}

	r := ValidateRender(RenderParams{BelongsTo: strings.Repeat("x", 129)})
	for _, field := range []string{"page", "html", "belongsTo"} {
		if _, ok := r.Errors[field]; !ok {
			t.Errorf("Expected error for %s, got %v", field, r.Errors)
		}
	}
}

func TestValidationResult_Merge(t *testing.T) {
	a := NewValidationResult()
	b := NewValidationResult()
	b.AddError("page", "Page is required")

	a.Merge(b)
	a.Merge(nil)

	if a.Valid || a.Errors["page"] == "" {
		t.Errorf("Expected merged error, got %+v", a)
	}
}
