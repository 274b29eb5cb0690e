// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package validation

import (
	"strings"
	"testing"
)

type seedInput struct {
	Title  string  `json:"title" validate:"required,max=512"`
	Rating float64 `json:"rating" validate:"gte=0,lte=5"`
}

type recommendInput struct {
	Seeds    []seedInput `json:"seeds" validate:"required,min=1,max=3,dive"`
	TopN     int         `json:"top_n" validate:"gte=0,lte=100"`
	Strategy string      `json:"strategy" validate:"omitempty,oneof=collaborative content"`
	Internal string      `json:"-" validate:"omitempty,max=2"`
}

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil {
		t.Fatal("GetValidator() returned nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct(t *testing.T) {
	valid := []seedInput{{Title: "Heat (1995)", Rating: 5}}

	tests := []struct {
		name      string
		input     recommendInput
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{
			name:  "valid",
			input: recommendInput{Seeds: valid, TopN: 10, Strategy: "collaborative"},
		},
		{
			name:      "missing seeds",
			input:     recommendInput{},
			wantField: "seeds",
			wantTag:   "required",
			wantMsg:   "seeds is required",
		},
		{
			name:      "too many seeds",
			input:     recommendInput{Seeds: []seedInput{{Title: "a"}, {Title: "b"}, {Title: "c"}, {Title: "d"}}},
			wantField: "seeds",
			wantTag:   "max",
			wantMsg:   "seeds must have at most 3 items",
		},
		{
			name:      "blank nested title",
			input:     recommendInput{Seeds: []seedInput{{Title: "a"}, {Title: ""}}},
			wantField: "seeds[1].title",
			wantTag:   "required",
			wantMsg:   "seeds[1].title is required",
		},
		{
			name:      "rating above range",
			input:     recommendInput{Seeds: []seedInput{{Title: "a", Rating: 7}}},
			wantField: "seeds[0].rating",
			wantTag:   "lte",
			wantMsg:   "seeds[0].rating must be less than or equal to 5",
		},
		{
			name:      "unknown strategy",
			input:     recommendInput{Seeds: valid, Strategy: "hybrid"},
			wantField: "strategy",
			wantTag:   "oneof",
			wantMsg:   "strategy must be one of: collaborative content",
		},
		{
			name:      "dash json tag falls back to struct name",
			input:     recommendInput{Seeds: valid, Internal: "abc"},
			wantField: "Internal",
			wantTag:   "max",
			wantMsg:   "Internal must have at most 2 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.input)
			if tt.wantTag == "" {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			fields := verr.Fields()
			if len(fields) != 1 {
				t.Fatalf("got %d field errors, want 1: %v", len(fields), verr)
			}
			got := fields[0]
			if got.Field != tt.wantField || got.Tag != tt.wantTag {
				t.Errorf("field/tag = %s/%s, want %s/%s", got.Field, got.Tag, tt.wantField, tt.wantTag)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", got.Message, tt.wantMsg)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		verr := ValidateStruct(&recommendInput{})
		apiErr := verr.ToAPIError()
		if apiErr.Code != ErrorCode {
			t.Errorf("Code = %q, want %q", apiErr.Code, ErrorCode)
		}
		if apiErr.Details["field"] != "seeds" {
			t.Errorf("Details[field] = %v, want seeds", apiErr.Details["field"])
		}
	})

	t.Run("multiple", func(t *testing.T) {
		verr := ValidateStruct(&recommendInput{TopN: 500, Strategy: "x"})
		apiErr := verr.ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok || len(fields) != 3 {
			t.Fatalf("Details[fields] = %v, want 3 entries", apiErr.Details["fields"])
		}
		for _, want := range []string{"seeds is required", "top_n must be less than or equal to 100", "strategy must be one of"} {
			if !strings.Contains(apiErr.Message, want) {
				t.Errorf("Message %q missing %q", apiErr.Message, want)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		apiErr := (&RequestValidationError{}).ToAPIError()
		if apiErr.Message != "Validation failed" {
			t.Errorf("Message = %q", apiErr.Message)
		}
	})
}
