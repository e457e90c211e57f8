// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package validation

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/tomtom215/feedgraph/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil {
		t.Fatal("GetValidator() should not return nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct_EdgeWeight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   models.EdgeWeightRequest
		wantTag string
	}{
		{"in range", models.EdgeWeightRequest{Weight: ptr(0.5)}, ""},
		{"zero", models.EdgeWeightRequest{Weight: ptr(0.0)}, ""},
		{"out of range still valid", models.EdgeWeightRequest{Weight: ptr(3.0)}, ""},
		{"missing", models.EdgeWeightRequest{}, "required"},
		{"nan", models.EdgeWeightRequest{Weight: ptr(math.NaN())}, "finite"},
		{"positive infinity", models.EdgeWeightRequest{Weight: ptr(math.Inf(1))}, "finite"},
		{"negative infinity", models.EdgeWeightRequest{Weight: ptr(math.Inf(-1))}, "finite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(&tt.input)
			if tt.wantTag == "" {
				if verr != nil {
					t.Fatalf("unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatalf("expected %s error", tt.wantTag)
			}
			if len(verr.Fields) != 1 || verr.Fields[0].Tag != tt.wantTag {
				t.Fatalf("errors = %v, want one %s error", verr, tt.wantTag)
			}
			if verr.Fields[0].Field != "weight" {
				t.Errorf("Field = %q, want JSON name weight", verr.Fields[0].Field)
			}
		})
	}
}

func TestValidateStruct_CreateItem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     models.CreateItemRequest
		wantField string
	}{
		{"valid", models.CreateItemRequest{ID: "tt01", Year: 2011, Genre: "Drama|Crime"}, ""},
		{"missing id", models.CreateItemRequest{Year: 2011}, "id"},
		{"long id", models.CreateItemRequest{ID: strings.Repeat("x", 257)}, "id"},
		{"negative year", models.CreateItemRequest{ID: "a", Year: -1}, "year"},
		{"year too large", models.CreateItemRequest{ID: "a", Year: 10000}, "year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(&tt.input)
			if tt.wantField == "" {
				if verr != nil {
					t.Fatalf("unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if got := verr.Fields[0].Field; got != tt.wantField {
				t.Errorf("Field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestValidateStruct_UpdateItemPointers(t *testing.T) {
	t.Parallel()

	if verr := ValidateStruct(&models.UpdateItemRequest{}); verr != nil {
		t.Errorf("empty patch should validate: %v", verr)
	}
	if verr := ValidateStruct(&models.UpdateItemRequest{Year: ptr(-5)}); verr == nil {
		t.Error("negative year in patch should fail")
	}
}

type feedPath struct {
	Key string `json:"key" validate:"required,feedid"`
}

func TestFeedIDTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key   string
		valid bool
	}{
		{"TRENDING_MOVIES", true},
		{"feed42", true},
		{"", false},
		{"trending-movies", false},
		{"a b", false},
		{"../etc", false},
		{strings.Repeat("A", 65), false},
	}
	for _, tt := range tests {
		if got := IsFeedID(tt.key); got != tt.valid {
			t.Errorf("IsFeedID(%q) = %v, want %v", tt.key, got, tt.valid)
		}
		verr := ValidateStruct(&feedPath{Key: tt.key})
		if (verr == nil) != tt.valid {
			t.Errorf("ValidateStruct(key=%q) = %v, want valid=%v", tt.key, verr, tt.valid)
		}
	}
}

func TestDetails(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&models.EdgeWeightRequest{})
	if single == nil {
		t.Fatal("expected error")
	}
	if single.Error() != "weight is required" {
		t.Errorf("Error() = %q", single.Error())
	}
	if d := single.Details(); d["field"] != "weight" || d["tag"] != "required" {
		t.Errorf("Details() = %v", d)
	}

	multi := ValidateStruct(&models.CreateItemRequest{Year: -1})
	if multi == nil {
		t.Fatal("expected error")
	}
	fields, ok := multi.Details()["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Fatalf("Details()[fields] = %v, want 2 entries", multi.Details()["fields"])
	}
	if !strings.Contains(multi.Error(), "id is required; ") {
		t.Errorf("Error() = %q", multi.Error())
	}

	if (&RequestValidationError{}).Details() != nil {
		t.Error("empty error has details")
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input interface{}
		want  string
	}{
		{&models.EdgeWeightRequest{Weight: ptr(math.NaN())}, "weight must be a finite number"},
		{&models.CreateItemRequest{ID: "a", Year: 10000}, "year must be less than or equal to 9999"},
		{&models.CreateItemRequest{ID: strings.Repeat("x", 300)}, "id must be at most 256 characters"},
		{&feedPath{Key: "a-b"}, "key must contain only letters, digits and underscores"},
	}
	for _, tt := range tests {
		verr := ValidateStruct(tt.input)
		if verr == nil {
			t.Errorf("%T: expected error", tt.input)
			continue
		}
		if got := verr.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestCheckWeight(t *testing.T) {
	t.Parallel()

	for _, w := range []float64{-1, 0, 1, 7.5, -42} {
		if err := CheckWeight(w); err != nil {
			t.Errorf("CheckWeight(%v) = %v", w, err)
		}
	}
	for _, w := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := CheckWeight(w); !errors.Is(err, ErrInvalidWeight) {
			t.Errorf("CheckWeight(%v) = %v, want ErrInvalidWeight", w, err)
		}
	}
}

func TestWeightWarning(t *testing.T) {
	t.Parallel()

	if w := WeightWarning("a", "b", 1); w != nil {
		t.Errorf("boundary weight should not warn: %v", w)
	}
	if w := WeightWarning("a", "b", -1); w != nil {
		t.Errorf("boundary weight should not warn: %v", w)
	}
	w := WeightWarning("a", "b", 1.5)
	if w == nil {
		t.Fatal("expected warning for 1.5")
	}
	if w.Kind != models.WarningWeightOutOfRange || w.Subject != "a->b" {
		t.Errorf("warning = %+v", w)
	}

	// Reporting never fails the caller.
	ReportWarning(context.Background(), *w)
}
