// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package validation

import (
	"strings"
	"testing"
)

type demandRequest struct {
	ProductID   int `validate:"required,min=1"`
	HorizonDays int `validate:"min=0,max=90"`
}

func TestValidateStructPasses(t *testing.T) {
	req := demandRequest{ProductID: 42, HorizonDays: 30}
	if verr := ValidateStruct(&req); verr != nil {
		t.Errorf("expected nil, got %v", verr)
	}
}

func TestValidateStructSingleError(t *testing.T) {
	req := demandRequest{ProductID: 42, HorizonDays: 120}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}

	errs := verr.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].Field() != "HorizonDays" {
		t.Errorf("Field = %q, want HorizonDays", errs[0].Field())
	}
	if errs[0].Tag() != "max" {
		t.Errorf("Tag = %q, want max", errs[0].Tag())
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "at most 90") {
		t.Errorf("Message = %q, want max translation", apiErr.Message)
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	req := demandRequest{ProductID: 0, HorizonDays: -5}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}

	if len(verr.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	fields, ok := apiErr.Details["fields"]
	if !ok {
		t.Fatal("expected fields in details for multi-error response")
	}
	if len(fields.([]map[string]interface{})) != 2 {
		t.Errorf("expected 2 field entries")
	}
}

func TestTranslateRequired(t *testing.T) {
	type req struct {
		UserID int `validate:"required"`
	}
	verr := ValidateStruct(&req{})
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if got := verr.Error(); !strings.Contains(got, "UserID is required") {
		t.Errorf("Error() = %q, want required translation", got)
	}
}
