package validation

import (
	"strings"
	"testing"

	"timesheet/internal/domain"
)

func TestCatalogValidator_ValidateProject(t *testing.T) {
	validator := NewCatalogValidator()

	tests := []struct {
		name        string
		project     domain.Project
		expectField string
	}{
		{"Valid project", domain.Project{Code: "acme", Name: "Acme Ltd", Billable: true}, ""},
		{"Valid leave project", domain.Project{Code: "pto", Name: "Paid time off", Leave: domain.LeavePaid}, ""},
		{"Missing code", domain.Project{Name: "Acme"}, "code"},
		{"Upper case code", domain.Project{Code: "ACME", Name: "Acme"}, "code"},
		{"Code too long", domain.Project{Code: strings.Repeat("a", 33), Name: "Acme"}, "code"},
		{"Missing name", domain.Project{Code: "acme", Name: "  "}, "name"},
		{"Unknown leave kind", domain.Project{Code: "sick", Name: "Sick", Leave: "sometimes"}, "leave"},
		{"Billable leave", domain.Project{Code: "pto", Name: "PTO", Leave: domain.LeaveUnpaid, Billable: true}, "billable"},
		{"Restricted activities", domain.Project{Code: "ops", Name: "Ops", Activities: []int64{1, 2}}, ""},
		{"Repeated activity", domain.Project{Code: "ops", Name: "Ops", Activities: []int64{1, 1}}, "activities"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateProject(tt.project)

			if tt.expectField == "" {
				if err != nil {
					t.Errorf("ValidateProject(%+v) expected no error but got %v", tt.project, err)
				}
				return
			}

			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("ValidateProject(%+v) expected *ValidationError, got %v", tt.project, err)
			}
			if !hasField(ve, tt.expectField) {
				t.Errorf("Expected an error on field %s, got %v", tt.expectField, ve)
			}
		})
	}
}

func TestCatalogValidator_ValidateActivity(t *testing.T) {
	validator := NewCatalogValidator()

	if err := validator.ValidateActivity(domain.Activity{Code: "dev", Name: "Development", Billable: true}); err != nil {
		t.Errorf("Expected valid activity, got %v", err)
	}

	err := validator.ValidateActivity(domain.Activity{Code: "", Name: ""})
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Expected *ValidationError, got %v", err)
	}
	if len(ve.Errors) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(ve.Errors))
	}
}

func hasField(ve *ValidationError, field string) bool {
	for _, fe := range ve.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}
