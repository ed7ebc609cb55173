package validation

import (
	"strings"

	"timesheet/internal/domain"
)

const (
	maxCodeLength = 32
	maxNameLength = 255
)

// CatalogValidator checks projects and activities before they are stored
type CatalogValidator struct {
	validator *Validator
}

// NewCatalogValidator creates a new catalog validator
func NewCatalogValidator() *CatalogValidator {
	return &CatalogValidator{validator: NewValidator()}
}

// ValidateProject validates a project for creation
func (cv *CatalogValidator) ValidateProject(p domain.Project) error {
	validationError := NewValidationError()
	cv.validateCodeAndName(validationError, p.Code, p.Name)

	switch p.Leave {
	case "", domain.LeaveNone, domain.LeavePaid, domain.LeaveUnpaid:
	default:
		validationError.AddInvalidValueError("leave", p.Leave, "must be none, paid or unpaid")
	}
	if p.IsLeave() && p.Billable {
		validationError.AddInvalidValueError("billable", p.Billable, "must be off for leave projects")
	}
	seen := make(map[int64]bool, len(p.Activities))
	for _, id := range p.Activities {
		if !cv.validator.IsValidID(id) || seen[id] {
			validationError.AddInvalidValueError("activities", p.Activities, "must list distinct activity IDs")
			break
		}
		seen[id] = true
	}

	if validationError.HasErrors() {
		return validationError
	}
	return nil
}

// ValidateActivity validates an activity for creation
func (cv *CatalogValidator) ValidateActivity(a domain.Activity) error {
	validationError := NewValidationError()
	cv.validateCodeAndName(validationError, a.Code, a.Name)

	if validationError.HasErrors() {
		return validationError
	}
	return nil
}

func (cv *CatalogValidator) validateCodeAndName(ve *ValidationError, code, name string) {
	code = strings.TrimSpace(code)
	if code == "" {
		ve.AddRequiredError("code")
	} else if !cv.validator.IsValidStringLength(code, 1, maxCodeLength) {
		ve.AddInvalidLengthError("code", code, 1, maxCodeLength)
	} else if !cv.validator.IsValidCode(code) {
		ve.AddInvalidFormatError("code", code, "lowercase letters, digits, '-' or '_'")
	}

	if !cv.validator.IsNonEmptyString(name) {
		ve.AddRequiredError("name")
	} else if !cv.validator.IsValidStringLength(name, 1, maxNameLength) {
		ve.AddInvalidLengthError("name", name, 1, maxNameLength)
	}
}
