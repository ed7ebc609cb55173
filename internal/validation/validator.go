package validation

import (
	"regexp"
	"strings"
	"time"
)

// DefaultMaxDuration is the longest span a single entry may cover
const DefaultMaxDuration = 12 * time.Hour

var codePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]*$`)

// Validator provides common validation utilities
type Validator struct {
	maxDuration time.Duration
}

// NewValidator creates a validator using the default maximum duration
func NewValidator() *Validator {
	return NewValidatorWithMaxDuration(DefaultMaxDuration)
}

// NewValidatorWithMaxDuration creates a validator with a configured maximum duration
func NewValidatorWithMaxDuration(maxDuration time.Duration) *Validator {
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	return &Validator{maxDuration: maxDuration}
}

// MaxDuration returns the configured maximum entry duration
func (v *Validator) MaxDuration() time.Duration {
	return v.maxDuration
}

// IsNonEmptyString checks if a string is not empty after trimming whitespace
func (v *Validator) IsNonEmptyString(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidStringLength checks if a string length is within the specified range
func (v *Validator) IsValidStringLength(s string, min, max int) bool {
	length := len(strings.TrimSpace(s))
	return length >= min && length <= max
}

// IsValidCode checks a short lowercase identifier such as a project code
func (v *Validator) IsValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// IsValidID checks if an ID is positive
func (v *Validator) IsValidID(id int64) bool {
	return id > 0
}

// IsValidTimeRange checks if start time is strictly before end time
func (v *Validator) IsValidTimeRange(startTime time.Time, endTime *time.Time) bool {
	if endTime == nil {
		return true
	}
	return startTime.Before(*endTime)
}

// IsWithinMaxDuration checks a duration against the configured maximum
func (v *Validator) IsWithinMaxDuration(d time.Duration) bool {
	return d <= v.maxDuration
}
