package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("alert not found")
	ErrDomainRule       = errors.New("domain rule violation")
	ErrPriceUnavailable = errors.New("price source unavailable")
	ErrConflict         = errors.New("persistence conflict")
	ErrInconsistent     = errors.New("internal consistency error")
)

var (
	ErrAlreadyTriggered    = fmt.Errorf("%w: alert already triggered", ErrDomainRule)
	ErrNotActive           = fmt.Errorf("%w: alert is not active", ErrDomainRule)
	ErrReactivateTriggered = fmt.Errorf("%w: triggered alert cannot be reactivated", ErrDomainRule)
	ErrDeactivateTriggered = fmt.Errorf("%w: triggered alert cannot be deactivated", ErrDomainRule)
)

// NotFound reports a missing alert id.
func NotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Violation is one broken field rule.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError carries every violated rule of a single request.
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Merge combines validation failures, returning nil when there are none.
// Errors that are not validation failures are returned as-is.
func Merge(errs ...error) error {
	var merged []Violation
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		merged = append(merged, ve.Violations...)
	}
	if len(merged) == 0 {
		return nil
	}
	return &ValidationError{Violations: merged}
}
