package ir

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is a failure raised by the identity and regime core.
//
// Categories:
//   - Validation: a required identity field is missing or malformed on write
//   - Traversal bound: an equivalence closure exceeds the configured node cap
//   - Ambiguity: the candidate ordering produced no unique winner (a bug)
//
// A day with no eligible regime is NOT an error; planners report it as a
// gap value.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Field names the offending input for validation errors.
	Field string

	// Owner and Address locate the failure when known.
	Owner   string
	Address ContentAddress

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes core errors.
type ErrorCode string

const (
	// ErrCodeValidation indicates a missing or malformed required input.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeTraversalBound indicates an equivalence closure exceeded its cap.
	ErrCodeTraversalBound ErrorCode = "TRAVERSAL_BOUND"

	// ErrCodeAmbiguity indicates candidate selection had no unique winner.
	ErrCodeAmbiguity ErrorCode = "AMBIGUITY"
)

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)

	var ctx []string
	if e.Field != "" {
		ctx = append(ctx, "field="+e.Field)
	}
	if e.Owner != "" {
		ctx = append(ctx, "owner="+e.Owner)
	}
	if e.Address != "" {
		ctx = append(ctx, "address="+string(e.Address))
	}
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ctx = append(ctx, k+"="+e.Details[k])
		}
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ctx, ", "))
	}
	return b.String()
}

// NewValidationError creates an Error for a missing or malformed field.
func NewValidationError(field, message string) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// NewTraversalBoundError creates an Error for an equivalence closure that
// reached more than maxNodes addresses.
func NewTraversalBoundError(owner string, start ContentAddress, maxNodes int) *Error {
	return &Error{
		Code:    ErrCodeTraversalBound,
		Message: fmt.Sprintf("equivalence closure exceeds %d nodes", maxNodes),
		Owner:   owner,
		Address: start,
		Details: map[string]string{
			"max_nodes": fmt.Sprintf("%d", maxNodes),
		},
	}
}

// NewAmbiguityError creates an Error for a selection tie that the ordering
// could not break. candidates lists the tied options.
func NewAmbiguityError(owner string, day Day, candidates []string) *Error {
	return &Error{
		Code:    ErrCodeAmbiguity,
		Message: "least-aggregation ordering produced no unique winner",
		Owner:   owner,
		Details: map[string]string{
			"day":        string(day),
			"candidates": strings.Join(candidates, " | "),
		},
	}
}

// IsValidationError returns true if err is (or wraps) a validation error.
func IsValidationError(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// IsTraversalBoundError returns true if err is (or wraps) a traversal bound error.
func IsTraversalBoundError(err error) bool {
	return hasCode(err, ErrCodeTraversalBound)
}

// IsAmbiguityError returns true if err is (or wraps) an ambiguity error.
func IsAmbiguityError(err error) bool {
	return hasCode(err, ErrCodeAmbiguity)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
