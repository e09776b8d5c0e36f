package villa

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an operation failure.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindInternal     Kind = "internal"
)

// Machine-readable problem reasons.
const (
	ReasonBodyRequired  = "body-required"
	ReasonInvalidID     = "invalid-id"
	ReasonIDNotAllowed  = "id-not-allowed"
	ReasonIDMismatch    = "id-mismatch"
	ReasonNameExists    = "name-exists"
	ReasonVillaNotFound = "villa-not-found"
	ReasonInvalidImage  = "invalid-image"
)

// Problem is one violated clause of a request.
type Problem struct {
	Field   string `json:"field,omitempty"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Error is returned by every Service operation that does not succeed.
type Error struct {
	Op       string
	Kind     Kind
	Problems []Problem
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if len(e.Problems) > 0 {
		reasons := make([]string, len(e.Problems))
		for i, p := range e.Problems {
			reasons[i] = p.Reason
			if p.Field != "" {
				reasons[i] = p.Field + ":" + p.Reason
			}
		}
		msg += " (" + strings.Join(reasons, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HasReason reports whether any problem carries reason.
func (e *Error) HasReason(reason string) bool {
	for _, p := range e.Problems {
		if p.Reason == reason {
			return true
		}
	}
	return false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func invalid(op string, problems ...Problem) *Error {
	return &Error{Op: op, Kind: KindInvalidInput, Problems: problems}
}

func notFound(op string, id int64) *Error {
	return &Error{Op: op, Kind: KindNotFound, Err: fmt.Errorf("villa %d not found", id)}
}
