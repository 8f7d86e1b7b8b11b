package openapi

import (
	"fmt"
	"strings"
)

// statusRange is an inclusive [Low, High] band of HTTP status codes.
type statusRange struct{ Low, High int }

// ExpectedStatusCodes is a predicate over HTTP status codes built from
// unions of single codes and inclusive ranges. The default, used when an
// ApiCall does not configure one explicitly, is 200..=499 (§4.6).
type ExpectedStatusCodes struct {
	ranges []statusRange
}

// DefaultExpectedStatusCodes returns the 200..=499 default.
func DefaultExpectedStatusCodes() *ExpectedStatusCodes {
	return NewExpectedStatusCodes().WithRange(200, 499)
}

// NewExpectedStatusCodes returns an empty predicate (matches nothing
// until codes or ranges are added).
func NewExpectedStatusCodes() *ExpectedStatusCodes {
	return &ExpectedStatusCodes{}
}

// WithCode adds a single accepted status code.
func (e *ExpectedStatusCodes) WithCode(code int) *ExpectedStatusCodes {
	return e.WithRange(code, code)
}

// WithRange adds an inclusive [low, high] band of accepted status codes.
func (e *ExpectedStatusCodes) WithRange(low, high int) *ExpectedStatusCodes {
	e.ranges = append(e.ranges, statusRange{Low: low, High: high})
	return e
}

// Matches reports whether code falls within any configured range.
func (e *ExpectedStatusCodes) Matches(code int) bool {
	for _, r := range e.ranges {
		if code >= r.Low && code <= r.High {
			return true
		}
	}
	return false
}

func (e *ExpectedStatusCodes) String() string {
	parts := make([]string, len(e.ranges))
	for i, r := range e.ranges {
		if r.Low == r.High {
			parts[i] = fmt.Sprint(r.Low)
		} else {
			parts[i] = fmt.Sprintf("%d-%d", r.Low, r.High)
		}
	}
	return strings.Join(parts, ",")
}
