// Package service implements the aggregation core: report submission,
// cluster promotion, nearby queries, and the moderation lifecycle. It
// depends on the store interfaces only; transports and persistence engines
// live under internal/adapter.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks inputs rejected before any mutation. The wrapped
	// message is the human-readable reason handed back to the caller.
	ErrValidation = errors.New("validation failed")

	// ErrEmbargo marks a moderator hide attempted before the report's
	// minimum age. No mutation occurs.
	ErrEmbargo = errors.New("report too recent to hide")
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
