// Package service holds the application services: the swap negotiation
// engine, calendar slot management, and authentication.
package service

import (
	"errors"
	"fmt"

	"slotswap/internal/apperr"
	"slotswap/internal/store"
)

// wrapStore maps store-level failures onto the caller-facing taxonomy.
// A missing record surfaces as NotFound, a failed expected-state guard as
// InvalidState, and anything else as a retryable Unavailable.
func wrapStore(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.New(apperr.KindNotFound, "%s: not found", msg)
	case errors.Is(err, store.ErrStale):
		return apperr.New(apperr.KindInvalidState, "%s: state changed concurrently", msg)
	default:
		return apperr.Unavailable(err, "%s", msg)
	}
}
