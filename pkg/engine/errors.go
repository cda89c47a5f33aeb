package engine

import (
	"errors"
	"strings"

	"holdemtable-server/pkg/game/store"
)

// ErrRecordBusy is returned when the record lock is held by another owner.
// It is retryable; the retry wrapper re-acquires against fresh state.
var ErrRecordBusy = errors.New("game is currently being processed")

// ErrChipConservation indicates chip totals stopped balancing. This is a
// logic defect, never repaired automatically; the hand's automatic
// progression halts.
var ErrChipConservation = errors.New("chip totals do not balance")

// ErrNoStepDefinition indicates the record points at a stage/step pair the
// static definition doesn't know about
var ErrNoStepDefinition = errors.New("no step definition for current stage")

// IsRetryable returns true for contention errors that the retry wrapper may
// transparently re-attempt. Validation and internal-consistency errors are
// never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRecordBusy) ||
		errors.Is(err, store.ErrVersionConflict) ||
		errors.Is(err, store.ErrConditionFailed)
}

// IsInternal returns true for internal-consistency errors that must halt the
// hand rather than surface to a player
func IsInternal(err error) bool {
	return errors.Is(err, ErrChipConservation) || errors.Is(err, ErrNoStepDefinition)
}

// ValidationError rejects a player action before any mutation happens. It
// carries every violated condition, not just the first, for diagnostics.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Reasons, "; ")
}

func newValidationError(reasons ...string) *ValidationError {
	return &ValidationError{Reasons: reasons}
}

// IsValidation returns true if the error is a player-facing validation error
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
