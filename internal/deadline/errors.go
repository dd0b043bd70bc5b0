package deadline

import (
	"errors"
	"fmt"

	"github.com/username/legal-deadline-engine/internal/calendar"
)

// Invalid input: the call can never succeed with these arguments.
var (
	ErrInvalidInput = calendar.ErrInvalidInput
	ErrNegativeDays = calendar.ErrNegativeDays
	ErrInvalidDate  = calendar.ErrInvalidDate
	ErrTooManyDays  = calendar.ErrTooManyDays
	ErrUnknownType  = fmt.Errorf("%w: unknown deadline type", ErrInvalidInput)
	ErrInvalidDays  = fmt.Errorf("%w: business-day count must be positive", ErrInvalidInput)
)

// Precondition violations: the deadline is not in a state that allows the transition.
var (
	ErrPrecondition       = errors.New("precondition violated")
	ErrAlreadySuspended   = fmt.Errorf("%w: deadline is already suspended", ErrPrecondition)
	ErrNotSuspended       = fmt.Errorf("%w: deadline is not suspended", ErrPrecondition)
	ErrNoOpenSuspension   = fmt.Errorf("%w: no open suspension", ErrPrecondition)
	ErrSuspensionMismatch = fmt.Errorf("%w: suspension belongs to another deadline", ErrPrecondition)
	ErrDeadlineClosed     = fmt.Errorf("%w: deadline is already fulfilled", ErrPrecondition)
)

// IsInvalidInput reports whether err is an argument error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsPrecondition reports whether err is a rejected state transition
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}
