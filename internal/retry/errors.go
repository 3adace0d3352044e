package retry

import (
	"fmt"
	"time"
)

// Attempt records one failed invocation attempt. Delay is the wait chosen
// before the next attempt; it is zero for the final attempt.
type Attempt struct {
	Number         int
	Delay          time.Duration
	Classification Classification
	Err            error
}

// Error is returned when the Invoker gives up. It wraps the last attempt's
// error and, if the loop was interrupted while waiting, the context error.
type Error struct {
	Category    Category
	Attempts    int
	Permanent   bool
	History     []Attempt
	Err         error
	Interrupted error
}

func (e *Error) Error() string {
	noun := "attempts"
	if e.Attempts == 1 {
		noun = "attempt"
	}
	if e.Interrupted != nil {
		return fmt.Sprintf("%s after %d %s (interrupted: %v): %v", e.Category, e.Attempts, noun, e.Interrupted, e.Err)
	}
	return fmt.Sprintf("%s after %d %s: %v", e.Category, e.Attempts, noun, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Interrupted != nil {
		return []error{e.Err, e.Interrupted}
	}
	return []error{e.Err}
}
