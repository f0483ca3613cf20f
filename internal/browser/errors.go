package browser

import (
	"errors"
	"fmt"
	"time"
)

// ErrOpen reports that the browser or its page could not be started.
var ErrOpen = errors.New("failed to open browser session")

// NavigationError is returned when a page fails to load within its timeout.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to navigate to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// SelectorTimeoutError is returned when a waited-for element never renders.
type SelectorTimeoutError struct {
	Selector string
	Timeout  time.Duration
	Err      error
}

func (e *SelectorTimeoutError) Error() string {
	return fmt.Sprintf("element %q did not appear within %s: %v", e.Selector, e.Timeout, e.Err)
}

func (e *SelectorTimeoutError) Unwrap() error { return e.Err }
