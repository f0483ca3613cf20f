package export

import "fmt"

// ContentNotFoundError is returned when the page has no main content container.
type ContentNotFoundError struct {
	Selector string
	URL      string
}

func (e *ContentNotFoundError) Error() string {
	return fmt.Sprintf("content element %s not found on %s", e.Selector, e.URL)
}

// UnsupportedFormatError is returned for unknown format identifiers.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format: %s", e.Format)
}
