package royalroad

import "fmt"

// FetchError is returned when a page could not be retrieved: a transport
// failure, a timeout or a non-2xx status.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Err.Error())
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError is returned only when the document could not be read as
// markup at all. Missing fields are never a ParseError.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.URL, e.Err.Error())
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
