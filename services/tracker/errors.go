package tracker

import (
	"fmt"

	"storywatch-backend/lib/scrapers/royalroad"
)

type (
	FetchError = royalroad.FetchError
	ParseError = royalroad.ParseError
)

// StorageError wraps a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %s", e.Op, e.Err.Error())
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConfigError is returned when a persisted state document cannot be
// decoded.
type ConfigError struct {
	Document string
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("malformed state document %q: %s", e.Document, e.Err.Error())
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
