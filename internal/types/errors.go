package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrUnknownSource        = errors.New("unknown scraper source")
	ErrMissingAPIKey        = errors.New("api key not configured")
	ErrBlocked              = errors.New("blocked by source (ipcheck=false)")
	ErrNoResponse           = errors.New("no matching response captured")
	ErrNoSession            = errors.New("adapter requires a browser session")
	ErrAllSubmissionsFailed = errors.New("items were produced but none were submitted")
)

// FetchError wraps errors that occur while loading a page or API response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ParseError wraps a row or item that could not be turned into a record.
type ParseError struct {
	Source Source
	Key    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s (key=%q): %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SubmitError wraps a failed backend upsert attempt.
type SubmitError struct {
	Endpoint   string
	Key        string
	StatusCode int
	Err        error
}

func (e *SubmitError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("submit %s for %s (status %d): %v", e.Endpoint, e.Key, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("submit %s for %s: %v", e.Endpoint, e.Key, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur while writing backups or archives.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
