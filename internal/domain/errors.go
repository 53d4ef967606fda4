package domain

import (
	"errors"
	"fmt"
)

// Sentinels matched by the concrete error types through errors.Is.
var (
	ErrFetch  = errors.New("fetch failed")
	ErrDecode = errors.New("decode failed")
	ErrSchema = errors.New("schema mismatch")
)

// FetchError reports an unreachable source or a non-success response.
type FetchError struct {
	Source     string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s: status %d", e.Source, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Source, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// DecodeError reports a body or cell that cannot be read as the expected tabular data.
type DecodeError struct {
	Source string
	Row    int    // 1-based data row, 0 when the whole body is unreadable
	Column string // empty when the whole body is unreadable
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("decode %s: row %d column %q: %v", e.Source, e.Row, e.Column, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// SchemaError reports a required column missing from a decoded table.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %s: missing required column %q", e.Table, e.Column)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }
