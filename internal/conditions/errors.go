package conditions

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrNotFound is returned for a resort id that is not configured.
	ErrNotFound = errors.New("resort not found")

	// ErrUpstreamUnavailable marks any failure talking to a provider.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrAllSourcesUnavailable is returned when every resort in an
	// all-resorts request failed.
	ErrAllSourcesUnavailable = errors.New("all sources unavailable")
)

// MaxSnippetLen bounds the body excerpt kept for diagnostics.
const MaxSnippetLen = 500

// UpstreamError describes a failed provider call. It matches
// ErrUpstreamUnavailable with errors.Is.
type UpstreamError struct {
	Source  string // provider or resort id
	Stage   string // config, feed, points, forecast, ...
	Status  int    // 0 when no response was received
	Snippet string
	Err     error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s: %s stage", e.Source, e.Stage)
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstreamUnavailable}
	}
	return []error{ErrUpstreamUnavailable, e.Err}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
