// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the search and translation stages.
var (
	// ErrEmptyQuery means no clause produced a query segment.
	ErrEmptyQuery = errors.New("empty query")

	// ErrInvalidRequest means a SearchRequest failed validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNetwork is a transport failure that survived the retry budget.
	ErrNetwork = errors.New("network error")

	// ErrAPI is the sentinel behind every APIError.
	ErrAPI = errors.New("api error")

	// ErrParse means the API payload was structurally invalid.
	ErrParse = errors.New("parse error")

	// ErrAuth means a translation credential is missing or was rejected.
	ErrAuth = errors.New("authentication error")

	// ErrFormat means a translation response had an unexpected shape.
	ErrFormat = errors.New("unexpected response format")
)

// APIError is a non-200 response from a remote API.
type APIError struct {
	Source string
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned HTTP %d", e.Source, e.Status)
	}
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Source, e.Status, e.Body)
}

// Unwrap lets errors.Is match ErrAPI.
func (e *APIError) Unwrap() error {
	return ErrAPI
}

// UserMessage maps an error to the message shown to the researcher.
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyQuery):
		return "please enter at least one search term"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid search settings: " + err.Error()
	case errors.As(err, &apiErr):
		return fmt.Sprintf("the server rejected the request (HTTP %d)", apiErr.Status)
	case errors.Is(err, ErrParse):
		return "data format error"
	case errors.Is(err, ErrNetwork):
		return "network error: check your connection and try again"
	case errors.Is(err, ErrAuth):
		return "missing or invalid API key: configure one and retry"
	case errors.Is(err, ErrFormat):
		return "the translation service returned an unexpected response"
	default:
		return err.Error()
	}
}
