// Package gistapi is the remote gateway: a REST client over the GitHub
// Gist API providing session-cached tree fetches, truncation-aware file
// content retrieval, and batch-splitting file updates (spec.md §4.3).
package gistapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v73/github"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, gistapi.ErrNotFound) to check.
var (
	ErrNoToken           = errors.New("gistapi: no token configured")
	ErrTokenInvalid      = errors.New("gistapi: token invalid")
	ErrInsufficientScope = errors.New("gistapi: token lacks required scope")
	ErrNotFound          = errors.New("gistapi: gist not found")
	ErrBadRequest        = errors.New("gistapi: bad request")
	ErrServerError       = errors.New("gistapi: server error")
)

// GistAPIError wraps a sentinel error with the HTTP status and any detail
// GitHub's error body supplied, for debugging.
type GistAPIError struct {
	StatusCode int
	Detail     string
	Err        error // sentinel, for errors.Is()
}

func (e *GistAPIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("gistapi: HTTP %d: %s", e.StatusCode, e.Detail)
	}

	return fmt.Sprintf("gistapi: HTTP %d", e.StatusCode)
}

func (e *GistAPIError) Unwrap() error {
	return e.Err
}

// classifyResponse maps a go-github response/error pair to a typed
// GistAPIError. Returns nil when resp represents success.
func classifyResponse(resp *github.Response, err error) error {
	if err == nil {
		return nil
	}

	if resp == nil {
		return fmt.Errorf("gistapi: request failed: %w", err)
	}

	sentinel := classifyStatus(resp.StatusCode)
	if sentinel == nil {
		return fmt.Errorf("gistapi: request failed: %w", err)
	}

	detail := err.Error()
	if ghErr, ok := err.(*github.ErrorResponse); ok && ghErr.Message != "" {
		detail = ghErr.Message
	}

	return &GistAPIError{StatusCode: resp.StatusCode, Detail: detail, Err: sentinel}
}

func classifyStatus(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrTokenInvalid
	case http.StatusForbidden:
		return ErrInsufficientScope
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnprocessableEntity:
		return ErrBadRequest
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
func isRetryable(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
