package gistapi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/go-github/v73/github"
	"github.com/sethvargo/go-retry"
)

// Per spec.md §9's retry guidance: bounded exponential backoff for
// SERVER_ERROR, same shape the teacher uses for Graph API retries.
const (
	maxRetries    = 5
	baseBackoff   = 1 * time.Second
	maxBackoff    = 60 * time.Second
	jitterPercent = 25
)

// requestBatchMaxBytes is the aggregate PATCH body size cap from spec.md
// §4.3/§6.1. Callers whose batch would exceed it split into sequential
// PATCHes.
const requestBatchMaxBytes = 8_000_000

// TokenSource supplies the bearer token for every request. Defined at the
// consumer per "accept interfaces, return structs".
type TokenSource interface {
	Token() (string, error)
}

// Gateway is a REST client over the GitHub Gist API.
type Gateway struct {
	gh     *github.Client
	token  TokenSource
	logger *slog.Logger
	cache  *sessionCache
}

// New creates a Gateway. httpClient may be nil to use the default client.
func New(token TokenSource, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		gh:     github.NewClient(nil),
		token:  token,
		logger: logger,
		cache:  newSessionCache(),
	}
}

// authedClient returns a *github.Client bearing the current token. The
// token is re-read on every call rather than cached on the Gateway so a
// token rotated mid-process (e.g. `token set`) takes effect immediately.
func (g *Gateway) authedClient() (*github.Client, error) {
	tok, err := g.token.Token()
	if err != nil {
		return nil, fmt.Errorf("gistapi: reading token: %w", err)
	}

	if tok == "" {
		return nil, ErrNoToken
	}

	return g.gh.WithAuthToken(tok), nil
}

// withRetry runs fn with bounded exponential backoff and jitter, retrying
// only on retryable HTTP statuses (5xx, 429) per spec.md §9.
func (g *Gateway) withRetry(ctx context.Context, op string, fn func(ctx context.Context) (*github.Response, error)) (*github.Response, error) {
	backoff := retry.NewExponential(baseBackoff)
	backoff = retry.WithJitterPercent(jitterPercent, backoff)
	backoff = retry.WithCappedDuration(maxBackoff, backoff)
	backoff = retry.WithMaxRetries(maxRetries, backoff)

	var resp *github.Response

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var rErr error
		resp, rErr = fn(ctx)

		if rErr == nil {
			return nil
		}

		if resp != nil && isRetryable(resp.StatusCode) {
			g.logger.Warn("retrying gist API call", "op", op, "status", resp.StatusCode)

			return retry.RetryableError(rErr)
		}

		return rErr
	})

	return resp, err
}
