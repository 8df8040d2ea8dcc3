// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package client is a small Gitee REST API v5 client. Authenticated calls
// take their token from a TokenProvider, normally the OAuth service, so an
// expired token is refreshed before it is used.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/tourze/gitee-oauth/pkg/gitee"
	"github.com/tourze/gitee-oauth/pkg/logger"
	"github.com/tourze/gitee-oauth/pkg/networking"
)

//go:generate mockgen -destination=mocks/mock_token_provider.go -package=mocks -source=client.go TokenProvider

const (
	// DefaultBaseURL is the Gitee API v5 root.
	DefaultBaseURL = "https://gitee.com/api/v5"

	// DefaultPerPage is the page size used when listing repositories.
	DefaultPerPage = 100

	// DefaultMaxRetries bounds how often a failed GET is repeated.
	DefaultMaxRetries = 3

	// DefaultRateLimit and DefaultRateBurst throttle calls locally, well
	// under Gitee's own limits.
	DefaultRateLimit = 10
	DefaultRateBurst = 20

	defaultInitialBackoff = 500 * time.Millisecond

	// maxRetryAfter is the longest Retry-After the client is willing to wait.
	maxRetryAfter = time.Minute
)

// TokenProvider resolves the access token of a user under an application.
// A nil token with a nil error means the user never authorized the app.
type TokenProvider interface {
	GetCurrentAccessToken(ctx context.Context, userID string, app *gitee.Application) (*gitee.AccessToken, error)
}

// Auth selects the identity a call is made with. The zero value makes an
// anonymous call.
type Auth struct {
	UserID      string
	Application *gitee.Application
}

// As returns the Auth of userID under app.
func As(userID string, app *gitee.Application) Auth {
	return Auth{UserID: userID, Application: app}
}

// Anonymous reports whether no user is selected.
func (a Auth) Anonymous() bool {
	return a.UserID == "" || a.Application == nil
}

// Client calls the Gitee REST API.
type Client struct {
	httpClient     networking.HTTPClient
	baseURL        string
	tokens         TokenProvider
	limiter        *rate.Limiter
	maxRetries     uint
	initialBackoff time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c networking.HTTPClient) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		if u != "" {
			cl.baseURL = u
		}
	}
}

// WithRateLimit sets the local request rate and burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(cl *Client) {
		if perSecond > 0 && burst > 0 {
			cl.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithMaxRetries sets how many times a failed GET is retried. Zero disables retries.
func WithMaxRetries(n uint) Option {
	return func(cl *Client) {
		cl.maxRetries = n
	}
}

// WithInitialBackoff sets the first retry delay.
func WithInitialBackoff(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.initialBackoff = d
		}
	}
}

// New creates a Client. tokens may be nil when only anonymous calls are made.
func New(tokens TokenProvider, opts ...Option) *Client {
	c := &Client{
		httpClient:     &http.Client{Timeout: networking.HttpTimeout},
		baseURL:        DefaultBaseURL,
		tokens:         tokens,
		limiter:        rate.NewLimiter(DefaultRateLimit, DefaultRateBurst),
		maxRetries:     DefaultMaxRetries,
		initialBackoff: defaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetUser returns the profile of the authenticated user.
func (c *Client) GetUser(ctx context.Context, auth Auth) (*User, error) {
	user, err := getJSON[User](ctx, c, auth, "/user", nil)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListRepositories returns every repository of the authenticated user, most
// recently pushed first, following pages until a short or empty page.
// params may override sort, direction, per_page and the starting page.
func (c *Client) ListRepositories(ctx context.Context, auth Auth, params url.Values) ([]Repository, error) {
	if auth.Anonymous() {
		return nil, fmt.Errorf("listing repositories requires a user: %w", gitee.ErrNoAccessToken)
	}

	query := url.Values{
		"sort":      {"pushed"},
		"direction": {"desc"},
		"per_page":  {strconv.Itoa(DefaultPerPage)},
		"page":      {"1"},
	}
	for k, v := range params {
		query[k] = v
	}

	perPage, err := strconv.Atoi(query.Get("per_page"))
	if err != nil || perPage <= 0 {
		return nil, fmt.Errorf("invalid per_page %q", query.Get("per_page"))
	}
	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page <= 0 {
		return nil, fmt.Errorf("invalid page %q", query.Get("page"))
	}

	var all []Repository
	for {
		query.Set("page", strconv.Itoa(page))
		batch, err := getJSON[[]Repository](ctx, c, auth, "/user/repos", query)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		if len(batch) != perPage {
			break
		}
		page++
	}

	logger.Debugw("listed gitee repositories", "user_id", auth.UserID, "count", len(all), "pages", page)
	return all, nil
}

// GetRepository returns one repository.
func (c *Client) GetRepository(ctx context.Context, auth Auth, owner, repo string) (*Repository, error) {
	r, err := getJSON[Repository](ctx, c, auth, repoPath(owner, repo, ""), nil)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListBranches returns the branches of a repository.
func (c *Client) ListBranches(ctx context.Context, auth Auth, owner, repo string) ([]Branch, error) {
	return getJSON[[]Branch](ctx, c, auth, repoPath(owner, repo, "/branches"), nil)
}

// ListIssues returns the issues of a repository filtered by params
// (state, labels, page, ...), passed through to Gitee unchanged.
func (c *Client) ListIssues(ctx context.Context, auth Auth, owner, repo string, params url.Values) ([]Issue, error) {
	return getJSON[[]Issue](ctx, c, auth, repoPath(owner, repo, "/issues"), params)
}

// ListPullRequests returns the pull requests of a repository filtered by params.
func (c *Client) ListPullRequests(
	ctx context.Context, auth Auth, owner, repo string, params url.Values,
) ([]PullRequest, error) {
	return getJSON[[]PullRequest](ctx, c, auth, repoPath(owner, repo, "/pulls"), params)
}

func repoPath(owner, repo, suffix string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + suffix
}

// authOptions resolves the bearer token for auth. Anonymous calls carry none.
func (c *Client) authOptions(ctx context.Context, auth Auth) ([]networking.FetchOption, error) {
	if auth.Anonymous() {
		return nil, nil
	}
	if c.tokens == nil {
		return nil, fmt.Errorf("no token provider configured: %w", gitee.ErrNoAccessToken)
	}
	token, err := c.tokens.GetCurrentAccessToken(ctx, auth.UserID, auth.Application)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve access token: %w", err)
	}
	if token == nil {
		return nil, fmt.Errorf("user %s under application %s: %w", auth.UserID, auth.Application.ID, gitee.ErrNoAccessToken)
	}
	return []networking.FetchOption{networking.WithBearerToken(token.AccessToken)}, nil
}

// getJSON performs a rate limited GET with retries on transport errors, 429
// and 5xx. Every failure is returned as a *gitee.APIError.
func getJSON[T any](ctx context.Context, c *Client, auth Auth, path string, query url.Values) (T, error) {
	var zero T

	opts, err := c.authOptions(ctx, auth)
	if err != nil {
		return zero, err
	}

	op := http.MethodGet + " " + path
	endpoint := c.baseURL + path
	requestURL := endpoint
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.initialBackoff
	expBackoff.MaxInterval = 60 * c.initialBackoff
	expBackoff.Reset()

	var lastErr error
	attempts := 0
	operation := func() (T, error) {
		attempts++
		if err := c.limiter.Wait(ctx); err != nil {
			return zero, backoff.Permanent(err)
		}

		data, result, err := networking.FetchJSON[T](ctx, c.httpClient, requestURL, opts...)
		if err == nil {
			return data, nil
		}
		lastErr = err

		var httpErr *networking.HTTPError
		switch {
		case result != nil:
			// The response arrived but could not be decoded.
			return zero, backoff.Permanent(err)
		case errors.As(err, &httpErr):
			if !httpErr.Retryable() || httpErr.RetryAfter > maxRetryAfter {
				return zero, backoff.Permanent(err)
			}
			if httpErr.RetryAfter > 0 {
				return zero, backoff.RetryAfter(int(httpErr.RetryAfter / time.Second))
			}
			return zero, err
		case ctx.Err() != nil:
			return zero, backoff.Permanent(err)
		default:
			return zero, err
		}
	}

	start := time.Now()
	data, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(c.maxRetries+1),
		backoff.WithNotify(func(err error, d time.Duration) {
			logger.Debugf("Retrying gitee api call %s after %v: %v", op, d, err)
		}),
	)
	if err != nil {
		var retryAfter *backoff.RetryAfterError
		if errors.As(err, &retryAfter) && lastErr != nil {
			err = lastErr
		}
		apiErr := &gitee.APIError{Op: op, URL: endpoint, Err: err}
		var httpErr *networking.HTTPError
		if errors.As(err, &httpErr) {
			apiErr.StatusCode = httpErr.StatusCode
		}
		logger.Warnw("gitee api request failed",
			"op", op,
			"user_id", auth.UserID,
			"attempts", attempts,
			"status", apiErr.StatusCode,
			"error", err,
		)
		return zero, apiErr
	}

	logger.Debugw("gitee api request completed",
		"op", op,
		"user_id", auth.UserID,
		"attempts", attempts,
		"duration", time.Since(start),
	)
	return data, nil
}
