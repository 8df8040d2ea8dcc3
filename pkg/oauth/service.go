// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/tourze/gitee-oauth/pkg/gitee"
	"github.com/tourze/gitee-oauth/pkg/logger"
	"github.com/tourze/gitee-oauth/pkg/networking"
	"github.com/tourze/gitee-oauth/pkg/storage"
)

//go:generate mockgen -destination=mocks/mock_orchestrator.go -package=mocks -source=service.go Orchestrator

const (
	// DefaultAuthorizeURL is Gitee's authorization endpoint.
	DefaultAuthorizeURL = "https://gitee.com/oauth/authorize"
	// DefaultTokenURL is Gitee's token endpoint.
	DefaultTokenURL = "https://gitee.com/oauth/token"
	// DefaultUserURL is the Gitee API endpoint describing the token owner.
	DefaultUserURL = "https://gitee.com/api/v5/user"

	// StateKeyPrefix prefixes every state key written to the state store.
	StateKeyPrefix = "oauth_state_"
	// StateTTL is how long a stored callback URL template stays valid.
	StateTTL = time.Hour

	// stateBytes is the amount of randomness in a state token (hex encoded
	// to twice as many characters).
	stateBytes = 16
)

// ErrNoRefreshToken is returned by RefreshToken for tokens issued without a
// refresh token.
var ErrNoRefreshToken = errors.New("access token has no refresh token")

// Orchestrator drives the Gitee authorization code flow and serves the
// current access token of a user.
type Orchestrator interface {
	// BuildAuthorizationURL returns the URL that sends the user to Gitee's
	// consent page.
	BuildAuthorizationURL(
		ctx context.Context, app *gitee.Application, redirectURI string, opts ...AuthorizationOption,
	) (string, error)

	// VerifyState consumes the state token and returns the callback URL
	// template stored with it. The boolean is false when the state is
	// unknown or expired.
	VerifyState(ctx context.Context, state string) (string, bool, error)

	// HandleCallback exchanges an authorization code for a token, resolves
	// the Gitee user and persists the new token.
	HandleCallback(ctx context.Context, code string, app *gitee.Application, redirectURI string) (*gitee.AccessToken, error)

	// RefreshToken obtains and persists a new token from old's refresh token.
	RefreshToken(ctx context.Context, old *gitee.AccessToken) (*gitee.AccessToken, error)

	// GetCurrentAccessToken returns the newest token of a user, refreshing
	// it when it has expired. It returns nil, nil when the user has never
	// authorized the application.
	GetCurrentAccessToken(ctx context.Context, userID string, app *gitee.Application) (*gitee.AccessToken, error)
}

// Endpoints are the provider URLs used by the Service. Empty fields fall
// back to the Gitee defaults.
type Endpoints struct {
	AuthorizeURL string
	TokenURL     string
	UserURL      string
}

// DefaultEndpoints returns the public gitee.com endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		AuthorizeURL: DefaultAuthorizeURL,
		TokenURL:     DefaultTokenURL,
		UserURL:      DefaultUserURL,
	}
}

// Service is the Orchestrator backed by a state store, a token store and
// Gitee's OAuth endpoints.
type Service struct {
	states     storage.StateStore
	tokens     storage.TokenStore
	httpClient *http.Client
	endpoints  Endpoints
	now        func() time.Time

	dedupeRefresh bool
	refreshGroup  singleflight.Group
}

var _ Orchestrator = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithHTTPClient sets the client used for every provider call.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithEndpoints overrides provider URLs. Empty fields keep their defaults.
func WithEndpoints(e Endpoints) Option {
	return func(s *Service) {
		if e.AuthorizeURL != "" {
			s.endpoints.AuthorizeURL = e.AuthorizeURL
		}
		if e.TokenURL != "" {
			s.endpoints.TokenURL = e.TokenURL
		}
		if e.UserURL != "" {
			s.endpoints.UserURL = e.UserURL
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRefreshDeduplication makes concurrent refreshes of the same user and
// application within this process share a single provider call.
func WithRefreshDeduplication() Option {
	return func(s *Service) {
		s.dedupeRefresh = true
	}
}

// NewService creates a Service.
func NewService(states storage.StateStore, tokens storage.TokenStore, opts ...Option) *Service {
	s := &Service{
		states:     states,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: networking.HttpTimeout},
		endpoints:  DefaultEndpoints(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthorizationOption configures BuildAuthorizationURL.
type AuthorizationOption func(*authorizationOptions)

type authorizationOptions struct {
	callbackURL *string
}

// WithCallbackURL stores template under the generated state so that the
// callback can redirect to it. An empty template is still stored.
func WithCallbackURL(template string) AuthorizationOption {
	return func(o *authorizationOptions) {
		o.callbackURL = &template
	}
}

// BuildAuthorizationURL implements Orchestrator.
func (s *Service) BuildAuthorizationURL(
	ctx context.Context, app *gitee.Application, redirectURI string, opts ...AuthorizationOption,
) (string, error) {
	if err := app.Validate(); err != nil {
		return "", err
	}

	authOpts := &authorizationOptions{}
	for _, opt := range opts {
		opt(authOpts)
	}

	state, err := generateState()
	if err != nil {
		return "", err
	}

	if authOpts.callbackURL != nil {
		if err := s.states.SetState(ctx, StateKeyPrefix+state, *authOpts.callbackURL, StateTTL); err != nil {
			return "", fmt.Errorf("failed to store oauth state: %w", err)
		}
	}

	logger.Debugw("building authorization url",
		"application_id", app.ID,
		"scopes", app.ScopeString(),
		"has_callback_url", authOpts.callbackURL != nil,
	)

	return s.oauth2Config(app, redirectURI).AuthCodeURL(state), nil
}

// VerifyState implements Orchestrator. The key is removed whether or not it
// was found, so a state can be presented only once.
func (s *Service) VerifyState(ctx context.Context, state string) (string, bool, error) {
	key := StateKeyPrefix + state

	if taker, ok := s.states.(storage.StateTaker); ok {
		value, found, err := taker.TakeState(ctx, key)
		if err != nil {
			return "", false, fmt.Errorf("failed to consume oauth state: %w", err)
		}
		return value, found, nil
	}

	value, found, err := s.states.GetState(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("failed to read oauth state: %w", err)
	}
	if err := s.states.DeleteState(ctx, key); err != nil {
		return "", false, fmt.Errorf("failed to delete oauth state: %w", err)
	}
	return value, found, nil
}

// HandleCallback implements Orchestrator. Nothing is persisted unless both
// the code exchange and the user lookup succeed.
func (s *Service) HandleCallback(
	ctx context.Context, code string, app *gitee.Application, redirectURI string,
) (*gitee.AccessToken, error) {
	if err := app.Validate(); err != nil {
		return nil, err
	}

	tok, err := s.oauth2Config(app, redirectURI).Exchange(s.clientContext(ctx), code)
	if err != nil {
		return nil, s.tokenEndpointError("authorization code exchange", err)
	}

	login, err := s.fetchLogin(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}

	token := &gitee.AccessToken{
		ApplicationID: app.ID,
		Application:   app,
		UserID:        login,
		AccessToken:   tok.AccessToken,
		RefreshToken:  tok.RefreshToken,
		ExpiresAt:     s.expiry(tok),
		GiteeUsername: login,
		CreatedAt:     s.now(),
	}
	if err := s.tokens.SaveToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save access token: %w", err)
	}

	logger.Infow("gitee authorization completed",
		"application_id", app.ID,
		"gitee_username", login,
		"has_refresh_token", token.HasRefreshToken(),
		"has_expiry", token.ExpiresAt != nil,
	)

	return token, nil
}

// RefreshToken implements Orchestrator. The old record is left untouched.
func (s *Service) RefreshToken(ctx context.Context, old *gitee.AccessToken) (*gitee.AccessToken, error) {
	if old == nil {
		return nil, errors.New("access token is required")
	}
	if !old.HasRefreshToken() {
		return nil, ErrNoRefreshToken
	}
	app := old.Application
	if app == nil {
		return nil, fmt.Errorf("access token %s has no application loaded", old.ID)
	}

	src := s.oauth2Config(app, "").TokenSource(s.clientContext(ctx), &oauth2.Token{RefreshToken: old.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, s.tokenEndpointError("refresh token", err)
	}

	token := &gitee.AccessToken{
		ApplicationID: app.ID,
		Application:   app,
		UserID:        old.UserID,
		AccessToken:   tok.AccessToken,
		RefreshToken:  tok.RefreshToken,
		ExpiresAt:     s.expiry(tok),
		GiteeUsername: old.GiteeUsername,
		CreatedAt:     s.now(),
	}
	if err := s.tokens.SaveToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save refreshed access token: %w", err)
	}

	logger.Infow("gitee access token refreshed",
		"application_id", app.ID,
		"user_id", old.UserID,
		"previous_token_id", old.ID,
	)

	return token, nil
}

// GetCurrentAccessToken implements Orchestrator.
func (s *Service) GetCurrentAccessToken(
	ctx context.Context, userID string, app *gitee.Application,
) (*gitee.AccessToken, error) {
	if app == nil {
		return nil, errors.New("application is required")
	}

	tokens, err := s.tokens.ListTokens(ctx, userID, app.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list access tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	latest := tokens[0]
	latest.Application = app

	if !latest.NeedsRefresh(s.now()) {
		return latest, nil
	}

	logger.Debugw("access token expired, refreshing",
		"application_id", app.ID,
		"user_id", userID,
		"token_id", latest.ID,
	)

	if !s.dedupeRefresh {
		return s.RefreshToken(ctx, latest)
	}

	v, err, shared := s.refreshGroup.Do(userID+"\x00"+app.ID, func() (any, error) {
		return s.RefreshToken(ctx, latest)
	})
	if err != nil {
		return nil, err
	}
	token := v.(*gitee.AccessToken)
	if shared {
		return token.Clone(), nil
	}
	return token, nil
}

// oauth2Config builds the per-application client configuration. Client
// credentials travel in the request body, which is what Gitee expects.
func (s *Service) oauth2Config(app *gitee.Application, redirectURI string) *oauth2.Config {
	scopes := make([]string, 0, len(app.Scopes))
	for _, scope := range app.Scopes {
		scopes = append(scopes, scope.String())
	}
	return &oauth2.Config{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   s.endpoints.AuthorizeURL,
			TokenURL:  s.endpoints.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (s *Service) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// expiry converts the relative expires_in of a token response to an
// absolute time on the service clock.
func (s *Service) expiry(tok *oauth2.Token) *time.Time {
	if tok.ExpiresIn > 0 {
		exp := s.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
		return &exp
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry
		return &exp
	}
	return nil
}

func (s *Service) tokenEndpointError(op string, err error) error {
	apiErr := &gitee.APIError{Op: op, URL: s.endpoints.TokenURL, Err: err}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		apiErr.StatusCode = retrieveErr.Response.StatusCode
	}
	return apiErr
}

func generateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
