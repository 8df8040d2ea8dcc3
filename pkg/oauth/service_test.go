// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tourze/gitee-oauth/pkg/gitee"
	"github.com/tourze/gitee-oauth/pkg/networking"
	"github.com/tourze/gitee-oauth/pkg/storage"
	"github.com/tourze/gitee-oauth/pkg/storage/mocks"
)

var (
	testNow      = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	statePattern = regexp.MustCompile(`^[0-9a-f]{32}$`)
)

// testTokenResponse is the JSON body of the mock token endpoint.
type testTokenResponse struct {
	AccessToken  string `json:"access_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// mockGiteeServer serves the token and user endpoints of a fake Gitee.
type mockGiteeServer struct {
	*httptest.Server

	tokenHandler func(w http.ResponseWriter, r *http.Request)
	userHandler  func(w http.ResponseWriter, r *http.Request)

	tokenCalls atomic.Int32
	userCalls  atomic.Int32

	mu        sync.Mutex
	calls     []string
	tokenForm url.Values
	userAuth  string
}

func newMockGiteeServer(t *testing.T) *mockGiteeServer {
	t.Helper()

	mock := &mockGiteeServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", mock.handleToken)
	mux.HandleFunc("/api/v5/user", mock.handleUser)
	mock.Server = httptest.NewServer(mux)
	t.Cleanup(mock.Close)
	return mock
}

func (m *mockGiteeServer) handleToken(w http.ResponseWriter, r *http.Request) {
	m.tokenCalls.Add(1)
	_ = r.ParseForm()
	m.mu.Lock()
	m.calls = append(m.calls, "token")
	m.tokenForm = r.PostForm
	m.mu.Unlock()

	if m.tokenHandler != nil {
		m.tokenHandler(w, r)
		return
	}
	writeTokenResponse(w, testTokenResponse{
		AccessToken:  "gitee-access-token",
		TokenType:    "bearer",
		RefreshToken: "gitee-refresh-token",
		ExpiresIn:    86400,
		Scope:        "user_info projects",
	})
}

func (m *mockGiteeServer) handleUser(w http.ResponseWriter, r *http.Request) {
	m.userCalls.Add(1)
	m.mu.Lock()
	m.calls = append(m.calls, "user")
	m.userAuth = r.Header.Get("Authorization")
	m.mu.Unlock()

	if m.userHandler != nil {
		m.userHandler(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"id":1,"login":"octocat","name":"Octo Cat"}`))
}

func (m *mockGiteeServer) endpoints() Endpoints {
	return Endpoints{
		AuthorizeURL: m.URL + "/oauth/authorize",
		TokenURL:     m.URL + "/oauth/token",
		UserURL:      m.URL + "/api/v5/user",
	}
}

func (m *mockGiteeServer) form() url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenForm
}

func (m *mockGiteeServer) authorization() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userAuth
}

func (m *mockGiteeServer) callOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func writeTokenResponse(w http.ResponseWriter, resp testTokenResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func testApplication() *gitee.Application {
	return &gitee.Application{
		ID:           "app-1",
		Name:         "Demo",
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		Scopes:       []gitee.Scope{gitee.ScopeUser, gitee.ScopeProjects},
	}
}

func newMemoryStore(t *testing.T, now func() time.Time) *storage.MemoryStorage {
	t.Helper()
	store := storage.NewMemoryStorage(storage.WithMemoryClock(now))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestService(t *testing.T, mock *mockGiteeServer, store *storage.MemoryStorage, opts ...Option) *Service {
	t.Helper()
	base := []Option{
		WithHTTPClient(mock.Client()),
		WithEndpoints(mock.endpoints()),
		WithClock(func() time.Time { return testNow }),
	}
	return NewService(store, store, append(base, opts...)...)
}

func TestNewService_Defaults(t *testing.T) {
	t.Parallel()

	s := NewService(nil, nil)

	assert.Equal(t, DefaultEndpoints(), s.endpoints)
	assert.Equal(t, networking.HttpTimeout, s.httpClient.Timeout)
	assert.False(t, s.dedupeRefresh)

	s = NewService(nil, nil, WithEndpoints(Endpoints{TokenURL: "https://gitee.example/oauth/token"}))
	assert.Equal(t, DefaultAuthorizeURL, s.endpoints.AuthorizeURL)
	assert.Equal(t, "https://gitee.example/oauth/token", s.endpoints.TokenURL)
	assert.Equal(t, DefaultUserURL, s.endpoints.UserURL)
}

func TestBuildAuthorizationURL(t *testing.T) {
	t.Parallel()

	const redirectURI = "https://app.example.com/gitee/oauth/callback/app-1"

	t.Run("without template stores nothing", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		states := mocks.NewMockStateStore(ctrl)
		tokens := mocks.NewMockTokenStore(ctrl)

		s := NewService(states, tokens)
		authURL, err := s.BuildAuthorizationURL(context.Background(), testApplication(), redirectURI)
		require.NoError(t, err)

		parsed, err := url.Parse(authURL)
		require.NoError(t, err)
		assert.Equal(t, "https", parsed.Scheme)
		assert.Equal(t, "gitee.com", parsed.Host)
		assert.Equal(t, "/oauth/authorize", parsed.Path)

		q := parsed.Query()
		assert.Equal(t, "client-123", q.Get("client_id"))
		assert.Equal(t, redirectURI, q.Get("redirect_uri"))
		assert.Equal(t, "code", q.Get("response_type"))
		assert.Equal(t, "user_info projects", q.Get("scope"))
		assert.Regexp(t, statePattern, q.Get("state"))
		assert.Contains(t, parsed.RawQuery, "scope=user_info+projects")
		assert.NotContains(t, authURL, "secret-456")
	})

	t.Run("template stored under the generated state", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		states := mocks.NewMockStateStore(ctrl)

		const template = "https://front.example.com/done?token={accessToken}"
		var storedKey string
		states.EXPECT().
			SetState(gomock.Any(), gomock.Any(), template, StateTTL).
			DoAndReturn(func(_ context.Context, key, _ string, _ time.Duration) error {
				storedKey = key
				return nil
			})

		s := NewService(states, mocks.NewMockTokenStore(ctrl))
		authURL, err := s.BuildAuthorizationURL(context.Background(), testApplication(), redirectURI, WithCallbackURL(template))
		require.NoError(t, err)

		parsed, err := url.Parse(authURL)
		require.NoError(t, err)
		state := parsed.Query().Get("state")
		assert.Equal(t, StateKeyPrefix+state, storedKey)
		assert.Equal(t, 3600*time.Second, StateTTL)
	})

	t.Run("empty template is still stored", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		states := mocks.NewMockStateStore(ctrl)
		states.EXPECT().SetState(gomock.Any(), gomock.Any(), "", StateTTL).Return(nil)

		s := NewService(states, mocks.NewMockTokenStore(ctrl))
		_, err := s.BuildAuthorizationURL(context.Background(), testApplication(), redirectURI, WithCallbackURL(""))
		require.NoError(t, err)
	})

	t.Run("state store failure", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		states := mocks.NewMockStateStore(ctrl)
		states.EXPECT().SetState(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

		s := NewService(states, mocks.NewMockTokenStore(ctrl))
		_, err := s.BuildAuthorizationURL(context.Background(), testApplication(), redirectURI, WithCallbackURL("x"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis down")
	})

	t.Run("invalid application", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)

		app := testApplication()
		app.Scopes = nil
		s := NewService(mocks.NewMockStateStore(ctrl), mocks.NewMockTokenStore(ctrl))
		_, err := s.BuildAuthorizationURL(context.Background(), app, redirectURI, WithCallbackURL("x"))

		var validationErr *gitee.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "scopes", validationErr.Field)
	})

	t.Run("states are unique", func(t *testing.T) {
		t.Parallel()
		s := NewService(nil, nil)

		seen := make(map[string]struct{})
		for range 200 {
			authURL, err := s.BuildAuthorizationURL(context.Background(), testApplication(), redirectURI)
			require.NoError(t, err)
			parsed, err := url.Parse(authURL)
			require.NoError(t, err)
			state := parsed.Query().Get("state")
			require.Regexp(t, statePattern, state)
			_, dup := seen[state]
			require.False(t, dup, "duplicate state %s", state)
			seen[state] = struct{}{}
		}
	})
}

func TestVerifyState(t *testing.T) {
	t.Parallel()

	t.Run("round trip through memory store is single use", func(t *testing.T) {
		t.Parallel()
		store := newMemoryStore(t, func() time.Time { return testNow })
		s := NewService(store, store, WithClock(func() time.Time { return testNow }))

		authURL, err := s.BuildAuthorizationURL(context.Background(), testApplication(), "https://cb", WithCallbackURL("https://front/{userId}"))
		require.NoError(t, err)
		parsed, err := url.Parse(authURL)
		require.NoError(t, err)
		state := parsed.Query().Get("state")

		tpl, found, err := s.VerifyState(context.Background(), state)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "https://front/{userId}", tpl)

		_, found, err = s.VerifyState(context.Background(), state)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("unknown state", func(t *testing.T) {
		t.Parallel()
		store := newMemoryStore(t, time.Now)
		s := NewService(store, store)

		tpl, found, err := s.VerifyState(context.Background(), "0123456789abcdef0123456789abcdef")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, tpl)
	})

	t.Run("expired state", func(t *testing.T) {
		t.Parallel()
		var mu sync.Mutex
		now := testNow
		clock := func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}
		store := newMemoryStore(t, clock)
		s := NewService(store, store)

		authURL, err := s.BuildAuthorizationURL(context.Background(), testApplication(), "https://cb", WithCallbackURL("tpl"))
		require.NoError(t, err)
		parsed, err := url.Parse(authURL)
		require.NoError(t, err)

		mu.Lock()
		now = now.Add(StateTTL + time.Second)
		mu.Unlock()

		_, found, err := s.VerifyState(context.Background(), parsed.Query().Get("state"))
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("concurrent verification has one winner", func(t *testing.T) {
		t.Parallel()
		store := newMemoryStore(t, time.Now)
		s := NewService(store, store)
		require.NoError(t, store.SetState(context.Background(), StateKeyPrefix+"race", "tpl", StateTTL))

		var wins atomic.Int32
		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, found, err := s.VerifyState(context.Background(), "race")
				assert.NoError(t, err)
				if found {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("plain store gets then always deletes", func(t *testing.T) {
		t.Parallel()

		for _, found := range []bool{true, false} {
			ctrl := gomock.NewController(t)
			states := mocks.NewMockStateStore(ctrl)
			value := ""
			if found {
				value = "tpl"
			}
			gomock.InOrder(
				states.EXPECT().GetState(gomock.Any(), StateKeyPrefix+"abc").Return(value, found, nil),
				states.EXPECT().DeleteState(gomock.Any(), StateKeyPrefix+"abc").Return(nil),
			)

			s := NewService(states, mocks.NewMockTokenStore(ctrl))
			tpl, ok, err := s.VerifyState(context.Background(), "abc")
			require.NoError(t, err)
			assert.Equal(t, found, ok)
			assert.Equal(t, value, tpl)
		}
	})

	t.Run("plain store delete failure", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		states := mocks.NewMockStateStore(ctrl)
		states.EXPECT().GetState(gomock.Any(), gomock.Any()).Return("tpl", true, nil)
		states.EXPECT().DeleteState(gomock.Any(), gomock.Any()).Return(errors.New("boom"))

		s := NewService(states, mocks.NewMockTokenStore(ctrl))
		_, _, err := s.VerifyState(context.Background(), "abc")
		require.Error(t, err)
	})

	t.Run("atomic take is preferred", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		taker := mocks.NewMockStateTaker(ctrl)
		taker.EXPECT().TakeState(gomock.Any(), StateKeyPrefix+"abc").Return("tpl", true, nil)

		states := struct {
			*mocks.MockStateStore
			*mocks.MockStateTaker
		}{mocks.NewMockStateStore(ctrl), taker}

		s := NewService(states, mocks.NewMockTokenStore(ctrl))
		tpl, found, err := s.VerifyState(context.Background(), "abc")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "tpl", tpl)
	})
}

func TestHandleCallback(t *testing.T) {
	t.Parallel()

	const redirectURI = "https://app.example.com/gitee/oauth/callback/app-1"

	t.Run("success persists token for the gitee login", func(t *testing.T) {
		t.Parallel()
		mock := newMockGiteeServer(t)
		store := newMemoryStore(t, func() time.Time { return testNow })
		s := newTestService(t, mock, store)
		app := testApplication()

		token, err := s.HandleCallback(context.Background(), "auth-code", app, redirectURI)
		require.NoError(t, err)

		assert.NotEmpty(t, token.ID)
		assert.Equal(t, "app-1", token.ApplicationID)
		assert.Same(t, app, token.Application)
		assert.Equal(t, "octocat", token.UserID)
		assert.Equal(t, "octocat", token.GiteeUsername)
		assert.Equal(t, "gitee-access-token", token.AccessToken)
		assert.Equal(t, "gitee-refresh-token", token.RefreshToken)
		require.NotNil(t, token.ExpiresAt)
		assert.Equal(t, testNow.Add(86400*time.Second), *token.ExpiresAt)
		assert.Equal(t, testNow, token.CreatedAt)

		form := mock.form()
		assert.Equal(t, "authorization_code", form.Get("grant_type"))
		assert.Equal(t, "auth-code", form.Get("code"))
		assert.Equal(t, "client-123", form.Get("client_id"))
		assert.Equal(t, "secret-456", form.Get("client_secret"))
		assert.Equal(t, redirectURI, form.Get("redirect_uri"))

		assert.Equal(t, "Bearer gitee-access-token", mock.authorization())
		assert.Equal(t, []string{"token", "user"}, mock.callOrder())

		stored, err := store.ListTokens(context.Background(), "octocat", "app-1")
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, token.ID, stored[0].ID)
	})

	t.Run("response without expiry or refresh token", func(t *testing.T) {
		t.Parallel()
		mock := newMockGiteeServer(t)
		mock.tokenHandler = func(w http.ResponseWriter, _ *http.Request) {
			writeTokenResponse(w, testTokenResponse{AccessToken: "only-access", TokenType: "bearer"})
		}
		store := newMemoryStore(t, func() time.Time { return testNow })
		s := newTestService(t, mock, store)

		token, err := s.HandleCallback(context.Background(), "code", testApplication(), redirectURI)
		require.NoError(t, err)
		assert.Nil(t, token.ExpiresAt)
		assert.Empty(t, token.RefreshToken)
		assert.False(t, token.HasRefreshToken())
	})

	userInfoFailures := []struct {
		name string
		body string
	}{
		{name: "login missing", body: `{"id":1,"name":"Octo"}`},
		{name: "login empty", body: `{"login":""}`},
		{name: "login null", body: `{"login":null}`},
	}
	for _, tc := range userInfoFailures {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mock := newMockGiteeServer(t)
			mock.userHandler = func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}
			store := newMemoryStore(t, func() time.Time { return testNow })
			s := newTestService(t, mock, store)

			token, err := s.HandleCallback(context.Background(), "code", testApplication(), redirectURI)
			require.ErrorIs(t, err, gitee.ErrUserInfo)
			assert.False(t, gitee.IsAPIError(err))
			assert.Nil(t, token)
			assertNoTokens(t, store)
		})
	}

	apiFailures := []struct {
		name         string
		tokenHandler func(w http.ResponseWriter, r *http.Request)
		userHandler  func(w http.ResponseWriter, r *http.Request)
		wantStatus   int
		wantUserCall bool
	}{
		{
			name: "token endpoint rejects code",
			tokenHandler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"code expired"}`))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "token endpoint returns malformed json",
			tokenHandler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"access_token":`))
			},
		},
		{
			name: "token endpoint omits access token",
			tokenHandler: func(w http.ResponseWriter, _ *http.Request) {
				writeTokenResponse(w, testTokenResponse{TokenType: "bearer"})
			},
		},
		{
			name: "user endpoint unauthorized",
			userHandler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"401 Unauthorized: Access token is expired"}`))
			},
			wantStatus:   http.StatusUnauthorized,
			wantUserCall: true,
		},
		{
			name: "user endpoint returns malformed json",
			userHandler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>maintenance</html>`))
			},
			wantStatus:   http.StatusOK,
			wantUserCall: true,
		},
	}
	for _, tc := range apiFailures {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mock := newMockGiteeServer(t)
			mock.tokenHandler = tc.tokenHandler
			mock.userHandler = tc.userHandler
			store := newMemoryStore(t, func() time.Time { return testNow })
			s := newTestService(t, mock, store)

			token, err := s.HandleCallback(context.Background(), "code", testApplication(), redirectURI)
			require.Error(t, err)
			assert.Nil(t, token)

			var apiErr *gitee.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.wantStatus, apiErr.StatusCode)
			assert.NotErrorIs(t, err, gitee.ErrUserInfo)
			assert.NotContains(t, err.Error(), "secret-456")

			if tc.wantUserCall {
				assert.Equal(t, int32(1), mock.userCalls.Load())
			} else {
				assert.Zero(t, mock.userCalls.Load())
			}
			assertNoTokens(t, store)
		})
	}

	t.Run("unauthorized user endpoint exposes the http error", func(t *testing.T) {
		t.Parallel()
		mock := newMockGiteeServer(t)
		mock.userHandler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}
		s := newTestService(t, mock, newMemoryStore(t, time.Now))

		_, err := s.HandleCallback(context.Background(), "code", testApplication(), redirectURI)
		assert.True(t, networking.IsHTTPError(err, http.StatusUnauthorized))
	})

	t.Run("token store failure", func(t *testing.T) {
		t.Parallel()
		mock := newMockGiteeServer(t)
		ctrl := gomock.NewController(t)
		tokens := mocks.NewMockTokenStore(ctrl)
		tokens.EXPECT().SaveToken(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		s := NewService(mocks.NewMockStateStore(ctrl), tokens,
			WithHTTPClient(mock.Client()), WithEndpoints(mock.endpoints()))
		_, err := s.HandleCallback(context.Background(), "code", testApplication(), redirectURI)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save access token")
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	seedOld := func(t *testing.T, store *storage.MemoryStorage, app *gitee.Application) *gitee.AccessToken {
		t.Helper()
		expired := testNow.Add(-time.Minute)
		old := &gitee.AccessToken{
			ApplicationID: app.ID,
			Application:   app,
			UserID:        "octocat",
			AccessToken:   "old-access",
			RefreshToken:  "old-refresh",
			ExpiresAt:     &expired,
			GiteeUsername: "octocat",
			CreatedAt:     testNow.Add(-24 * time.Hour),
		}
		require.NoError(t, store.SaveToken(context.Background(), old))
		return old
	}

	t.Run("without refresh token makes no call", func(t *testing.T) {
		t.Parallel()
		mock := newMockGiteeServer(t)
		s := newTestService(t, mock, newMemoryStore(t, time.Now))

		_, err := s.RefreshToken(context.Background(), &gitee.AccessToken{
			AccessToken: "a", Application: testApplication(),
		})
		require.ErrorIs(t, err, ErrNoRefreshToken)
		assert.Zero(t, mock.tokenCalls.Load())
	})

	t.Run("persists a new record", func(t *testing.T) {
		t.Parallel()
		mock := newMockGiteeServer(t)
		mock.tokenHandler = func(w http.ResponseWriter, _ *http.Request) {
			writeTokenResponse(w, testTokenResponse{
				AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 7200,
			})
		}
		store := newMemoryStore(t, func() time.Time { return testNow })
		s := newTestService(t, mock, store)
		app := testApplication()
		old := seedOld(t, store, app)

		token, err := s.RefreshToken(context.Background(), old)
		require.NoError(t, err)

		assert.NotEqual(t, old.ID, token.ID)
		assert.Equal(t, "new-access", token.AccessToken)
		assert.Equal(t, "new-refresh", token.RefreshToken)
		assert.Equal(t, "octocat", token.UserID)
		assert.Equal(t, "octocat", token.GiteeUsername)
		assert.Same(t, app, token.Application)
		require.NotNil(t, token.ExpiresAt)
		assert.Equal(t, testNow.Add(2*time.Hour), *token.ExpiresAt)

		form := mock.form()
		assert.Equal(t, "refresh_token", form.Get("grant_type"))
		assert.Equal(t, "old-refresh", form.Get("refresh_token"))
		assert.Equal(t, "client-123", form.Get("client_id"))
		assert.Equal(t, "secret-456", form.Get("client_secret"))
		assert.Zero(t, mock.userCalls.Load())

		history, err := store.ListTokens(context.Background(), "octocat", "app-1")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, token.ID, history[0].ID)
		assert.Equal(t, "old-access", history[1].AccessToken)
		assert.Equal(t, "old-refresh", history[1].RefreshToken)
	})

	t.Run("refresh token carried forward when omitted", func(t *testing.T) {
		t.Parallel()
		mock := newMockGiteeServer(t)
		mock.tokenHandler = func(w http.ResponseWriter, _ *http.Request) {
			writeTokenResponse(w, testTokenResponse{AccessToken: "new-access"})
		}
		store := newMemoryStore(t, func() time.Time { return testNow })
		s := newTestService(t, mock, store)
		old := seedOld(t, store, testApplication())

		token, err := s.RefreshToken(context.Background(), old)
		require.NoError(t, err)
		assert.Equal(t, "old-refresh", token.RefreshToken)
		assert.Nil(t, token.ExpiresAt)
	})

	t.Run("provider rejection saves nothing", func(t *testing.T) {
		t.Parallel()
		mock := newMockGiteeServer(t)
		mock.tokenHandler = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		}
		store := newMemoryStore(t, func() time.Time { return testNow })
		s := newTestService(t, mock, store)
		old := seedOld(t, store, testApplication())

		_, err := s.RefreshToken(context.Background(), old)
		var apiErr *gitee.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

		history, err := store.ListTokens(context.Background(), "octocat", "app-1")
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("requires a loaded application", func(t *testing.T) {
		t.Parallel()
		s := NewService(nil, nil)
		_, err := s.RefreshToken(context.Background(), &gitee.AccessToken{AccessToken: "a", RefreshToken: "r"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoRefreshToken)
	})
}

func TestGetCurrentAccessToken(t *testing.T) {
	t.Parallel()

	past := testNow.Add(-time.Second)
	future := testNow.Add(time.Hour)

	tests := []struct {
		name        string
		seed        []*gitee.AccessToken
		wantNil     bool
		wantAccess  string
		wantRefresh bool
	}{
		{
			name:    "no tokens",
			wantNil: true,
		},
		{
			name:       "valid token returned unchanged",
			seed:       []*gitee.AccessToken{{AccessToken: "valid", RefreshToken: "r", ExpiresAt: &future}},
			wantAccess: "valid",
		},
		{
			name:       "token without expiry never refreshes",
			seed:       []*gitee.AccessToken{{AccessToken: "forever", RefreshToken: "r"}},
			wantAccess: "forever",
		},
		{
			name:       "expired token without refresh token returned stale",
			seed:       []*gitee.AccessToken{{AccessToken: "stale", ExpiresAt: &past}},
			wantAccess: "stale",
		},
		{
			name:       "expiry equal to now is not expired",
			seed:       []*gitee.AccessToken{{AccessToken: "edge", RefreshToken: "r", ExpiresAt: &testNow}},
			wantAccess: "edge",
		},
		{
			name:        "expired token with refresh token is refreshed",
			seed:        []*gitee.AccessToken{{AccessToken: "expired", RefreshToken: "r", ExpiresAt: &past}},
			wantAccess:  "gitee-access-token",
			wantRefresh: true,
		},
		{
			name: "newest token wins over an older valid one",
			seed: []*gitee.AccessToken{
				{AccessToken: "older-valid", RefreshToken: "r", ExpiresAt: &future, CreatedAt: testNow.Add(-2 * time.Hour)},
				{AccessToken: "newer-expired", RefreshToken: "r", ExpiresAt: &past, CreatedAt: testNow.Add(-time.Hour)},
			},
			wantAccess:  "gitee-access-token",
			wantRefresh: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := newMockGiteeServer(t)
			store := newMemoryStore(t, func() time.Time { return testNow })
			s := newTestService(t, mock, store)
			app := testApplication()

			for i, tok := range tt.seed {
				tok.ApplicationID = app.ID
				tok.UserID = "octocat"
				tok.GiteeUsername = "octocat"
				if tok.CreatedAt.IsZero() {
					tok.CreatedAt = testNow.Add(-time.Duration(len(tt.seed)-i) * time.Minute)
				}
				require.NoError(t, store.SaveToken(context.Background(), tok))
			}

			token, err := s.GetCurrentAccessToken(context.Background(), "octocat", app)
			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, token)
				assert.Zero(t, mock.tokenCalls.Load())
				return
			}
			require.NotNil(t, token)
			assert.Equal(t, tt.wantAccess, token.AccessToken)
			assert.Same(t, app, token.Application)

			history, err := store.ListTokens(context.Background(), "octocat", app.ID)
			require.NoError(t, err)
			if tt.wantRefresh {
				assert.Equal(t, int32(1), mock.tokenCalls.Load())
				assert.Len(t, history, len(tt.seed)+1)
				assert.Equal(t, token.ID, history[0].ID)
			} else {
				assert.Zero(t, mock.tokenCalls.Load())
				assert.Len(t, history, len(tt.seed))
			}
		})
	}

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		tokens := mocks.NewMockTokenStore(ctrl)
		tokens.EXPECT().ListTokens(gomock.Any(), "octocat", "app-1").Return(nil, errors.New("timeout"))

		s := NewService(mocks.NewMockStateStore(ctrl), tokens)
		_, err := s.GetCurrentAccessToken(context.Background(), "octocat", testApplication())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
	})

	t.Run("refresh failure surfaces", func(t *testing.T) {
		t.Parallel()
		mock := newMockGiteeServer(t)
		mock.tokenHandler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}
		store := newMemoryStore(t, func() time.Time { return testNow })
		s := newTestService(t, mock, store)
		require.NoError(t, store.SaveToken(context.Background(), &gitee.AccessToken{
			ApplicationID: "app-1", UserID: "octocat", AccessToken: "expired", RefreshToken: "r", ExpiresAt: &past,
		}))

		_, err := s.GetCurrentAccessToken(context.Background(), "octocat", testApplication())
		assert.True(t, gitee.IsAPIError(err))
	})
}

func TestGetCurrentAccessToken_RefreshDeduplication(t *testing.T) {
	t.Parallel()

	mock := newMockGiteeServer(t)
	release := make(chan struct{})
	mock.tokenHandler = func(w http.ResponseWriter, _ *http.Request) {
		<-release
		writeTokenResponse(w, testTokenResponse{AccessToken: "refreshed", RefreshToken: "r2", ExpiresIn: 3600})
	}
	store := newMemoryStore(t, func() time.Time { return testNow })
	s := newTestService(t, mock, store, WithRefreshDeduplication())

	past := testNow.Add(-time.Minute)
	require.NoError(t, store.SaveToken(context.Background(), &gitee.AccessToken{
		ApplicationID: "app-1", UserID: "octocat", AccessToken: "expired", RefreshToken: "r1",
		ExpiresAt: &past, CreatedAt: testNow.Add(-time.Hour),
	}))

	const callers = 8
	results := make([]*gitee.AccessToken, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := s.GetCurrentAccessToken(context.Background(), "octocat", testApplication())
			assert.NoError(t, err)
			results[i] = tok
		}()
	}

	require.Eventually(t, func() bool { return mock.tokenCalls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), mock.tokenCalls.Load())
	for _, tok := range results {
		require.NotNil(t, tok)
		assert.Equal(t, "refreshed", tok.AccessToken)
	}

	history, err := store.ListTokens(context.Background(), "octocat", "app-1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestGenerateState(t *testing.T) {
	t.Parallel()

	state, err := generateState()
	require.NoError(t, err)
	assert.Regexp(t, statePattern, state)
	assert.Len(t, state, 2*stateBytes)
	assert.Equal(t, strings.ToLower(state), state)
}

func assertNoTokens(t *testing.T, store *storage.MemoryStorage) {
	t.Helper()
	tokens, err := store.ListTokens(context.Background(), "octocat", "app-1")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}
