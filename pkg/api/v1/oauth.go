// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/stacklok/toolhive-core/httperr"

	apierrors "github.com/tourze/gitee-oauth/pkg/api/errors"
	"github.com/tourze/gitee-oauth/pkg/gitee"
	"github.com/tourze/gitee-oauth/pkg/logger"
	"github.com/tourze/gitee-oauth/pkg/oauth"
)

// CallbackPath is the route prefix Gitee redirects back to after consent.
const CallbackPath = "/gitee/oauth/callback/"

// ApplicationGetter looks up a registered application by ID.
type ApplicationGetter interface {
	GetApplication(ctx context.Context, id string) (*gitee.Application, error)
}

// OAuthRoutes defines the routes of the authorization code flow.
type OAuthRoutes struct {
	orchestrator oauth.Orchestrator
	applications ApplicationGetter
	publicURL    string
}

// OAuthRouter creates a router for the connect and callback endpoints.
// publicURL is the externally reachable base URL used to build redirect URIs.
func OAuthRouter(orchestrator oauth.Orchestrator, applications ApplicationGetter, publicURL string) http.Handler {
	routes := OAuthRoutes{
		orchestrator: orchestrator,
		applications: applications,
		publicURL:    strings.TrimSuffix(publicURL, "/"),
	}

	r := chi.NewRouter()
	r.Get("/connect/{applicationId}", apierrors.ErrorHandler(routes.connect))
	r.Get("/callback/{applicationId}", apierrors.ErrorHandler(routes.callback))
	return r
}

// connect starts the flow by redirecting the browser to Gitee.
// The optional callbackUrl query parameter is remembered under the
// generated state and used after the callback completes.
func (o *OAuthRoutes) connect(w http.ResponseWriter, r *http.Request) error {
	app, err := o.application(r)
	if err != nil {
		return err
	}

	var opts []oauth.AuthorizationOption
	if q := r.URL.Query(); q.Has("callbackUrl") {
		opts = append(opts, oauth.WithCallbackURL(q.Get("callbackUrl")))
	}

	authURL, err := o.orchestrator.BuildAuthorizationURL(r.Context(), app, o.redirectURI(app.ID), opts...)
	if err != nil {
		return fmt.Errorf("failed to build authorization url: %w", err)
	}

	http.Redirect(w, r, authURL, http.StatusFound)
	return nil
}

// callback completes the flow: it consumes the state, exchanges the code and
// sends the browser to the remembered callback URL, or "/" without one.
func (o *OAuthRoutes) callback(w http.ResponseWriter, r *http.Request) error {
	app, err := o.application(r)
	if err != nil {
		return err
	}

	query := r.URL.Query()
	code := query.Get("code")
	if code == "" {
		return httperr.WithCode(errors.New("missing authorization code"), http.StatusBadRequest)
	}

	var template string
	if state := query.Get("state"); state != "" {
		var found bool
		template, found, err = o.orchestrator.VerifyState(r.Context(), state)
		if err != nil {
			return fmt.Errorf("failed to verify state: %w", err)
		}
		if !found {
			logger.Warnw("oauth state not found or expired", "application_id", app.ID)
		}
	}

	token, err := o.orchestrator.HandleCallback(r.Context(), code, app, o.redirectURI(app.ID))
	if err != nil {
		if errors.Is(err, gitee.ErrUserInfo) || gitee.IsAPIError(err) {
			return httperr.WithCode(fmt.Errorf("gitee authorization failed: %w", err), http.StatusBadGateway)
		}
		return fmt.Errorf("failed to handle oauth callback: %w", err)
	}

	target := "/"
	if template != "" {
		target = expandCallbackURL(template, token)
	}
	http.Redirect(w, r, target, http.StatusFound)
	return nil
}

func (o *OAuthRoutes) application(r *http.Request) (*gitee.Application, error) {
	id := chi.URLParam(r, "applicationId")
	app, err := o.applications.GetApplication(r.Context(), id)
	if err != nil {
		return nil, fmt.Errorf("application %s: %w", id, err)
	}
	return app, nil
}

func (o *OAuthRoutes) redirectURI(applicationID string) string {
	return o.publicURL + CallbackPath + url.PathEscape(applicationID)
}

// expandCallbackURL substitutes the token placeholders in template. Values
// are query-escaped since templates put them in the query string.
func expandCallbackURL(template string, token *gitee.AccessToken) string {
	return strings.NewReplacer(
		"{accessToken}", url.QueryEscape(token.AccessToken),
		"{userId}", url.QueryEscape(token.UserID),
		"{giteeUsername}", url.QueryEscape(token.GiteeUsername),
		"{applicationId}", url.QueryEscape(token.ApplicationID),
	).Replace(template)
}
