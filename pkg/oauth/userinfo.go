// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"context"
	"errors"

	"github.com/tidwall/gjson"

	"github.com/tourze/gitee-oauth/pkg/gitee"
	"github.com/tourze/gitee-oauth/pkg/networking"
)

const userInfoOp = "GET /user"

// fetchLogin resolves the Gitee login of the token owner. Only the "login"
// field is read; the rest of the profile is ignored.
func (s *Service) fetchLogin(ctx context.Context, accessToken string) (string, error) {
	result, err := networking.Fetch(ctx, s.httpClient, s.endpoints.UserURL, networking.WithBearerToken(accessToken))
	if err != nil {
		apiErr := &gitee.APIError{Op: userInfoOp, URL: s.endpoints.UserURL, Err: err}
		var httpErr *networking.HTTPError
		if errors.As(err, &httpErr) {
			apiErr.StatusCode = httpErr.StatusCode
		}
		return "", apiErr
	}

	if !gjson.ValidBytes(result.Body) {
		return "", &gitee.APIError{
			Op:         userInfoOp,
			URL:        s.endpoints.UserURL,
			StatusCode: result.StatusCode,
			Err:        errors.New("user info response is not valid JSON"),
		}
	}

	login := gjson.GetBytes(result.Body, "login").String()
	if login == "" {
		return "", gitee.ErrUserInfo
	}
	return login, nil
}
