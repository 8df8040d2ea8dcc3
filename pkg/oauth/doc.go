// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package oauth implements the Gitee OAuth 2.0 authorization code flow.
//
// The [Service] builds authorization URLs protected by a random state
// token, exchanges authorization codes for access tokens, identifies the
// Gitee user behind each token, and refreshes expired tokens. Tokens are
// append-only: every exchange or refresh persists a new record, and the
// newest record for a (user, application) pair is the current one.
//
// # Token selection
//
// [Service.GetCurrentAccessToken] returns the newest token for a user. When
// that token has an expiry in the past and carries a refresh token it is
// refreshed first; otherwise it is returned as-is, even if stale, and the
// caller learns about it from Gitee's 401.
package oauth
