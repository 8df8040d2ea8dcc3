// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package gitee

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scope is a permission requested from Gitee during authorization.
// The zero value is not a valid scope.
type Scope int

// Scopes supported by the Gitee authorization server.
const (
	ScopeUser Scope = iota + 1
	ScopeProjects
	ScopePullRequests
	ScopeIssues
	ScopeNotes
	ScopeEnterprises
	ScopeGists
	ScopeGroups
	ScopeHooks
)

type scopeInfo struct {
	wireID string
	label  string
	badge  string
}

var scopeTable = map[Scope]scopeInfo{
	ScopeUser:         {wireID: "user_info", label: "用户信息", badge: "primary"},
	ScopeProjects:     {wireID: "projects", label: "项目管理", badge: "success"},
	ScopePullRequests: {wireID: "pull_requests", label: "拉取请求", badge: "info"},
	ScopeIssues:       {wireID: "issues", label: "问题管理", badge: "warning"},
	ScopeNotes:        {wireID: "notes", label: "评论管理", badge: "secondary"},
	ScopeEnterprises:  {wireID: "enterprises", label: "企业管理", badge: "dark"},
	ScopeGists:        {wireID: "gists", label: "代码片段", badge: "light"},
	ScopeGroups:       {wireID: "groups", label: "组织管理", badge: "info"},
	ScopeHooks:        {wireID: "hook", label: "Webhook", badge: "danger"},
}

// AllScopes returns every defined scope in declaration order.
func AllScopes() []Scope {
	return []Scope{
		ScopeUser, ScopeProjects, ScopePullRequests, ScopeIssues, ScopeNotes,
		ScopeEnterprises, ScopeGists, ScopeGroups, ScopeHooks,
	}
}

// DefaultScopes returns the scopes granted to a newly registered application.
func DefaultScopes() []Scope {
	return []Scope{ScopeUser, ScopeProjects, ScopePullRequests, ScopeIssues, ScopeNotes}
}

// ParseScope maps a wire identifier such as "user_info" back to its Scope.
func ParseScope(s string) (Scope, error) {
	for scope, info := range scopeTable {
		if info.wireID == s {
			return scope, nil
		}
	}
	return 0, fmt.Errorf("unknown gitee scope %q", s)
}

// ParseScopes parses a list of wire identifiers, failing on the first unknown one.
func ParseScopes(values []string) ([]Scope, error) {
	scopes := make([]Scope, 0, len(values))
	for _, v := range values {
		scope, err := ParseScope(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	return scopes, nil
}

// Valid reports whether s is one of the defined scopes.
func (s Scope) Valid() bool {
	_, ok := scopeTable[s]
	return ok
}

// String returns the wire identifier sent to Gitee.
func (s Scope) String() string {
	if info, ok := scopeTable[s]; ok {
		return info.wireID
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

// Label returns the human readable name of the scope.
func (s Scope) Label() string {
	return scopeTable[s].label
}

// Badge returns the display style associated with the scope.
func (s Scope) Badge() string {
	return scopeTable[s].badge
}

// MarshalText implements encoding.TextMarshaler using the wire identifier.
func (s Scope) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid scope %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scope) UnmarshalText(text []byte) error {
	scope, err := ParseScope(string(text))
	if err != nil {
		return err
	}
	*s = scope
	return nil
}

// UnmarshalYAML accepts a scope written as its wire identifier.
func (s *Scope) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("scope must be a string: %w", err)
	}
	return s.UnmarshalText([]byte(raw))
}

// MarshalYAML writes the scope as its wire identifier.
func (s Scope) MarshalYAML() (any, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(text), nil
}

// JoinScopes renders scopes the way the authorize endpoint expects them:
// wire identifiers separated by a single space.
func JoinScopes(scopes []Scope) string {
	ids := make([]string, 0, len(scopes))
	for _, s := range scopes {
		ids = append(ids, s.String())
	}
	return strings.Join(ids, " ")
}
