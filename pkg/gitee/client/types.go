// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"time"

	"github.com/tourze/gitee-oauth/pkg/gitee"
)

// User is the subset of a Gitee user profile used by this service.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
	Email     string `json:"email"`
}

// Owner is the owning namespace of a repository.
type Owner struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

// Repository is a repository as returned by /user/repos and /repos/{owner}/{repo}.
type Repository struct {
	ID            int64      `json:"id"`
	FullName      string     `json:"full_name"`
	Name          string     `json:"name"`
	Path          string     `json:"path"`
	Owner         Owner      `json:"owner"`
	Description   string     `json:"description"`
	DefaultBranch string     `json:"default_branch"`
	Private       bool       `json:"private"`
	Fork          bool       `json:"fork"`
	HTMLURL       string     `json:"html_url"`
	SSHURL        string     `json:"ssh_url"`
	PushedAt      *time.Time `json:"pushed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ToModel converts the API representation to the locally stored one.
func (r *Repository) ToModel(userID, applicationID string) *gitee.Repository {
	repo := &gitee.Repository{
		ApplicationID: applicationID,
		UserID:        userID,
		FullName:      r.FullName,
		Name:          r.Name,
		Owner:         r.Owner.Login,
		Description:   r.Description,
		DefaultBranch: r.DefaultBranch,
		Private:       r.Private,
		Fork:          r.Fork,
		HTMLURL:       r.HTMLURL,
		SSHURL:        r.SSHURL,
	}
	if r.PushedAt != nil {
		repo.PushedAt = *r.PushedAt
	}
	return repo
}

// Commit identifies the head commit of a branch.
type Commit struct {
	SHA string `json:"sha"`
	URL string `json:"url"`
}

// Branch is a repository branch.
type Branch struct {
	Name      string `json:"name"`
	Protected bool   `json:"protected"`
	Commit    Commit `json:"commit"`
}

// Issue is a repository issue. Gitee issue numbers are strings such as "I7ABCD".
type Issue struct {
	ID        int64     `json:"id"`
	Number    string    `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	HTMLURL   string    `json:"html_url"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref is one side of a pull request.
type Ref struct {
	Label string `json:"label"`
	Ref   string `json:"ref"`
	SHA   string `json:"sha"`
}

// PullRequest is a repository pull request.
type PullRequest struct {
	ID        int64     `json:"id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	HTMLURL   string    `json:"html_url"`
	User      User      `json:"user"`
	Head      Ref       `json:"head"`
	Base      Ref       `json:"base"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
