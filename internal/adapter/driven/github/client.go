// Package github implements the IssueSync port using the go-github library.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/threadboard/threadboard/internal/domain/model"
	"github.com/threadboard/threadboard/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IssueSync = (*Client)(nil)

// Client implements the driven.IssueSync port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// FetchIssueComments retrieves all comments on the given issue, handling
// pagination automatically and mapping go-github types to domain model types.
func (c *Client) FetchIssueComments(ctx context.Context, repoFullName string, issueNumber int) ([]model.ImportedComment, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	var all []model.ImportedComment

	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, owner, repo, issueNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("listing comments for %s#%d (page %d): %w", repoFullName, issueNumber, opts.Page, err)
		}

		for _, comment := range comments {
			all = append(all, mapIssueComment(comment))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// mapIssueComment converts a go-github IssueComment to a domain ImportedComment.
func mapIssueComment(c *gh.IssueComment) model.ImportedComment {
	return model.ImportedComment{
		ExternalID: c.GetID(),
		Author:     c.GetUser().GetLogin(),
		AvatarURL:  c.GetUser().GetAvatarURL(),
		Body:       c.GetBody(),
		CreatedAt:  c.GetCreatedAt().Time,
		UpdatedAt:  c.GetUpdatedAt().Time,
	}
}

// splitRepo parses "owner/repo" into its parts.
func splitRepo(fullName string) (owner, repo string, err error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository name %q, expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
