package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClientWithHTTPClient(srv.Client(), srv.URL+"/")
	require.NoError(t, err)
	return client
}

func TestFetchIssueComments_MapsFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/site/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{
				"id": 101,
				"user": {"login": "octocat", "avatar_url": "https://example.com/a.png"},
				"body": "first comment",
				"created_at": "2026-02-10T08:00:00Z",
				"updated_at": "2026-02-10T09:30:00Z"
			},
			{
				"id": 102,
				"user": {"login": "hubot"},
				"body": "second comment",
				"created_at": "2026-02-11T08:00:00Z",
				"updated_at": "2026-02-11T08:00:00Z"
			}
		]`)
	})

	client := newTestClient(t, mux)

	comments, err := client.FetchIssueComments(context.Background(), "acme/site", 7)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	assert.Equal(t, int64(101), comments[0].ExternalID)
	assert.Equal(t, "octocat", comments[0].Author)
	assert.Equal(t, "https://example.com/a.png", comments[0].AvatarURL)
	assert.Equal(t, "first comment", comments[0].Body)
	assert.Equal(t, 2026, comments[0].CreatedAt.Year())
	assert.True(t, comments[0].UpdatedAt.After(comments[0].CreatedAt))

	assert.Equal(t, int64(102), comments[1].ExternalID)
	assert.Equal(t, "hubot", comments[1].Author)
}

func TestFetchIssueComments_FollowsPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/site/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"id": 2, "user": {"login": "b"}, "body": "page two"}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<http://%s/repos/acme/site/issues/7/comments?page=2>; rel="next"`, r.Host))
		fmt.Fprint(w, `[{"id": 1, "user": {"login": "a"}, "body": "page one"}]`)
	})

	client := newTestClient(t, mux)

	comments, err := client.FetchIssueComments(context.Background(), "acme/site", 7)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "page one", comments[0].Body)
	assert.Equal(t, "page two", comments[1].Body)
}

func TestFetchIssueComments_InvalidRepoName(t *testing.T) {
	client := newTestClient(t, http.NewServeMux())

	_, err := client.FetchIssueComments(context.Background(), "not-a-repo", 7)
	assert.Error(t, err)
}
