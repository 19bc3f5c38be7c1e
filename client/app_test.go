package client_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/downsite/client"
	"github.com/hypergopher/downsite/contentstore"
)

var api = map[string]string{
	"/blog/posts/": `[
		{"id":1,"title":"Hello","slug":"hello-world","author":"alice","category":"Go"},
		{"id":2,"title":"Second","slug":"second","author":"bob","category":"Web"}
	]`,
	"/blog/categories/":        `[{"name":"Go","slug":"go","count":1},{"name":"Web","slug":"web","count":1}]`,
	"/blog/posts/hello-world/": `{"title":"Hello","slug":"hello-world","author":"alice","created_at":"2024-03-01","content":"Welcome.","likes":3}`,
}

func newApp(t *testing.T, failures map[string]error) (*client.App, *bytes.Buffer) {
	t.Helper()

	transport := contentstore.TransportFunc(func(_ context.Context, path string, out any) error {
		if err, ok := failures[path]; ok {
			return err
		}
		body, ok := api[path]
		if !ok {
			return &contentstore.StatusError{Code: http.StatusNotFound, URL: path}
		}
		return json.Unmarshal([]byte(body), out)
	})

	var out bytes.Buffer
	app, err := client.New(contentstore.New(transport, contentstore.Options{}), &out, nil)
	require.NoError(t, err)
	return app, &out
}

func TestApp_Navigate(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		contains []string
		excludes []string
	}{
		{
			name:     "Home",
			path:     "/",
			contains: []string{"== Home ==", "* Hello (/blog/post/hello-world)", "Categories: Go Web"},
		},
		{
			name:     "Blog list",
			path:     "/blog",
			contains: []string{"== Blog ==", "* Hello by alice in Go", "/blog/post/second", "- Go (1)"},
			excludes: []string{"Loading..."},
		},
		{
			name:     "Post detail",
			path:     "/blog/post/hello-world/",
			contains: []string{"== Hello ==", "By alice on 2024-03-01", "Welcome.", "Likes: 3"},
		},
		{
			name:     "Missing post",
			path:     "/blog/post/missing-slug",
			contains: []string{"! GET /blog/posts/missing-slug/: unexpected status 404 Not Found", "Post not found."},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app, out := newApp(t, nil)

			require.NoError(t, app.Navigate(context.Background(), tc.path))
			for _, s := range tc.contains {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tc.excludes {
				assert.NotContains(t, out.String(), s)
			}
		})
	}
}

func TestApp_NavigateRendersStaleDataOnFailure(t *testing.T) {
	failures := map[string]error{}
	app, out := newApp(t, failures)
	ctx := context.Background()

	require.NoError(t, app.Navigate(ctx, "/blog"))

	failures["/blog/posts/"] = errors.New("connection refused")
	out.Reset()
	require.NoError(t, app.Navigate(ctx, "/blog"))

	assert.Contains(t, out.String(), "! connection refused")
	assert.Contains(t, out.String(), "* Hello by alice in Go")
}

func TestApp_NavigateKeepsCurrentPostWhenMissing(t *testing.T) {
	app, out := newApp(t, nil)
	ctx := context.Background()

	require.NoError(t, app.Navigate(ctx, "/blog/post/hello-world"))
	out.Reset()
	require.NoError(t, app.Navigate(ctx, "/blog/post/missing-slug"))

	// The previous post stays on screen
	assert.Contains(t, out.String(), "== Hello ==")
	assert.Contains(t, out.String(), "404")
}

func TestApp_NavigateUnknownRoute(t *testing.T) {
	app, out := newApp(t, nil)

	err := app.Navigate(context.Background(), "/nowhere")
	assert.ErrorIs(t, err, client.ErrNoRoute)
	assert.Empty(t, out.String())
}
