package web_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/downsite/web"
)

func TestPages(t *testing.T) {
	v := newVisitor(t, newServer(t, web.Options{SiteName: "Gopher Notes"}))

	cases := []struct {
		name         string
		path         string
		headers      map[string]string
		expectedCode int
		contains     []string
		excludes     []string
	}{
		{
			name:         "Home",
			path:         "/",
			expectedCode: http.StatusOK,
			contains:     []string{"<title>Home | Gopher Notes</title>", "Featured", "Hello World", "Second Post", `href="/blog/category/go/"`},
		},
		{
			name:         "Blog first page",
			path:         "/blog/",
			expectedCode: http.StatusOK,
			contains:     []string{"Hello World", "Second Post", `hx-get="/blog/?page=2"`, "By Alice Liddell"},
			excludes:     []string{"Deep Dive", "Draft Post"},
		},
		{
			name:         "Blog second page as a fragment",
			path:         "/blog/?page=2",
			headers:      map[string]string{"HX-Request": "true"},
			expectedCode: http.StatusOK,
			contains:     []string{"Deep Dive", `href="/blog/post/nested%2Fdeep-dive/"`},
			excludes:     []string{"<html", "Hello World", "hx-get"},
		},
		{
			name:         "Category",
			path:         "/blog/category/web/",
			expectedCode: http.StatusOK,
			contains:     []string{"<h1>Web</h1>", "Second Post"},
			excludes:     []string{"Hello World"},
		},
		{
			name:         "Unknown category",
			path:         "/blog/category/cooking/",
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "Post",
			path:         "/blog/post/hello-world/",
			expectedCode: http.StatusOK,
			contains:     []string{"<h1>Hello World</h1>", "Welcome to the blog.", "1 views", "0 likes", "#intro", `name="csrfmiddlewaretoken"`},
		},
		{
			name:         "Nested post",
			path:         "/blog/post/nested%2Fdeep-dive/",
			expectedCode: http.StatusOK,
			contains:     []string{"<h1>Deep Dive</h1>", `action="/blog/post/nested%2Fdeep-dive/comment/"`},
		},
		{
			name:         "Draft post",
			path:         "/blog/post/draft-post/",
			expectedCode: http.StatusNotFound,
			contains:     []string{"does not exist"},
		},
		{
			name:         "About",
			path:         "/about/",
			expectedCode: http.StatusOK,
			contains:     []string{"About Us", "We write about Go."},
		},
		{
			name:         "Unknown route",
			path:         "/nowhere",
			expectedCode: http.StatusNotFound,
			contains:     []string{"does not exist"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := v.do(http.MethodGet, tc.path, nil, tc.headers)
			require.Equal(t, tc.expectedCode, w.Code)
			for _, s := range tc.contains {
				assert.Contains(t, w.Body.String(), s)
			}
			for _, s := range tc.excludes {
				assert.NotContains(t, w.Body.String(), s)
			}
		})
	}
}

func TestPages_PostCountsViews(t *testing.T) {
	v := newVisitor(t, newServer(t, web.Options{}))

	v.get("/blog/post/hello-world/")
	w := v.get("/blog/post/hello-world/")
	assert.Contains(t, w.Body.String(), "2 views")

	// A missing post is not counted
	v.get("/blog/post/missing-slug/")
	w = v.get("/api/blog/posts/hello-world/")
	assert.Contains(t, w.Body.String(), `"views":2`)
}

func TestFeedSitemapRobots(t *testing.T) {
	v := newVisitor(t, newServer(t, web.Options{SiteName: "Gopher Notes"}))

	w := v.get("/feed")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/rss+xml")
	assert.Contains(t, w.Body.String(), "<rss")
	assert.Contains(t, w.Body.String(), "<title>Gopher Notes</title>")
	assert.Contains(t, w.Body.String(), "http://blog.test/blog/post/hello-world/")
	assert.NotContains(t, w.Body.String(), "Draft Post")

	w = v.get("/sitemap.xml")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<loc>http://blog.test/</loc>")
	assert.Contains(t, w.Body.String(), "<loc>http://blog.test/blog/post/nested%2Fdeep-dive/</loc>")
	assert.Contains(t, w.Body.String(), "<loc>http://blog.test/blog/category/databases/</loc>")

	w = v.get("/robots.txt")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sitemap: http://blog.test/sitemap.xml")
}

func TestMetrics(t *testing.T) {
	v := newVisitor(t, newServer(t, web.Options{}))

	v.get("/blog/")
	v.get("/nowhere")

	w := v.get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `downsite_http_requests_total{method="GET",route="/blog/",status="200"} 1`)
	assert.Contains(t, w.Body.String(), `downsite_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
	assert.Contains(t, w.Body.String(), "downsite_http_request_duration_seconds_bucket")
}

func TestStatic(t *testing.T) {
	v := newVisitor(t, newServer(t, web.Options{}))

	w := v.get("/static/site.css")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".post-meta")
}
