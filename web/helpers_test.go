package web_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/downsite"
	"github.com/hypergopher/downsite/web"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixtures = map[string]string{
	"articles/hello-world.md": `---
name: Hello World
summary: The first post
authors:
  - alice
featured: true
published: 2024-03-01T09:00:00Z
taxonomies:
  categories:
    - Go
  tags:
    - intro
---

Welcome to the blog.
`,
	"articles/second-post.md": `---
name: Second Post
authors:
  - bob
published: 2024-02-10T09:00:00Z
taxonomies:
  categories:
    - Go
    - Web
---

Serving HTML fragments from Go.
`,
	"articles/nested/deep-dive.md": `---
name: Deep Dive
published: 2024-01-05T09:00:00Z
taxonomies:
  categories:
    - Databases
---

Key value stores.
`,
	"articles/draft-post.md": `---
name: Draft Post
status: draft
---

Not yet.
`,
	"pages/about.md": `---
name: About Us
---

We write about Go.
`,
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newSite(t *testing.T) *downsite.Site {
	t.Helper()

	root := t.TempDir()
	markPath := filepath.Join(root, "content")
	for name, content := range fixtures {
		path := filepath.Join(markPath, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	site, err := downsite.New(downsite.Options{
		MarkDir: markPath,
		DataDir: filepath.Join(root, "data"),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     func() time.Time { return fixedNow },
		Reindex: true,
		Authors: map[string]downsite.Author{
			"alice": {Username: "alice", Name: "Alice Liddell"},
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = site.Close()
	})
	return site
}

func newServer(t *testing.T, opts web.Options) http.Handler {
	t.Helper()

	if opts.BaseURL == "" {
		opts.BaseURL = "http://blog.test"
	}
	if opts.PageSize == 0 {
		opts.PageSize = 2
	}
	opts.Now = func() time.Time { return fixedNow }

	server, err := web.New(newSite(t), opts)
	require.NoError(t, err)
	return server.Handler()
}

var (
	csrfInput   = regexp.MustCompile(`name="csrfmiddlewaretoken" value="([^"]+)"`)
	commentItem = regexp.MustCompile(`id="comment-([0-9a-f-]+)"`)
)

// visitor is a browser session against the handler: it keeps cookies and
// the CSRF token served in pages.
type visitor struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
	token   string
}

func newVisitor(t *testing.T, handler http.Handler) *visitor {
	return &visitor{t: t, handler: handler, cookies: map[string]*http.Cookie{}}
}

func (v *visitor) do(method, target string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	v.t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, val := range headers {
		req.Header.Set(k, val)
	}
	for _, cookie := range v.cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	v.handler.ServeHTTP(w, req)

	for _, cookie := range w.Result().Cookies() {
		v.cookies[cookie.Name] = cookie
	}
	return w
}

func (v *visitor) get(target string) *httptest.ResponseRecorder {
	v.t.Helper()
	return v.do(http.MethodGet, target, nil, nil)
}

// post submits a form with the visitor's CSRF token.
func (v *visitor) post(target string, form url.Values) *httptest.ResponseRecorder {
	v.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrfmiddlewaretoken", v.token)
	return v.do(http.MethodPost, target, form, map[string]string{"HX-Request": "true"})
}

// open loads a post page and picks up the CSRF token from its forms.
func (v *visitor) open(target string) *httptest.ResponseRecorder {
	v.t.Helper()
	w := v.get(target)
	require.Equal(v.t, http.StatusOK, w.Code)

	match := csrfInput.FindStringSubmatch(w.Body.String())
	require.Len(v.t, match, 2, "page has no csrf token")
	v.token = match[1]
	return w
}
