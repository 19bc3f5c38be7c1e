package downsite_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hypergopher/downsite"
)

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
    - go
---

# Hello

Welcome to the blog.
`,
	"articles/2024-02-10-second-post.md": `+++
name = "Second Post"
authors = ["bob"]

[taxonomies]
categories = ["Go", "Web"]
tags = ["web"]
+++

Serving HTML fragments from Go.
`,
	"articles/nested/deep-dive.md": `---
name: Deep Dive
authors:
  - bob
published: 2024-01-05T09:00:00Z
taxonomies:
  categories:
    - Databases
  tags:
    - bolt
---

A nested FOOBAR article about key value stores.
`,
	"articles/draft-post.md": `---
name: Draft Post
status: draft
published: 2024-04-01T09:00:00Z
taxonomies:
  categories:
    - Drafts
---

Not ready yet.
`,
	"articles/private-post.md": `---
name: Private Post
visibility: private
published: 2024-04-02T09:00:00Z
taxonomies:
  categories:
    - Secret
---

For my eyes only.
`,
	"pages/about.md": `---
name: About
---

About this site.
`,
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// tickingClock returns a clock starting at fixedNow that advances one second per call.
func tickingClock() func() time.Time {
	var ticks atomic.Int64
	return func() time.Time {
		return fixedNow.Add(time.Duration(ticks.Add(1)) * time.Second)
	}
}

func setupTestEnvironment(t *testing.T) (string, string) {
	t.Helper()

	root := t.TempDir()
	markPath := filepath.Join(root, "content")
	dataPath := filepath.Join(root, "data")

	for name, content := range fixtures {
		path := filepath.Join(markPath, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	return markPath, dataPath
}

func createSite(t *testing.T, markPath, dataPath string) *downsite.Site {
	t.Helper()

	site, err := downsite.New(downsite.Options{
		MarkDir: markPath,
		DataDir: dataPath,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     tickingClock(),
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

func newTestSite(t *testing.T) *downsite.Site {
	t.Helper()
	markPath, dataPath := setupTestEnvironment(t)
	return createSite(t, markPath, dataPath)
}
