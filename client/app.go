// Package client renders the blog's views as text from a content store, the
// way a browser front end would after each route change.
package client

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/template"

	"github.com/hypergopher/downsite/contentstore"
	"github.com/hypergopher/downsite/router"
)

var ErrNoRoute = errors.New("no route")

//go:embed views/*.tmpl
var viewFS embed.FS

// App binds the route table to a content store and renders views to Out.
type App struct {
	Store  *contentstore.Store
	Routes router.Table
	Out    io.Writer
	Logger *slog.Logger

	views *template.Template
}

// New creates an App using the default route table.
func New(store *contentstore.Store, out io.Writer, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	views, err := template.New("views").Funcs(template.FuncMap{
		"field":   field,
		"postURL": postURL,
	}).ParseFS(viewFS, "views/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse views: %w", err)
	}

	return &App{
		Store:  store,
		Routes: router.Default(),
		Out:    out,
		Logger: logger,
		views:  views,
	}, nil
}

// viewData is what every view template receives.
type viewData struct {
	State  contentstore.State
	Params router.Params
	Errors []string
}

// Navigate activates the route for path: it runs the view's store actions and
// renders the view. Fetch failures are rendered, not returned.
func (a *App) Navigate(ctx context.Context, path string) error {
	route, params, ok := a.Routes.Match(path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoRoute, path)
	}

	var fetchErr error
	switch route.View {
	case router.ViewHome:
		fetchErr = a.Store.Refresh(ctx)
	case router.ViewBlogList:
		fetchErr = errors.Join(a.Store.FetchPosts(ctx), a.Store.FetchCategories(ctx))
	case router.ViewPostDetail:
		fetchErr = a.Store.FetchPost(ctx, params["slug"])
	}

	data := viewData{State: a.Store.State(), Params: params}
	if fetchErr != nil {
		a.Logger.Warn("view data is stale", slog.String("path", path), slog.Any("error", fetchErr))
		data.Errors = strings.Split(fetchErr.Error(), "\n")
	}

	if err := a.views.ExecuteTemplate(a.Out, route.View+".tmpl", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", route.View, err)
	}
	return nil
}

// field reads a display value from an API record.
func field(record map[string]any, key string) string {
	value, ok := record[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}

func postURL(post contentstore.Post) string {
	path, err := router.Default().Path(router.ViewPostDetail, router.Params{"slug": post.Slug()})
	if err != nil {
		return ""
	}
	return path
}
