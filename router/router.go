// Package router maps URL paths to the site's views.
package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// View names.
const (
	ViewHome       = "home"
	ViewBlogList   = "blog-list"
	ViewPostDetail = "post-detail"
)

var ErrUnknownRoute = errors.New("unknown route")

// Route binds a path pattern to a view. A pattern segment starting with ':'
// captures exactly one path segment under that name.
type Route struct {
	Name    string
	Pattern string
	View    string
}

// Params holds the captured segments of a matched path.
type Params map[string]string

// Table is an ordered list of routes. The first matching route wins.
type Table []Route

// Default returns the blog's routes.
func Default() Table {
	return Table{
		{Name: ViewHome, Pattern: "/", View: ViewHome},
		{Name: ViewBlogList, Pattern: "/blog", View: ViewBlogList},
		{Name: ViewPostDetail, Pattern: "/blog/post/:slug", View: ViewPostDetail},
	}
}

func segments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Match finds the route for path. A trailing slash and a query string are ignored.
func (t Table) Match(path string) (Route, Params, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := segments(path)

	for _, route := range t {
		pattern := segments(route.Pattern)
		if len(pattern) != len(parts) {
			continue
		}

		params := Params{}
		matched := true
		for i, seg := range pattern {
			if name, ok := strings.CutPrefix(seg, ":"); ok {
				value, err := url.PathUnescape(parts[i])
				if err != nil || value == "" {
					matched = false
					break
				}
				params[name] = value
				continue
			}
			if seg != parts[i] {
				matched = false
				break
			}
		}

		if matched {
			return route, params, true
		}
	}

	return Route{}, nil, false
}

// Path builds the path of the named route, escaping each parameter.
func (t Table) Path(name string, params Params) (string, error) {
	for _, route := range t {
		if route.Name != name {
			continue
		}

		pattern := segments(route.Pattern)
		out := make([]string, len(pattern))
		for i, seg := range pattern {
			key, ok := strings.CutPrefix(seg, ":")
			if !ok {
				out[i] = seg
				continue
			}
			value := params[key]
			if value == "" {
				return "", fmt.Errorf("route %s: missing parameter %q", name, key)
			}
			out[i] = url.PathEscape(value)
		}
		return "/" + strings.Join(out, "/"), nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownRoute, name)
}
