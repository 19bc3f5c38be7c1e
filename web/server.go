// Package web serves the blog: a JSON API for the content store, server
// rendered pages, and the HTML fragments swapped in by htmx.
package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/hypergopher/downsite"
)

// Options configures a Server.
type Options struct {
	SiteName    string       // SiteName is shown in page titles and the feed. Default is "downsite".
	BaseURL     string       // BaseURL is the public URL used in the feed and sitemap.
	PageSize    int          // PageSize is the number of posts per blog page. Default is 5.
	PostRate    rate.Limit   // PostRate limits form posts per session. Default is one per second.
	PostBurst   int          // PostBurst is the number of form posts allowed at once. Default is 10.
	MaxSessions int          // MaxSessions caps live visitor sessions. Default is 10000.
	Logger      *slog.Logger // Logger receives request and error logs. Default discards.
	Now         func() time.Time
}

// Server routes HTTP requests to a Site.
type Server struct {
	site     *downsite.Site
	opts     Options
	logger   *slog.Logger
	engine   *gin.Engine
	sessions *sessionStore
	metrics  *metrics
	views    *views
}

// New creates a Server for site.
func New(site *downsite.Site, opts Options) (*Server, error) {
	if site == nil {
		return nil, errors.New("site is required")
	}
	if opts.SiteName == "" {
		opts.SiteName = "downsite"
	}
	if opts.PageSize < 1 {
		opts.PageSize = 5
	}
	if opts.PostRate == 0 {
		opts.PostRate = rate.Every(time.Second)
	}
	if opts.PostBurst < 1 {
		opts.PostBurst = 10
	}
	if opts.MaxSessions < 1 {
		opts.MaxSessions = 10000
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		site:     site,
		opts:     opts,
		logger:   opts.Logger,
		sessions: newSessionStore(opts.Now, opts.PostRate, opts.PostBurst, opts.MaxSessions),
		metrics:  newMetrics(),
	}

	views, err := newViews(s.funcs())
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	s.views = views

	s.engine = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	// Escaped slashes in a slug stay inside one path segment
	r.UseRawPath = true
	r.Use(gin.Recovery(), s.requestLogger(), s.metrics.middleware())

	r.GET("/metrics", s.metrics.handler())
	r.GET("/robots.txt", s.robots)
	r.GET("/sitemap.xml", s.sitemap)
	r.GET("/feed", s.feed)
	r.StaticFS("/static", staticFS())

	api := r.Group("/api/blog")
	api.GET("/posts/", s.apiPosts)
	api.GET("/posts/:slug/", s.apiPost)
	api.GET("/categories/", s.apiCategories)

	site := r.Group("/", s.session(), s.csrf())

	site.GET("/", s.home)
	site.GET("/about/", s.about)
	site.GET("/blog/", s.blog)
	site.GET("/blog/category/:slug/", s.category)
	site.GET("/blog/post/:slug/", s.post)
	site.POST("/blog/post/:slug/comment/", s.addComment)
	site.POST("/blog/like/:slug/", s.toggleLike)
	site.GET("/comments/:id/", s.comment)
	site.GET("/comments/:id/edit/", s.editComment)
	site.POST("/comments/:id/", s.updateComment)

	r.NoRoute(s.notFound)
	return r
}

// requestLogger logs one line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
		for _, err := range c.Errors {
			s.logger.Error("request error", slog.String("path", c.Request.URL.Path), slog.Any("error", err.Err))
		}
	}
}

// statusFor maps a content error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, downsite.ErrPostNotFound), errors.Is(err, downsite.ErrCommentNotFound):
		return http.StatusNotFound
	case errors.Is(err, downsite.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, downsite.ErrInvalidComment):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
