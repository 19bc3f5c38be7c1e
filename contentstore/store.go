// Package contentstore keeps a local, observable copy of a blog's posts,
// categories and current post, synchronized from a remote content API.
package contentstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Post is an API post record. Only the slug is interpreted.
type Post map[string]any

// Slug returns the post's slug, or "" when it has none.
func (p Post) Slug() string {
	slug, _ := p["slug"].(string)
	return slug
}

// Category is an API category record.
type Category map[string]any

// User is the signed-in user record, when the API provides one.
type User map[string]any

// Operation names a fetch operation of the store.
type Operation string

const (
	OpPosts      Operation = "posts"
	OpCategories Operation = "categories"
	OpPost       Operation = "post"
)

// Endpoints are the API paths read by the store. Post is a format string with
// a single %s for the escaped slug.
type Endpoints struct {
	Posts      string
	Categories string
	Post       string
}

// DefaultEndpoints returns the blog API paths.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Posts:      "/blog/posts/",
		Categories: "/blog/categories/",
		Post:       "/blog/posts/%s/",
	}
}

// TrackLoading selects the operations that raise the loading flag.
type TrackLoading struct {
	Posts      bool
	Categories bool
	Post       bool
}

// DefaultTrackLoading tracks posts and the current post. Categories are a
// secondary data set and load quietly.
func DefaultTrackLoading() TrackLoading {
	return TrackLoading{Posts: true, Categories: false, Post: true}
}

func (t TrackLoading) tracks(op Operation) bool {
	switch op {
	case OpPosts:
		return t.Posts
	case OpCategories:
		return t.Categories
	case OpPost:
		return t.Post
	}
	return false
}

// Options configures a Store.
type Options struct {
	Endpoints    *Endpoints    // Endpoints default to DefaultEndpoints.
	TrackLoading *TrackLoading // TrackLoading defaults to DefaultTrackLoading.
	Logger       *slog.Logger  // Logger receives fetch failures. Default discards.
}

// State is a snapshot of the store.
type State struct {
	Posts       []Post
	Categories  []Category
	CurrentPost Post // nil until a post has been fetched
	Loading     bool
	User        User                // nil when no user is set
	Errors      map[Operation]error // last failure per operation, cleared by its next success
}

// Store synchronizes posts, categories and a single post from a Transport.
// Each successful fetch replaces its field wholesale; among concurrent fetches
// of the same field the last response to arrive wins.
type Store struct {
	transport Transport
	endpoints Endpoints
	track     TrackLoading
	logger    *slog.Logger

	mu       sync.Mutex
	state    State
	inFlight int
	closed   bool
	subs     map[int]chan State
	nextSub  int
}

// New creates a store with empty posts and categories and no current post.
func New(t Transport, opts Options) *Store {
	endpoints := DefaultEndpoints()
	if opts.Endpoints != nil {
		endpoints = *opts.Endpoints
	}

	track := DefaultTrackLoading()
	if opts.TrackLoading != nil {
		track = *opts.TrackLoading
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Store{
		transport: t,
		endpoints: endpoints,
		track:     track,
		logger:    logger,
		state: State{
			Posts:      []Post{},
			Categories: []Category{},
			Errors:     map[Operation]error{},
		},
		subs: map[int]chan State{},
	}
}

// FetchPosts replaces Posts with the API's posts list. On failure Posts keeps
// its previous value and the error is recorded under OpPosts and returned.
func (s *Store) FetchPosts(ctx context.Context) error {
	return fetch(ctx, s, OpPosts, s.endpoints.Posts, func(st *State, posts []Post) {
		st.Posts = posts
	})
}

// FetchCategories replaces Categories with the API's categories list.
func (s *Store) FetchCategories(ctx context.Context) error {
	return fetch(ctx, s, OpCategories, s.endpoints.Categories, func(st *State, categories []Category) {
		st.Categories = categories
	})
}

// FetchPost replaces CurrentPost with the post identified by slug. A missing
// post leaves CurrentPost unchanged and returns an error matching ErrNotFound.
func (s *Store) FetchPost(ctx context.Context, slug string) error {
	if slug == "" {
		s.mu.Lock()
		s.recordFailure(OpPost, ErrEmptySlug)
		s.mu.Unlock()
		return ErrEmptySlug
	}

	path := fmt.Sprintf(s.endpoints.Post, url.PathEscape(slug))
	return fetch(ctx, s, OpPost, path, func(st *State, post Post) {
		st.CurrentPost = post
	})
}

// Refresh fetches posts and categories concurrently and returns their joined failures.
func (s *Store) Refresh(ctx context.Context) error {
	var postsErr, categoriesErr error

	// Both fetches always run to completion, so the group only joins them.
	// Their failures are collected separately because Wait keeps just the first.
	var g errgroup.Group
	g.Go(func() error {
		postsErr = s.FetchPosts(ctx)
		return nil
	})
	g.Go(func() error {
		categoriesErr = s.FetchCategories(ctx)
		return nil
	})
	_ = g.Wait()

	return errors.Join(postsErr, categoriesErr)
}

func fetch[T any](ctx context.Context, s *Store, op Operation, path string, apply func(*State, T)) error {
	tracked := s.track.tracks(op)
	s.begin(tracked)
	defer s.end(tracked)

	var body T
	err := s.transport.Get(ctx, path, &body)
	if err == nil {
		err = validBody(op, body)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Debug("dropping response for closed store", slog.String("op", string(op)))
		return ErrClosed
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.logger.Debug("dropping response for cancelled request", slog.String("op", string(op)))
		if err != nil {
			return err
		}
		return ctxErr
	}

	if err != nil {
		s.recordFailure(op, err)
		return err
	}

	apply(&s.state, body)
	delete(s.state.Errors, op)
	s.notify()
	return nil
}

// validBody rejects a JSON null body. Lists must be arrays and the detail
// must be an object.
func validBody(op Operation, body any) error {
	var empty bool
	switch b := body.(type) {
	case []Post:
		empty = b == nil
	case []Category:
		empty = b == nil
	case Post:
		empty = b == nil
	}
	if empty {
		return fmt.Errorf("%w: null %s body", ErrDecode, op)
	}
	return nil
}

// recordFailure must be called with s.mu held.
func (s *Store) recordFailure(op Operation, err error) {
	s.logger.Warn("fetch failed", slog.String("op", string(op)), slog.Any("error", err))
	if s.closed {
		return
	}
	s.state.Errors[op] = err
	s.notify()
}

func (s *Store) begin(tracked bool) {
	if !tracked {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight++
	s.notify()
}

func (s *Store) end(tracked bool) {
	if !tracked {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	s.notify()
}

// State returns a snapshot of the store. The snapshot shares no slices or
// maps with the store.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) snapshot() State {
	posts := make([]Post, len(s.state.Posts))
	for i, p := range s.state.Posts {
		posts[i] = maps.Clone(p)
	}

	categories := make([]Category, len(s.state.Categories))
	for i, c := range s.state.Categories {
		categories[i] = maps.Clone(c)
	}

	return State{
		Posts:       posts,
		Categories:  categories,
		CurrentPost: maps.Clone(s.state.CurrentPost),
		Loading:     s.inFlight > 0,
		User:        maps.Clone(s.state.User),
		Errors:      maps.Clone(s.state.Errors),
	}
}

func (s *Store) Posts() []Post {
	return s.State().Posts
}

func (s *Store) Categories() []Category {
	return s.State().Categories
}

// CurrentPost returns the last fetched post, or nil.
func (s *Store) CurrentPost() Post {
	return s.State().CurrentPost
}

// Loading reports whether a tracked fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// Err returns the last failure of op, or nil if its last fetch succeeded.
func (s *Store) Err(op Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Errors[op]
}

// SetUser sets or clears (nil) the current user.
func (s *Store) SetUser(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state.User = maps.Clone(user)
	s.notify()
}

func (s *Store) User() User {
	return s.State().User
}

// Subscribe returns a channel that receives the newest snapshot after every
// change. A slow reader skips intermediate snapshots. The returned func
// unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

// notify must be called with s.mu held.
func (s *Store) notify() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshot()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Close tears the store down. Responses arriving afterwards are dropped and
// all subscriptions are closed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
