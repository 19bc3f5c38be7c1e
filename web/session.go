package web

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	sessionCookieName = "downsite_session"
	sessionTTL        = 14 * 24 * time.Hour
	sessionSweep      = time.Minute
	sessionKey        = "session"
	csrfFormField     = "csrfmiddlewaretoken"
	csrfHeader        = "X-CSRFToken"
)

// session identifies a visitor. Guests own their comments and likes through it.
type session struct {
	ID        string
	CSRFToken string
	expiresAt time.Time
	limiter   *rate.Limiter
}

// sessionStore holds at most max sessions. Expired ones are swept out at
// most once per sessionSweep; when still full, the session closest to expiry
// is evicted.
type sessionStore struct {
	mu        sync.Mutex
	sessions  map[string]*session
	now       func() time.Time
	limit     rate.Limit
	burst     int
	max       int
	nextSweep time.Time
}

func newSessionStore(now func() time.Time, limit rate.Limit, burst, maxSessions int) *sessionStore {
	return &sessionStore{
		sessions: map[string]*session{},
		now:      now,
		limit:    limit,
		burst:    burst,
		max:      maxSessions,
	}
}

func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	if st.now().After(sess.expiresAt) {
		delete(st.sessions, id)
		return nil, false
	}
	return sess, true
}

func (st *sessionStore) create() (*session, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}

	sess := &session{
		ID:        uuid.NewString(),
		CSRFToken: base64.RawURLEncoding.EncodeToString(buf),
		expiresAt: st.now().Add(sessionTTL),
		limiter:   rate.NewLimiter(st.limit, st.burst),
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if now := st.now(); !now.Before(st.nextSweep) {
		st.sweep(now)
	}
	for len(st.sessions) >= st.max {
		st.evictOldest()
	}
	st.sessions[sess.ID] = sess
	return sess, nil
}

func (st *sessionStore) count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// sweep must be called with st.mu held.
func (st *sessionStore) sweep(now time.Time) {
	for id, sess := range st.sessions {
		if now.After(sess.expiresAt) {
			delete(st.sessions, id)
		}
	}
	st.nextSweep = now.Add(sessionSweep)
}

// evictOldest must be called with st.mu held.
func (st *sessionStore) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, sess := range st.sessions {
		if oldestID == "" || sess.expiresAt.Before(oldest) {
			oldestID, oldest = id, sess.expiresAt
		}
	}
	delete(st.sessions, oldestID)
}

// session loads the visitor's session from its cookie, starting a new one
// when the cookie is missing or stale.
func (s *Server) session() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := c.Cookie(sessionCookieName); err == nil {
			if sess, ok := s.sessions.get(id); ok {
				c.Set(sessionKey, sess)
				c.Next()
				return
			}
		}

		sess, err := s.sessions.create()
		if err != nil {
			_ = c.AbortWithError(http.StatusInternalServerError, err)
			return
		}

		http.SetCookie(c.Writer, &http.Cookie{
			Name:     sessionCookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Expires:  sess.expiresAt,
		})
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// csrf rejects unsafe requests that do not carry the session's token, and
// throttles the ones that do.
func (s *Server) csrf() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		sess := currentSession(c)
		token := c.PostForm(csrfFormField)
		if token == "" {
			token = c.GetHeader(csrfHeader)
		}

		if sess == nil || token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(sess.CSRFToken)) != 1 {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		if !sess.limiter.Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}

		c.Next()
	}
}

func currentSession(c *gin.Context) *session {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := value.(*session)
	return sess
}
