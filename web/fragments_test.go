package web_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/hypergopher/downsite/web"
)

func TestCSRF(t *testing.T) {
	handler := newServer(t, web.Options{})
	v := newVisitor(t, handler)
	v.open("/blog/post/hello-world/")

	other := newVisitor(t, handler)
	other.open("/blog/post/hello-world/")

	cases := []struct {
		name         string
		form         url.Values
		headers      map[string]string
		expectedCode int
	}{
		{name: "No token", form: url.Values{}, expectedCode: http.StatusForbidden},
		{name: "Wrong token", form: url.Values{"csrfmiddlewaretoken": {"nope"}}, expectedCode: http.StatusForbidden},
		{name: "Another session's token", form: url.Values{"csrfmiddlewaretoken": {other.token}}, expectedCode: http.StatusForbidden},
		{name: "Form token", form: url.Values{"csrfmiddlewaretoken": {v.token}}, expectedCode: http.StatusOK},
		{name: "Header token", form: url.Values{}, headers: map[string]string{"X-CSRFToken": v.token}, expectedCode: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := v.do(http.MethodPost, "/blog/like/hello-world/", tc.form, tc.headers)
			assert.Equal(t, tc.expectedCode, w.Code)
		})
	}

	// A visitor without any session cannot post
	stranger := newVisitor(t, handler)
	w := stranger.do(http.MethodPost, "/blog/like/hello-world/", url.Values{"csrfmiddlewaretoken": {v.token}}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLikeToggle(t *testing.T) {
	handler := newServer(t, web.Options{})
	v := newVisitor(t, handler)
	v.open("/blog/post/hello-world/")

	w := v.post("/blog/like/hello-world/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="like-section"`)
	assert.Contains(t, w.Body.String(), "Unlike")
	assert.Contains(t, w.Body.String(), "1 like")
	assert.NotContains(t, w.Body.String(), "<html")

	other := newVisitor(t, handler)
	other.open("/blog/post/hello-world/")
	w = other.post("/blog/like/hello-world/", nil)
	assert.Contains(t, w.Body.String(), "2 likes")

	w = v.post("/blog/like/hello-world/", nil)
	assert.Contains(t, w.Body.String(), ">Like<")
	assert.Contains(t, w.Body.String(), "1 like")

	w = v.post("/blog/like/missing-slug/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = v.post("/blog/like/nested%2Fdeep-dive/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/blog/like/nested%2Fdeep-dive/"`)
}

func TestComments(t *testing.T) {
	handler := newServer(t, web.Options{})
	owner := newVisitor(t, handler)
	owner.open("/blog/post/hello-world/")
	other := newVisitor(t, handler)
	other.open("/blog/post/hello-world/")

	w := owner.post("/blog/post/hello-world/comment/", url.Values{
		"author":  {"Carol"},
		"content": {"First <b>comment</b>"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Carol")
	assert.Contains(t, w.Body.String(), "First &lt;b&gt;comment&lt;/b&gt;")
	assert.Contains(t, w.Body.String(), "Edit")

	match := commentItem.FindStringSubmatch(w.Body.String())
	require.Len(t, match, 2)
	id := match[1]

	t.Run("Comment shows on the post", func(t *testing.T) {
		w := other.get("/blog/post/hello-world/")
		assert.Contains(t, w.Body.String(), `id="comment-`+id+`"`)
		// Only the owner gets an edit button
		assert.NotContains(t, w.Body.String(), "/comments/"+id+"/edit/")
	})

	t.Run("Item fragment", func(t *testing.T) {
		w := other.get("/comments/" + id + "/")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Carol")
		assert.NotContains(t, w.Body.String(), "Edit")
	})

	t.Run("Edit form is for the owner only", func(t *testing.T) {
		w := other.get("/comments/" + id + "/edit/")
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = owner.get("/comments/" + id + "/edit/")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "<textarea")
		assert.Contains(t, w.Body.String(), `hx-post="/comments/`+id+`/"`)
	})

	t.Run("Update is for the owner only", func(t *testing.T) {
		w := other.post("/comments/"+id+"/", url.Values{"content": {"Hijacked"}})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = owner.post("/comments/"+id+"/", url.Values{"content": {"Edited"}})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Edited")

		w = owner.post("/comments/"+id+"/", url.Values{"content": {""}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid comments", func(t *testing.T) {
		w := owner.post("/blog/post/hello-world/comment/", url.Values{"content": {""}})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = owner.post("/blog/post/missing-slug/comment/", url.Values{"content": {"Hello?"}})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = owner.get("/comments/missing-id/")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPostRateLimit(t *testing.T) {
	handler := newServer(t, web.Options{PostRate: rate.Every(rate.InfDuration), PostBurst: 2})
	v := newVisitor(t, handler)
	v.open("/blog/post/hello-world/")

	assert.Equal(t, http.StatusOK, v.post("/blog/like/hello-world/", nil).Code)
	assert.Equal(t, http.StatusOK, v.post("/blog/like/hello-world/", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, v.post("/blog/like/hello-world/", nil).Code)
}
