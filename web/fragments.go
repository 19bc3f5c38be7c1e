package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type commentForm struct {
	Author  string `form:"author" binding:"max=80"`
	Content string `form:"content" binding:"required,max=2000"`
}

type commentEditForm struct {
	Content string `form:"content" binding:"required,max=2000"`
}

func (s *Server) toggleLike(c *gin.Context) {
	sess := currentSession(c)
	slug := c.Param("slug")

	liked, likes, err := s.site.ToggleLike(slug, sess.ID)
	if err != nil {
		s.fragmentError(c, err)
		return
	}

	s.fragment(c, http.StatusOK, "like-section", likeData{
		Slug:      slug,
		Liked:     liked,
		Likes:     likes,
		CSRFToken: sess.CSRFToken,
	})
}

func (s *Server) addComment(c *gin.Context) {
	sess := currentSession(c)

	var form commentForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "A comment needs some content.")
		return
	}

	comment, err := s.site.AddComment(c.Param("slug"), form.Author, sess.ID, form.Content)
	if err != nil {
		s.fragmentError(c, err)
		return
	}

	s.fragment(c, http.StatusCreated, "comment-item", commentData{
		Comment:   comment,
		Editable:  true,
		CSRFToken: sess.CSRFToken,
	})
}

func (s *Server) comment(c *gin.Context) {
	sess := currentSession(c)

	comment, err := s.site.GetComment(c.Param("id"))
	if err != nil {
		s.fragmentError(c, err)
		return
	}

	s.fragment(c, http.StatusOK, "comment-item", commentData{
		Comment:   comment,
		Editable:  comment.CanEdit(sess.ID),
		CSRFToken: sess.CSRFToken,
	})
}

func (s *Server) editComment(c *gin.Context) {
	sess := currentSession(c)

	comment, err := s.site.GetComment(c.Param("id"))
	if err != nil {
		s.fragmentError(c, err)
		return
	}
	if !comment.CanEdit(sess.ID) {
		c.String(http.StatusForbidden, "You can only edit your own comments.")
		return
	}

	s.fragment(c, http.StatusOK, "comment-edit-form", commentData{
		Comment:   comment,
		Editable:  true,
		CSRFToken: sess.CSRFToken,
	})
}

func (s *Server) updateComment(c *gin.Context) {
	sess := currentSession(c)

	var form commentEditForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "A comment needs some content.")
		return
	}

	comment, err := s.site.UpdateComment(c.Param("id"), sess.ID, form.Content)
	if err != nil {
		s.fragmentError(c, err)
		return
	}

	s.fragment(c, http.StatusOK, "comment-item", commentData{
		Comment:   comment,
		Editable:  true,
		CSRFToken: sess.CSRFToken,
	})
}

func (s *Server) fragmentError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.String(code, http.StatusText(code))
}
