package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hypergopher/downsite"
)

func (s *Server) home(c *gin.Context) {
	paginator, err := s.site.GetPosts(downsite.FilterOptions{
		FilterPostType: downsite.PostTypeKeyArticle,
		PageSize:       s.opts.PageSize,
		SplitFeatured:  true,
	})
	if err != nil {
		s.serverError(c, err)
		return
	}

	categories, err := s.site.GetCategories()
	if err != nil {
		s.serverError(c, err)
		return
	}

	s.page(c, http.StatusOK, "home", pageData{
		Title:    "Home",
		Featured: paginator.FeaturedPosts,
		List: postListData{
			Posts: paginator.NonFeaturedPosts,
			Total: paginator.TotalPosts,
		},
		Categories: categories,
	})
}

func pageNum(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// isPartial reports whether htmx asked for a fragment instead of a full page.
func isPartial(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

func (s *Server) blog(c *gin.Context) {
	s.listPosts(c, "Blog", "/blog/", nil)
}

func (s *Server) category(c *gin.Context) {
	category, ok, err := s.site.GetCategory(c.Param("slug"))
	if err != nil {
		s.serverError(c, err)
		return
	}
	if !ok {
		s.notFound(c)
		return
	}

	s.listPosts(c, category.Name, "/blog/category/"+category.Slug+"/", &category)
}

func (s *Server) listPosts(c *gin.Context, title, listURL string, category *downsite.Category) {
	filter := downsite.FilterOptions{
		FilterPostType: downsite.PostTypeKeyArticle,
		PageNum:        pageNum(c),
		PageSize:       s.opts.PageSize,
	}
	if category != nil {
		filter.FilterType = downsite.FilterTypeTaxonomy
		filter.FilterKey = downsite.TaxonomyCategories
		filter.FilterTerm = category.Name
	}

	paginator, err := s.site.GetPosts(filter)
	if err != nil {
		s.serverError(c, err)
		return
	}
	list := newPostListData(paginator, listURL)

	if isPartial(c) {
		s.fragment(c, http.StatusOK, "post-list", list)
		return
	}

	categories, err := s.site.GetCategories()
	if err != nil {
		s.serverError(c, err)
		return
	}

	s.page(c, http.StatusOK, "blog", pageData{
		Title:      title,
		List:       list,
		Categories: categories,
		Category:   category,
	})
}

func (s *Server) post(c *gin.Context) {
	slug := c.Param("slug")
	post, err := s.site.GetPublishedArticle(slug)
	if err != nil {
		if errors.Is(err, downsite.ErrPostNotFound) {
			s.notFound(c)
			return
		}
		s.serverError(c, err)
		return
	}

	views, err := s.site.IncrementViews(slug)
	if err != nil {
		s.serverError(c, err)
		return
	}

	sess := currentSession(c)
	view, err := s.postView(post, sess)
	if err != nil {
		s.serverError(c, err)
		return
	}
	view.Views = views

	s.page(c, http.StatusOK, "post", pageData{
		Title: post.Name,
		Post:  view,
	})
}

func (s *Server) postView(post *downsite.Post, sess *session) (*postView, error) {
	comments, err := s.site.ListComments(post.Slug)
	if err != nil {
		return nil, err
	}

	likes, err := s.site.LikeCount(post.Slug)
	if err != nil {
		return nil, err
	}

	liked, err := s.site.HasLiked(post.Slug, sess.ID)
	if err != nil {
		return nil, err
	}

	view := &postView{
		Post: post,
		Like: likeData{
			Slug:      post.Slug,
			Liked:     liked,
			Likes:     likes,
			CSRFToken: sess.CSRFToken,
		},
	}
	for _, comment := range comments {
		view.Comments = append(view.Comments, commentData{
			Comment:   comment,
			Editable:  comment.CanEdit(sess.ID),
			CSRFToken: sess.CSRFToken,
		})
	}
	return view, nil
}

func (s *Server) about(c *gin.Context) {
	page, err := s.site.GetPost(downsite.PostTypeKeyPage, "about")
	if err != nil && !errors.Is(err, downsite.ErrPostNotFound) {
		s.serverError(c, err)
		return
	}

	s.page(c, http.StatusOK, "about", pageData{
		Title: "About",
		Page:  page,
	})
}

func (s *Server) notFound(c *gin.Context) {
	if isPartial(c) {
		c.String(http.StatusNotFound, "Not found")
		return
	}
	s.page(c, http.StatusNotFound, "not-found", pageData{
		Title:   "Not found",
		Message: "The page you were looking for does not exist.",
	})
}

func (s *Server) serverError(c *gin.Context, err error) {
	_ = c.Error(err)
	if isPartial(c) {
		c.String(http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.page(c, http.StatusInternalServerError, "not-found", pageData{
		Title:   "Error",
		Message: "Something went wrong.",
	})
}
