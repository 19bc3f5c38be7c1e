package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hypergopher/downsite"
)

// apiPost is a post in the list endpoint.
type apiPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Author    string    `json:"author"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	Content   string    `json:"content"`
}

// apiPostDetail is a post in the detail endpoint.
type apiPostDetail struct {
	apiPost
	Subtitle          string       `json:"subtitle"`
	Summary           string       `json:"summary"`
	Tags              []string     `json:"tags"`
	Featured          bool         `json:"featured"`
	Photo             string       `json:"photo"`
	EstimatedReadTime string       `json:"estimated_read_time"`
	UpdatedAt         time.Time    `json:"updated_at"`
	Comments          []apiComment `json:"comments"`
	Likes             int          `json:"likes"`
	Views             int          `json:"views"`
}

type apiComment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) authorNames(usernames []string) string {
	names := make([]string, 0, len(usernames))
	for _, username := range usernames {
		names = append(names, s.site.AuthorName(username))
	}
	return strings.Join(names, ", ")
}

func (s *Server) toAPIPost(post *downsite.Post) apiPost {
	return apiPost{
		ID:        post.ID(),
		Title:     post.Name,
		Slug:      post.Slug,
		Author:    s.authorNames(post.Authors),
		Category:  post.Category(),
		CreatedAt: post.Published,
		Content:   post.Content,
	}
}

func (s *Server) apiPosts(c *gin.Context) {
	posts, err := s.site.GetAllPublishedArticles()
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Unable to list posts."})
		return
	}

	out := make([]apiPost, 0, len(posts))
	for _, post := range posts {
		out = append(out, s.toAPIPost(post))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) apiPost(c *gin.Context) {
	slug := c.Param("slug")
	post, err := s.site.GetPublishedArticle(slug)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusNotFound {
			c.JSON(code, gin.H{"detail": "Not found."})
			return
		}
		_ = c.Error(err)
		c.JSON(code, gin.H{"detail": "Unable to load post."})
		return
	}

	comments, err := s.site.ListComments(slug)
	if err != nil {
		_ = c.Error(err)
	}
	likes, err := s.site.LikeCount(slug)
	if err != nil {
		_ = c.Error(err)
	}
	views, err := s.site.Views(slug)
	if err != nil {
		_ = c.Error(err)
	}

	detail := apiPostDetail{
		apiPost:           s.toAPIPost(post),
		Subtitle:          post.Subtitle,
		Summary:           post.Summary,
		Tags:              post.Taxonomy(downsite.TaxonomyTags),
		Featured:          post.Featured,
		Photo:             post.Photo,
		EstimatedReadTime: post.EstimatedReadTime,
		UpdatedAt:         post.Updated,
		Comments:          make([]apiComment, 0, len(comments)),
		Likes:             likes,
		Views:             views,
	}
	if detail.Tags == nil {
		detail.Tags = []string{}
	}
	for _, comment := range comments {
		detail.Comments = append(detail.Comments, apiComment{
			ID:        comment.ID,
			Author:    comment.Author,
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, detail)
}

func (s *Server) apiCategories(c *gin.Context) {
	categories, err := s.site.GetCategories()
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Unable to list categories."})
		return
	}
	c.JSON(http.StatusOK, categories)
}
