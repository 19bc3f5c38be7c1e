package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/hypergopher/downsite"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFiles embed.FS

var pageNames = []string{"home", "blog", "post", "about", "not-found"}

// views holds one template set per page, each combining the layout, the
// shared fragments and the page's own content block.
type views struct {
	fragments *template.Template
	pages     map[string]*template.Template
}

func newViews(funcs template.FuncMap) (*views, error) {
	base, err := template.New("base").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/fragments.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		page, err := clone.ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", name, err)
		}
		pages[name] = page
	}

	return &views{fragments: base, pages: pages}, nil
}

func staticFS() http.FileSystem {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// page renders a full page inside the layout.
func (s *Server) page(c *gin.Context, code int, name string, data pageData) {
	data.SiteName = s.opts.SiteName
	if sess := currentSession(c); sess != nil {
		data.CSRFToken = sess.CSRFToken
	}
	c.Render(code, render.HTML{Template: s.views.pages[name], Name: "layout", Data: data})
}

// fragment renders one of the shared fragments without the layout.
func (s *Server) fragment(c *gin.Context, code int, name string, data any) {
	c.Render(code, render.HTML{Template: s.views.fragments, Name: name, Data: data})
}

func (s *Server) funcs() template.FuncMap {
	return template.FuncMap{
		"postURL": postURL,
		"likeURL": func(slug string) string {
			return "/blog/like/" + url.PathEscape(slug) + "/"
		},
		"categoryURL": func(name string) string {
			return "/blog/category/" + url.PathEscape(downsite.Slugify(name)) + "/"
		},
		"authorNames": s.authorNames,
		"safeHTML": func(content string) template.HTML {
			return template.HTML(content)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"isoDate": func(t time.Time) string {
			return t.Format(time.RFC3339)
		},
	}
}

func postURL(slug string) string {
	return "/blog/post/" + url.PathEscape(slug) + "/"
}

// pageData is passed to every page template.
type pageData struct {
	SiteName   string
	Title      string
	CSRFToken  string
	Featured   []*downsite.Post
	List       postListData
	Categories []downsite.Category
	Category   *downsite.Category
	Post       *postView
	Page       *downsite.Post
	Message    string
}

type postView struct {
	*downsite.Post
	Like     likeData
	Comments []commentData
	Views    int
}

type likeData struct {
	Slug      string
	Liked     bool
	Likes     int
	CSRFToken string
}

type commentData struct {
	Comment   *downsite.Comment
	Editable  bool
	CSRFToken string
}

// postListData feeds the post-list fragment, which also serves infinite scroll.
type postListData struct {
	Posts    []*downsite.Post
	Total    int
	HasNext  bool
	NextPage int
	ListURL  string
}

func newPostListData(p downsite.Paginator, listURL string) postListData {
	return postListData{
		Posts:    p.AllPosts,
		Total:    p.TotalPosts,
		HasNext:  p.HasNext,
		NextPage: p.NextPage,
		ListURL:  listURL,
	}
}
