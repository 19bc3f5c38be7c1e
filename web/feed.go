package web

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
)

const feedSize = 20

func (s *Server) feed(c *gin.Context) {
	posts, err := s.site.GetAllPublishedArticles()
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Failed to generate RSS")
		return
	}
	if len(posts) > feedSize {
		posts = posts[:feedSize]
	}

	baseURL := strings.TrimRight(s.opts.BaseURL, "/")
	feed := &feeds.Feed{
		Title:       s.opts.SiteName,
		Link:        &feeds.Link{Href: baseURL + "/"},
		Description: "Latest posts from " + s.opts.SiteName,
		Created:     s.opts.Now(),
	}

	for _, post := range posts {
		item := &feeds.Item{
			Id:          post.ID(),
			Title:       post.Name,
			Link:        &feeds.Link{Href: baseURL + postURL(post.Slug)},
			Description: post.Summary,
			Created:     post.Published,
			Updated:     post.Updated,
			Content:     post.Content,
		}
		if post.HasAuthors() {
			item.Author = &feeds.Author{Name: s.authorNames(post.Authors)}
		}
		feed.Items = append(feed.Items, item)
	}

	rss, err := feed.ToRss()
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Failed to generate RSS")
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 urlset"`
	URLs    []sitemapURL `xml:"url"`
}

func (s *Server) sitemap(c *gin.Context) {
	baseURL := strings.TrimRight(s.opts.BaseURL, "/")

	posts, err := s.site.GetAllPublishedArticles()
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Failed to generate sitemap")
		return
	}
	categories, err := s.site.GetCategories()
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Failed to generate sitemap")
		return
	}

	urls := []sitemapURL{
		{Loc: baseURL + "/", ChangeFreq: "daily", Priority: "1.0"},
		{Loc: baseURL + "/blog/", ChangeFreq: "daily", Priority: "0.6"},
		{Loc: baseURL + "/about/", Priority: "0.5"},
	}
	for _, category := range categories {
		urls = append(urls, sitemapURL{Loc: baseURL + "/blog/category/" + category.Slug + "/", Priority: "0.4"})
	}
	for _, post := range posts {
		urls = append(urls, sitemapURL{
			Loc:        baseURL + postURL(post.Slug),
			LastMod:    post.Updated.Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	out, err := xml.MarshalIndent(sitemapURLSet{URLs: urls}, "", "  ")
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Failed to generate sitemap")
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), out...))
}

func (s *Server) robots(c *gin.Context) {
	baseURL := strings.TrimRight(s.opts.BaseURL, "/")
	c.String(http.StatusOK, "User-agent: *\nDisallow: /api/\nDisallow: /comments/\n\nSitemap: %s/sitemap.xml\n", baseURL)
}
