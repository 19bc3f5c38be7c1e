package downsite

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	TaxonomyCategories = "categories"
	TaxonomyTags       = "tags"
)

// Post represents a Markdown post
type Post struct {
	Slug              string              `json:"slug"`              // Slug is the URL-friendly version of the name
	PostType          string              `json:"postType"`          // PostType is the type of post (e.g. articles, pages)
	Authors           []string            `json:"authors"`           // Authors is a list of authors
	Content           string              `json:"content"`           // Content is the HTML content of the post
	ETag              string              `json:"etag"`              // ETag is the entity tag
	EstimatedReadTime string              `json:"estimatedReadTime"` // EstimatedReadTime is the estimated reading time
	Featured          bool                `json:"featured"`          // Featured is true if the post is featured
	Photo             string              `json:"photo"`             // Photo is the URL of the featured image
	FileTimePath      string              `json:"fileTimePath"`      // FileTimePath is the YYYY-MM-DD date taken from the original file name
	Updated           time.Time           `json:"updated"`           // Updated is the last modified date
	Name              string              `json:"name"`              // Name is the name/title of the post
	Properties        map[string]any      `json:"properties"`        // Properties holds additional, arbitrary frontmatter values
	Published         time.Time           `json:"published"`         // Published is the published date
	Status            string              `json:"status"`            // Status is one of draft, published, or archived
	Subtitle          string              `json:"subtitle"`          // Subtitle is the subtitle
	Summary           string              `json:"summary"`           // Summary is the summary
	Taxonomies        map[string][]string `json:"taxonomies"`        // Taxonomies is a map of taxonomies (e.g. tags, categories)
	Visibility        string              `json:"visibility"`        // Visibility is one of public, private, or unlisted
}

// PostMeta represents the frontmatter of a post
type PostMeta struct {
	Authors    []string            `yaml:"authors,omitempty" toml:"authors,omitempty"`
	Featured   bool                `yaml:"featured,omitempty" toml:"featured,omitempty"`
	Photo      string              `yaml:"photo,omitempty" toml:"photo,omitempty"`
	Updated    time.Time           `yaml:"updated,omitempty" toml:"updated,omitempty"`
	Name       string              `yaml:"name,omitempty" toml:"name,omitempty"`
	Properties map[string]any      `yaml:"properties,omitempty" toml:"properties,omitempty"`
	Published  time.Time           `yaml:"published,omitempty" toml:"published,omitempty"`
	Status     string              `yaml:"status,omitempty" toml:"status,omitempty"`
	Subtitle   string              `yaml:"subtitle,omitempty" toml:"subtitle,omitempty"`
	Summary    string              `yaml:"summary,omitempty" toml:"summary,omitempty"`
	Taxonomies map[string][]string `yaml:"taxonomies,omitempty" toml:"taxonomies,omitempty"`
	Visibility string              `yaml:"visibility,omitempty" toml:"visibility,omitempty"`
}

func (dm *PostMeta) Validate() error {
	// Status must be one of draft, published, or archived
	switch dm.Status {
	case "draft", "published", "archived", "":
		break
	default:
		return fmt.Errorf("%w: status '%s' is not valid", ErrInvalidPostMeta, dm.Status)
	}

	// Visibility must be one of public, private, or unlisted
	switch dm.Visibility {
	case "public", "private", "unlisted", "":
		break
	default:
		return fmt.Errorf("%w: visibility '%s' is not valid", ErrInvalidPostMeta, dm.Visibility)
	}

	return nil
}

// ID returns the unique identifier for the post
func (d *Post) ID() string {
	return PostID(d.PostType, d.Slug)
}

// BleveType tells bleve to index the post with the "post" document mapping.
func (d *Post) BleveType() string {
	return "post"
}

func IsValidPostPath(path string) bool {
	return strings.TrimSpace(path) != ""
}

// PostID returns the unique identifier for a post of the specified type and slug
func PostID(postType, slug string) string {
	return fmt.Sprintf("%s/%s", postType, slug)
}

// SlugWithoutDate returns the slug without a file time path (if it exists)
func (d *Post) SlugWithoutDate() string {
	if d.HasFileTimeInSlug() {
		lastSlash := strings.LastIndex(d.Slug, "/")
		filePart := d.Slug[lastSlash+1:]

		if hasFileTimeInSlug(filePart) {
			if lastSlash == -1 {
				return filePart[11:]
			}
			return d.Slug[:lastSlash] + "/" + filePart[11:]
		}
	}
	return d.Slug
}

// HasName returns true if the post has a non-empty name
func (d *Post) HasName() bool {
	return d.Name != ""
}

// HasSummary returns true if the post has a summary
func (d *Post) HasSummary() bool {
	return d.Summary != ""
}

// HasFileTimeInSlug returns true if the post has a file time path. This is the date part of the original file path.
func (d *Post) HasFileTimeInSlug() bool {
	return d.FileTimePath != ""
}

// HasPublished returns true if the post has a published date
func (d *Post) HasPublished() bool {
	return !d.Published.IsZero()
}

// PublishedDate returns the published date in the format Jan 2, 2006
func (d *Post) PublishedDate() string {
	if !d.HasPublished() {
		return ""
	}

	return d.Published.Format("Jan 2, 2006")
}

// IsPublished returns true when the post is published and publicly visible.
func (d *Post) IsPublished() bool {
	return d.Status == "published" && d.Visibility == "public"
}

// HasAuthors returns true if the post has authors
func (d *Post) HasAuthors() bool {
	return len(d.Authors) > 0
}

// Author returns the authors joined for display.
func (d *Post) Author() string {
	return strings.Join(d.Authors, ", ")
}

// HasTaxonomy returns true if the post has the specified taxonomy
func (d *Post) HasTaxonomy(taxonomy string) bool {
	if len(d.Taxonomies) == 0 {
		return false
	}
	_, ok := d.Taxonomies[taxonomy]
	return ok
}

// Taxonomy returns the specified taxonomy
func (d *Post) Taxonomy(taxonomy string) []string {
	if !d.HasTaxonomy(taxonomy) {
		return nil
	}
	return d.Taxonomies[taxonomy]
}

// Category returns the post's primary category, the first term of the categories taxonomy.
func (d *Post) Category() string {
	terms := d.Taxonomy(TaxonomyCategories)
	if len(terms) == 0 {
		return ""
	}
	return terms[0]
}

// HasPhoto returns true if the post has a featured image
func (d *Post) HasPhoto() bool {
	return d.Photo != ""
}

// Meta returns the frontmatter representation of the post.
func (d *Post) Meta() *PostMeta {
	return &PostMeta{
		Authors:    d.Authors,
		Featured:   d.Featured,
		Photo:      d.Photo,
		Updated:    d.Updated,
		Name:       d.Name,
		Properties: d.Properties,
		Published:  d.Published,
		Status:     d.Status,
		Subtitle:   d.Subtitle,
		Summary:    d.Summary,
		Taxonomies: d.Taxonomies,
		Visibility: d.Visibility,
	}
}

// Serialize serializes the post to a byte slice
func (d *Post) Serialize() ([]byte, error) {
	return json.Marshal(d)
}

// Deserialize deserializes the byte slice to a post
func Deserialize(data []byte) (*Post, error) {
	var doc Post
	err := json.Unmarshal(data, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
