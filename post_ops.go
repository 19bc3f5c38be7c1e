package downsite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// CreatePost creates a new post on the filesystem and indexes it. If the post already exists, an error will be returned.
func (s *Site) CreatePost(postType, path, content string, meta *PostMeta) (string, error) {
	if err := s.validatePost(postType, path, content, meta); err != nil {
		return "", err
	}

	filePath := filepath.Join(s.markDir, postType, path+".md")

	// Check if file already exists
	if _, err := os.Stat(filePath); err == nil {
		return filePath, ErrPostExists
	}

	return s.savePost(postType, path, content, meta)
}

// UpdatePost updates an existing post on the filesystem and indexes it. If the post does not exist, an error will be returned.
func (s *Site) UpdatePost(postType, path, content string, meta *PostMeta) (string, error) {
	if err := s.validatePost(postType, path, content, meta); err != nil {
		return "", err
	}

	filePath := filepath.Join(s.markDir, postType, path+".md")

	// Check if file exists
	if _, err := os.Stat(filePath); err != nil {
		return filePath, ErrPostNotFound
	}

	return s.savePost(postType, path, content, meta)
}

// DeletePost deletes a post from the filesystem and deindexes it. If the post does not exist, an error will be returned.
func (s *Site) DeletePost(postType, path string) error {
	if err := s.validatePost(postType, path, "deleting", nil); err != nil {
		return err
	}

	filePath := filepath.Join(s.markDir, postType, path+".md")
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	if err := s.DeIndexPost(PostID(postType, path)); err != nil {
		return fmt.Errorf("post was deleted but failed to deindex: %w", err)
	}

	return nil
}

func (s *Site) validatePost(postType, path, content string, meta *PostMeta) error {
	if !s.postTypes.IsValidTypeKey(postType) {
		return ErrInvalidPostType
	}

	if !IsValidPostPath(path) {
		return ErrInvalidPostSlug
	}

	if strings.TrimSpace(content) == "" {
		return ErrMissingPostContent
	}

	if meta != nil {
		if err := meta.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// savePost saves a post to the filesystem and indexes it. If the post already exists, it will be overwritten.
func (s *Site) savePost(postType, path, content string, meta *PostMeta) (string, error) {
	filePath := filepath.Join(s.markDir, postType, path+".md")

	// Create directory if it doesn't exist
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if meta == nil {
		meta = &PostMeta{}
	}

	// Update post metadata
	meta.Updated = s.now()

	// Generate frontmatter
	frontmatter, err := s.generateFrontmatter(meta)
	if err != nil {
		return filePath, fmt.Errorf("failed to generate frontmatter: %w", err)
	}

	// Combine frontmatter and content
	var fileContent string
	switch s.frontmatterFormat {
	case FrontmatterYAML:
		fileContent = fmt.Sprintf("---\n%s---\n\n%s", frontmatter, content)
	case FrontmatterTOML:
		fileContent = fmt.Sprintf("+++\n%s+++\n\n%s", frontmatter, content)
	}

	// Write to file
	if err := os.WriteFile(filePath, []byte(fileContent), 0644); err != nil {
		return filePath, fmt.Errorf("failed to write file: %w", err)
	}

	typeRule, ok := s.postTypes[PostTypeKey(postType)]
	if !ok {
		return filePath, ErrInvalidPostType
	}

	doc, err := ReadFile(s.mdParser, s.markDir, filePath, typeRule)
	if err != nil {
		return filePath, fmt.Errorf("post was saved but failed to read back: %w", err)
	}

	err = s.IndexPost(doc)
	if err != nil {
		return filePath, fmt.Errorf("post was saved but failed to index: %w", err)
	}

	return filePath, nil
}

func (s *Site) generateFrontmatter(meta *PostMeta) (string, error) {
	var frontmatter strings.Builder

	if meta == nil {
		return "", nil
	}

	switch s.frontmatterFormat {
	case FrontmatterYAML:
		yamlData, err := yaml.Marshal(meta)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML frontmatter: %w", err)
		}
		frontmatter.Write(yamlData)

	case FrontmatterTOML:
		encoder := toml.NewEncoder(&frontmatter)
		if err := encoder.Encode(meta); err != nil {
			return "", fmt.Errorf("failed to marshal TOML frontmatter: %w", err)
		}

	default:
		return "", fmt.Errorf("unsupported frontmatter format: %s", s.frontmatterFormat)
	}

	return frontmatter.String(), nil
}

// CreateArticle creates a blog post whose slug is derived from its title, the
// way a post without an explicit slug is named.
func (s *Site) CreateArticle(content string, meta *PostMeta) (string, error) {
	if meta == nil || strings.TrimSpace(meta.Name) == "" {
		return "", fmt.Errorf("%w: a title is required", ErrInvalidPostMeta)
	}

	slug := Slugify(meta.Name)
	if slug == "" {
		return "", ErrInvalidPostSlug
	}

	if _, err := s.CreatePost(PostTypeKeyArticle.String(), slug, content, meta); err != nil {
		return "", err
	}

	return slug, nil
}
