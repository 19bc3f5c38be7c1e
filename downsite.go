package downsite

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.etcd.io/bbolt"
)

const (
	bboltFile        = "downsite.db"
	bleveFile        = "downsite.bleve"
	bucketPosts      = "posts"
	bucketTaxonomies = "taxonomies"
	bucketComments   = "comments"
	bucketLikes      = "likes"
	bucketViews      = "views"
)

type FrontmatterFormat string

const (
	FrontmatterTOML FrontmatterFormat = "toml"
	FrontmatterYAML FrontmatterFormat = "yaml"
)

// Site indexes the markdown content of a blog and keeps the reader-generated
// data (comments, likes, view counts) next to it.
type Site struct {
	authors           map[string]Author
	bleveIndex        bleve.Index
	boltIndex         *bbolt.DB
	dataDir           string
	frontmatterFormat FrontmatterFormat
	logger            *slog.Logger
	markDir           string
	mdParser          MarkdownParserFunc
	mu                sync.Mutex
	now               func() time.Time
	taxonomies        map[string]string
	postTypes         PostTypesMap
}

// Options is a struct for configuring a new Site instance.
type Options struct {
	Authors           map[string]Author  // Authors is a map of author usernames to Author structs.
	ClearIndexes      bool               // ClearIndexes will remove existing indexes before reindexing.
	DataDir           string             // DataDir is the directory where the bolt and bleve indexes are stored.
	FrontMatterFormat FrontmatterFormat  // FrontMatterFormat is the format used for frontmatter in new markdown files. Default is TOML.
	Logger            *slog.Logger       // Logger is the logger used by the Site. Default is a debug logger to stderr.
	MarkDir           string             // MarkDir is the directory where markdown files are stored.
	MarkdownParser    MarkdownParserFunc // MarkdownParser is the function used to parse markdown files. A default parser is used if not provided.
	Now               func() time.Time   // Now is the clock used for comment and post timestamps. Default is time.Now.
	Reindex           bool               // Reindex will reindex all markdown files when the Site is opened.
	Taxonomies        map[string]string  // Taxonomies is a map of taxonomy plural names to their singular names.
}

// New opens (or creates) the indexes for a Site with the provided options.
func New(opts Options) (*Site, error) {
	if opts.MarkDir == "" || opts.DataDir == "" {
		return nil, errors.New("MarkDir and DataDir are required")
	}

	if opts.MarkdownParser == nil {
		opts.MarkdownParser = DefaultMarkdownParser()
	}

	if opts.Logger == nil {
		opts.Logger = defaultLogger()
	}

	if opts.FrontMatterFormat == "" {
		opts.FrontMatterFormat = FrontmatterTOML
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Taxonomies == nil {
		opts.Taxonomies = map[string]string{
			TaxonomyCategories: "category",
			TaxonomyTags:       "tag",
		}
	}

	if _, err := os.Stat(opts.DataDir); os.IsNotExist(err) {
		if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	site := &Site{
		authors:           opts.Authors,
		markDir:           opts.MarkDir,
		dataDir:           opts.DataDir,
		frontmatterFormat: opts.FrontMatterFormat,
		mdParser:          opts.MarkdownParser,
		now:               opts.Now,
		taxonomies:        opts.Taxonomies,
		postTypes:         DefaultPostTypes(),
		logger:            opts.Logger,
	}

	// The post type directories must exist before anything is indexed
	for _, postType := range site.postTypes {
		dir := filepath.Join(site.markDir, postType.DirPattern)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create post type directory: %w", err)
			}
		}
	}

	boltIndex, err := site.initBolt()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bbolt: %w", err)
	}
	site.boltIndex = boltIndex

	bleveIndex, err := site.initBleve()
	if err != nil {
		_ = boltIndex.Close()
		return nil, fmt.Errorf("failed to initialize bleve: %w", err)
	}
	site.bleveIndex = bleveIndex

	if opts.ClearIndexes {
		if err := site.clearIndexes(); err != nil {
			return nil, fmt.Errorf("failed to clear index: %w", err)
		}
	}

	if opts.Reindex {
		if _, err := site.Reindex(); err != nil {
			return nil, fmt.Errorf("failed to index markdown files: %w", err)
		}
	}

	return site, nil
}

// SetFrontmatterFormat sets the format used for frontmatter in markdown files.
func (s *Site) SetFrontmatterFormat(format FrontmatterFormat) {
	s.frontmatterFormat = format
}

// AuthorName returns the display name for a username, or the username when it is not a known author.
func (s *Site) AuthorName(username string) string {
	if author, ok := s.authors[username]; ok && author.Name != "" {
		return author.Name
	}
	return username
}

func (s *Site) initBolt() (*bbolt.DB, error) {
	boltPath := filepath.Join(s.dataDir, bboltFile)
	boltIndex, err := bbolt.Open(boltPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt index: %w", err)
	}

	err = boltIndex.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketPosts, bucketTaxonomies, bucketComments, bucketLikes, bucketViews} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})

	if err != nil {
		_ = boltIndex.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return boltIndex, nil
}

func (s *Site) initBleve() (bleve.Index, error) {
	index, err := bleve.Open(filepath.Join(s.dataDir, bleveFile))
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		s.logger.Debug("Creating new bleve index")
		indexMapping := s.defineBleveMapping()
		index, err = bleve.NewUsing(filepath.Join(s.dataDir, bleveFile), indexMapping, bleve.Config.DefaultIndexType, bleve.Config.DefaultKVStore, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create bleve index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to open bleve index: %w", err)
	}

	return index, nil
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{
			AddSource: false,
			Level:     slog.LevelDebug,
		}))
}

// Close closes the Site by closing the bolt and bleve indexes.
func (s *Site) Close() error {
	if s.boltIndex != nil {
		if err := s.boltIndex.Close(); err != nil {
			return err
		}
	}

	if s.bleveIndex != nil {
		return s.bleveIndex.Close()
	}

	return nil
}

// clearIndexes drops the post records and the search index. Comments, likes
// and view counts belong to readers and survive a reindex.
func (s *Site) clearIndexes() error {
	err := s.boltIndex.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketPosts, bucketTaxonomies} {
			if err := tx.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return fmt.Errorf("failed to delete %s bucket: %w", name, err)
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset bolt buckets: %w", err)
	}

	if s.bleveIndex != nil {
		if err := s.bleveIndex.Close(); err != nil {
			return fmt.Errorf("failed to close bleve index: %w", err)
		}
	}

	if err := os.RemoveAll(filepath.Join(s.dataDir, bleveFile)); err != nil {
		return fmt.Errorf("failed to remove bleve file: %w", err)
	}

	bleveIndex, err := s.initBleve()
	if err != nil {
		return fmt.Errorf("failed to reinitialize bleve: %w", err)
	}
	s.bleveIndex = bleveIndex

	return nil
}

// Reindex re-indexes all markdown files in the MarkDir directory.
func (s *Site) Reindex() (map[string]int, error) {
	indexCounts := make(map[string]int)

	if err := s.clearIndexes(); err != nil {
		return indexCounts, fmt.Errorf("failed to clear indexes: %w", err)
	}

	for _, postType := range s.postTypes {
		count, err := s.IndexPostType(postType)
		if err != nil {
			return indexCounts, fmt.Errorf("failed to reindex post type %s: %w", postType.TypeKey, err)
		}

		indexCounts[string(postType.TypeKey)] = count
	}

	s.logger.Info("Reindexing complete", slog.Any("counts", indexCounts))
	return indexCounts, nil
}

// IndexPostType indexes all posts of a given type.
func (s *Site) IndexPostType(postType PostType) (int, error) {
	indexCount := 0
	currentPath := ""
	markdownPath := filepath.Join(s.markDir, postType.DirPattern)

	err := filepath.WalkDir(markdownPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		currentPath = path

		if !d.IsDir() && filepath.Ext(path) == ".md" {
			doc, err := ReadFile(s.mdParser, s.markDir, path, postType)
			if err != nil || doc == nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			if err := s.IndexPost(doc); err != nil {
				return fmt.Errorf("failed to index post: %w", err)
			}

			indexCount++
		}

		return nil
	})

	if err != nil {
		return indexCount, fmt.Errorf("failed to walk directory %s: %w", currentPath, err)
	}

	return indexCount, nil
}

// DeIndexPost removes a post from the indexes.
func (s *Site) DeIndexPost(pathID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.getPost(pathID)
	if errors.Is(err, ErrPostNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get post: %w", err)
	}

	if err := s.boltIndex.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketPosts))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		if err := b.Delete([]byte(pathID)); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}

		if !doc.IsPublished() {
			return nil
		}

		for taxonomy, terms := range doc.Taxonomies {
			for _, term := range uniqueTerms(terms) {
				if err := s.updateTaxonomyCount(tx, taxonomy, term, -1); err != nil {
					s.logger.Error("failed to update taxonomy count",
						slog.String("taxonomy", taxonomy),
						slog.String("error", err.Error()))
					continue
				}
			}
		}

		return nil
	}); err != nil {
		return fmt.Errorf("failed to update bolt: %w", err)
	}

	if err := s.bleveIndex.Delete(pathID); err != nil {
		return fmt.Errorf("failed to delete post from bleve: %w", err)
	}

	return nil
}

// IndexPost indexes a post in the bolt and bleve indexes.
func (s *Site) IndexPost(doc *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	currentPost, _ := s.getPost(doc.ID())

	err := s.boltIndex.Update(func(tx *bbolt.Tx) error {
		if currentPost != nil && currentPost.IsPublished() {
			for taxonomy, terms := range currentPost.Taxonomies {
				for _, term := range uniqueTerms(terms) {
					if err := s.updateTaxonomyCount(tx, taxonomy, term, -1); err != nil {
						s.logger.Error("failed to update taxonomy count",
							slog.String("taxonomy", taxonomy),
							slog.String("error", err.Error()))
						continue
					}
				}
			}
		}

		b := tx.Bucket([]byte(bucketPosts))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		docBytes, err := doc.Serialize()
		if err != nil {
			return fmt.Errorf("failed to serialize post: %w", err)
		}

		if err := b.Put([]byte(doc.ID()), docBytes); err != nil {
			return fmt.Errorf("failed to put post in bucket: %w", err)
		}

		// Only published posts count towards a term
		if !doc.IsPublished() {
			return nil
		}

		for taxonomy, terms := range doc.Taxonomies {
			for _, term := range uniqueTerms(terms) {
				if err := s.updateTaxonomyCount(tx, taxonomy, term, 1); err != nil {
					s.logger.Error("failed to update taxonomy count",
						slog.String("taxonomy", taxonomy),
						slog.String("error", err.Error()))
					continue
				}
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update post in bolt: %w", err)
	}

	if err := s.bleveIndex.Index(doc.ID(), doc); err != nil {
		return fmt.Errorf("failed to index post in bleve: %w", err)
	}

	return nil
}

func (s *Site) updateTaxonomyCount(tx *bbolt.Tx, taxonomy, term string, delta int) error {
	b := tx.Bucket([]byte(bucketTaxonomies))
	if b == nil {
		return fmt.Errorf("bucket not found")
	}

	count := 0
	key := []byte(fmt.Sprintf("%s:%s", taxonomy, term))
	countBytes := b.Get(key)
	if countBytes != nil {
		count = int(binary.BigEndian.Uint64(countBytes))
	}

	count += delta
	if count <= 0 {
		return b.Delete(key)
	}

	newCount := make([]byte, 8)
	binary.BigEndian.PutUint64(newCount, uint64(count))
	return b.Put(key, newCount)
}

func (s *Site) defineBleveMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Keyword fields match and sort on the whole value
	docMapping.AddFieldMappingsAt("slug", bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt("postType", bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt("status", bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt("visibility", bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt("authors", bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt("content", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("name", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("subtitle", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("summary", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("featured", bleve.NewBooleanFieldMapping())
	docMapping.AddFieldMappingsAt("published", bleve.NewDateTimeFieldMapping())
	docMapping.AddFieldMappingsAt("updated", bleve.NewDateTimeFieldMapping())

	taxonomyMapping := bleve.NewDocumentMapping()
	for taxonomy := range s.taxonomies {
		taxonomyMapping.AddFieldMappingsAt(taxonomy, bleve.NewKeywordFieldMapping())
	}

	docMapping.AddSubDocumentMapping("taxonomies", taxonomyMapping)
	indexMapping.AddDocumentMapping("post", docMapping)

	return indexMapping
}
