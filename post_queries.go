package downsite

import (
	"fmt"
	"slices"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.etcd.io/bbolt"
)

type matchOptions struct {
	field string
	value string
}

// GetPost retrieves a post by its type and slug. ErrPostNotFound is returned when no such post is indexed.
func (s *Site) GetPost(postType PostTypeKey, slug string) (*Post, error) {
	return s.getPost(PostID(postType.String(), slug))
}

// GetArticle retrieves a blog post by slug.
func (s *Site) GetArticle(slug string) (*Post, error) {
	return s.GetPost(PostTypeKeyArticle, slug)
}

// GetPublishedArticle retrieves a blog post by slug, treating drafts and
// non-public posts as missing.
func (s *Site) GetPublishedArticle(slug string) (*Post, error) {
	post, err := s.GetArticle(slug)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished() {
		return nil, fmt.Errorf("error getting post %s: %w", slug, ErrPostNotFound)
	}
	return post, nil
}

// getPost retrieves a post by its path ID, e.g. "articles/my-first-post".
func (s *Site) getPost(pathID string) (*Post, error) {
	var doc *Post
	err := s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketPosts))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		id := strings.TrimSuffix(pathID, ".md")
		docBytes := b.Get([]byte(id))
		if docBytes == nil {
			return ErrPostNotFound
		}

		var err error
		doc, err = Deserialize(docBytes)
		if err != nil {
			return fmt.Errorf("error deserializing post: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error getting post %s: %w", pathID, err)
	}
	return doc, nil
}

// GetPosts retrieves a page of posts based on the provided filter options.
func (s *Site) GetPosts(filter FilterOptions) (Paginator, error) {
	checkField := ""
	checkValue := ""
	var options []matchOptions
	var extraFields []string

	if filter.PageNum < 1 {
		filter.PageNum = 1
	}

	if filter.PageSize < 1 {
		filter.PageSize = 10
	}

	switch filter.FilterType {
	case FilterTypeAuthor:
		checkField = "authors"
		checkValue = filter.FilterTerm
		extraFields = append(extraFields, "authors")
		options = append(options, matchOptions{"authors", checkValue})
	case FilterTypeTaxonomy:
		checkField = fmt.Sprintf("taxonomies.%s", filter.FilterKey)
		checkValue = filter.FilterTerm
		extraFields = append(extraFields, checkField)
		options = append(options, matchOptions{checkField, checkValue})
	}

	options = append(options, matchOptions{"search", filter.FilterSearch})

	if filter.FilterStatus != FilterTypeAny.String() {
		if filter.FilterStatus != "" {
			options = append(options, matchOptions{"status", filter.FilterStatus})
		} else {
			options = append(options, matchOptions{"status", "published"})
		}
	}

	if filter.FilterVisibility != FilterTypeAny.String() {
		if filter.FilterVisibility != "" {
			options = append(options, matchOptions{"visibility", filter.FilterVisibility})
		} else {
			options = append(options, matchOptions{"visibility", "public"})
		}
	}

	postsQuery := s.searchQuery(filter.FilterPostType, options...)

	// Exact term checks happen after the search, so fetch everything that
	// matched and page the checked results here.
	request := s.searchRequest(postsQuery, extraFields...)
	docs, err := s.postsFromSearchRequest(request, checkField, checkValue)
	if err != nil {
		return Paginator{}, fmt.Errorf("error searching for posts: %w", err)
	}

	total := len(docs)
	start := min((filter.PageNum-1)*filter.PageSize, total)
	end := min(start+filter.PageSize, total)

	return NewPaginator(docs[start:end], total, filter.PageNum, filter.PageSize, filter.SplitFeatured), nil
}

// maxPageSize bounds a single page when every match is wanted.
const maxPageSize = 1 << 20

// GetAllPublishedArticles returns every published, public article in listing order.
func (s *Site) GetAllPublishedArticles() ([]*Post, error) {
	paginator, err := s.GetPosts(FilterOptions{
		FilterPostType: PostTypeKeyArticle,
		PageSize:       maxPageSize,
	})
	if err != nil {
		return nil, err
	}
	return paginator.AllPosts, nil
}

func (s *Site) postsFromSearchRequest(request *bleve.SearchRequest, checkField, checkValue string) ([]*Post, error) {
	result, err := s.bleveIndex.Search(request)
	if err != nil {
		return nil, fmt.Errorf("error searching for posts: %w", err)
	}

	docs := make([]*Post, 0, len(result.Hits))
	for _, hit := range result.Hits {
		if checkField == "" || slices.Contains(anyToStringSlice(hit.Fields[checkField]), checkValue) {
			doc, err := s.getPost(hit.ID)
			if err != nil {
				return nil, fmt.Errorf("error getting post %s: %w", hit.ID, err)
			}
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

func (s *Site) searchRequest(q query.Query, fields ...string) *bleve.SearchRequest {
	count, err := s.bleveIndex.DocCount()
	if err != nil || count == 0 {
		count = 1
	}

	request := bleve.NewSearchRequestOptions(q, int(count), 0, false)
	request.SortBy([]string{
		"-featured",
		"-published",
		"slug",
	})
	requestFields := []string{
		"slug",
		"name",
		"postType",
		"published",
		"updated",
		"authors",
	}

	request.Fields = append(requestFields, fields...)
	return request
}

func (s *Site) searchQuery(postType PostTypeKey, matches ...matchOptions) query.Query {
	queries := make([]query.Query, 0, len(matches)+1)

	if !postType.IsAny() {
		typeQuery := bleve.NewMatchQuery(string(postType))
		typeQuery.SetField("postType")
		queries = append(queries, typeQuery)
	}

	for _, match := range matches {
		field := strings.TrimSpace(match.field)
		value := strings.TrimSpace(match.value)

		if field == "" || value == "" {
			continue
		}

		if strings.ToLower(field) == "search" {
			search := bleve.NewQueryStringQuery(value)
			queries = append(queries, search)
			continue
		}

		termQuery := bleve.NewMatchQuery(value)
		termQuery.SetField(field)
		queries = append(queries, termQuery)
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}

	return bleve.NewConjunctionQuery(queries...)
}
