package downsite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/downsite"
)

func TestSite_GetPosts(t *testing.T) {
	site := newTestSite(t)

	cases := []struct {
		name          string
		filter        downsite.FilterOptions
		expectedCount int
	}{
		{
			name: "Get all published articles",
			filter: downsite.FilterOptions{
				FilterPostType: downsite.PostTypeKeyArticle,
			},
			expectedCount: 3,
		},
		{
			name: "Get all articles (published and unpublished)",
			filter: downsite.FilterOptions{
				FilterPostType:   downsite.PostTypeKeyArticle,
				FilterStatus:     downsite.FilterTypeAny.String(),
				FilterVisibility: downsite.FilterTypeAny.String(),
			},
			expectedCount: 5,
		},
		{
			name: "Get draft articles only",
			filter: downsite.FilterOptions{
				FilterPostType: downsite.PostTypeKeyArticle,
				FilterStatus:   "draft",
			},
			expectedCount: 1,
		},
		{
			name: "Get private articles only",
			filter: downsite.FilterOptions{
				FilterPostType:   downsite.PostTypeKeyArticle,
				FilterVisibility: "private",
			},
			expectedCount: 1,
		},
		{
			name: "Search for a specific post",
			filter: downsite.FilterOptions{
				FilterPostType: downsite.PostTypeKeyArticle,
				FilterSearch:   "FOOBAR",
			},
			expectedCount: 1,
		},
		{
			name: "Filter by category",
			filter: downsite.FilterOptions{
				FilterPostType: downsite.PostTypeKeyArticle,
				FilterType:     downsite.FilterTypeTaxonomy,
				FilterKey:      downsite.TaxonomyCategories,
				FilterTerm:     "Go",
			},
			expectedCount: 2,
		},
		{
			name: "Filter by author",
			filter: downsite.FilterOptions{
				FilterPostType: downsite.PostTypeKeyArticle,
				FilterType:     downsite.FilterTypeAuthor,
				FilterTerm:     "bob",
			},
			expectedCount: 2,
		},
		{
			name: "Pages are separate from articles",
			filter: downsite.FilterOptions{
				FilterPostType: downsite.PostTypeKeyPage,
			},
			expectedCount: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			paginator, err := site.GetPosts(tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedCount, paginator.TotalPosts)
			assert.Len(t, paginator.AllPosts, tc.expectedCount)
		})
	}
}

func TestSite_GetPostsOrderAndPaging(t *testing.T) {
	site := newTestSite(t)

	first, err := site.GetPosts(downsite.FilterOptions{
		FilterPostType: downsite.PostTypeKeyArticle,
		PageSize:       2,
	})
	require.NoError(t, err)
	require.Len(t, first.AllPosts, 2)
	assert.Equal(t, "hello-world", first.AllPosts[0].Slug)
	assert.Equal(t, "2024-02-10-second-post", first.AllPosts[1].Slug)
	assert.Equal(t, 2, first.TotalPages)
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrev)

	second, err := site.GetPosts(downsite.FilterOptions{
		FilterPostType: downsite.PostTypeKeyArticle,
		PageSize:       2,
		PageNum:        2,
	})
	require.NoError(t, err)
	require.Len(t, second.AllPosts, 1)
	assert.Equal(t, "nested/deep-dive", second.AllPosts[0].Slug)
	assert.False(t, second.HasNext)
	assert.True(t, second.HasPrev)
	assert.Equal(t, 1, second.PrevPage)
}

func TestSite_GetPostsSplitFeatured(t *testing.T) {
	site := newTestSite(t)

	paginator, err := site.GetPosts(downsite.FilterOptions{
		FilterPostType: downsite.PostTypeKeyArticle,
		SplitFeatured:  true,
	})
	require.NoError(t, err)
	require.Len(t, paginator.FeaturedPosts, 1)
	assert.Equal(t, "hello-world", paginator.FeaturedPosts[0].Slug)
	assert.Len(t, paginator.NonFeaturedPosts, 2)
}

func TestSite_GetPublishedArticle(t *testing.T) {
	site := newTestSite(t)

	_, err := site.GetPublishedArticle("draft-post")
	assert.ErrorIs(t, err, downsite.ErrPostNotFound)

	_, err = site.GetPublishedArticle("missing-slug")
	assert.ErrorIs(t, err, downsite.ErrPostNotFound)

	post, err := site.GetPublishedArticle("hello-world")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", post.Name)
}

func TestSite_GetAllPublishedArticles(t *testing.T) {
	site := newTestSite(t)

	posts, err := site.GetAllPublishedArticles()
	require.NoError(t, err)

	slugs := make([]string, 0, len(posts))
	for _, post := range posts {
		slugs = append(slugs, post.Slug)
	}
	assert.Equal(t, []string{"hello-world", "2024-02-10-second-post", "nested/deep-dive"}, slugs)
}
