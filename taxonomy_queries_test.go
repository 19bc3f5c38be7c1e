package downsite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/downsite"
)

func TestGetTaxonomyTerms(t *testing.T) {
	site := newTestSite(t)

	cases := []struct {
		name          string
		taxonomy      string
		expectedTerms []string
	}{
		{
			name:          "Get all tags",
			taxonomy:      downsite.TaxonomyTags,
			expectedTerms: []string{"bolt", "go", "intro", "web"},
		},
		{
			name:     "Get all categories",
			taxonomy: downsite.TaxonomyCategories,
			// Drafts and Secret only appear on unpublished posts
			expectedTerms: []string{"Databases", "Go", "Web"},
		},
		{
			name:          "Unknown taxonomy",
			taxonomy:      "series",
			expectedTerms: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			terms, err := site.GetTaxonomyTerms(tc.taxonomy)
			assert.NoError(t, err)
			assert.ElementsMatch(t, tc.expectedTerms, terms)
		})
	}
}

func TestGetCategories(t *testing.T) {
	site := newTestSite(t)

	categories, err := site.GetCategories()
	require.NoError(t, err)
	assert.Equal(t, []downsite.Category{
		{Name: "Databases", Slug: "databases", Count: 1},
		{Name: "Go", Slug: "go", Count: 2},
		{Name: "Web", Slug: "web", Count: 1},
	}, categories)

	category, ok, err := site.GetCategory("go")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Go", category.Name)

	_, ok, err = site.GetCategory("drafts")
	require.NoError(t, err)
	assert.False(t, ok)
}
