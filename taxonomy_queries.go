package downsite

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"go.etcd.io/bbolt"
)

// Category is a term of the categories taxonomy together with the number of published posts filed under it.
type Category struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// TaxonomyTerm is a term of any taxonomy and its published post count.
type TaxonomyTerm struct {
	Term  string
	Count int
}

// GetTaxonomyTerms returns a list of terms for a given taxonomy.
func (s *Site) GetTaxonomyTerms(taxonomy string) ([]string, error) {
	counts, err := s.GetTaxonomyCounts(taxonomy)
	if err != nil {
		return nil, err
	}

	terms := make([]string, 0, len(counts))
	for _, tc := range counts {
		terms = append(terms, tc.Term)
	}
	return terms, nil
}

// GetTaxonomyCounts returns the terms of a taxonomy with their post counts, ordered by term.
func (s *Site) GetTaxonomyCounts(taxonomy string) ([]TaxonomyTerm, error) {
	var terms []TaxonomyTerm
	err := s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketTaxonomies))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		cursor := b.Cursor()
		prefix := []byte(taxonomy + ":")
		for k, v := cursor.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = cursor.Next() {
			terms = append(terms, TaxonomyTerm{
				Term:  strings.TrimPrefix(string(k), string(prefix)),
				Count: int(binary.BigEndian.Uint64(v)),
			})
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error getting taxonomy terms: %w", err)
	}

	return terms, nil
}

// GetCategories returns every category that has at least one published post, ordered by name.
func (s *Site) GetCategories() ([]Category, error) {
	terms, err := s.GetTaxonomyCounts(TaxonomyCategories)
	if err != nil {
		return nil, err
	}

	categories := make([]Category, 0, len(terms))
	for _, tc := range terms {
		categories = append(categories, Category{
			Name:  tc.Term,
			Slug:  Slugify(tc.Term),
			Count: tc.Count,
		})
	}

	sort.SliceStable(categories, func(i, j int) bool {
		return strings.ToLower(categories[i].Name) < strings.ToLower(categories[j].Name)
	})

	return categories, nil
}

// GetCategory finds a category by its slug.
func (s *Site) GetCategory(slug string) (Category, bool, error) {
	categories, err := s.GetCategories()
	if err != nil {
		return Category{}, false, err
	}

	for _, category := range categories {
		if category.Slug == slug {
			return category, true, nil
		}
	}

	return Category{}, false, nil
}
