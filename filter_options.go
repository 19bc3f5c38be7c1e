package downsite

type FilterType string

const (
	FilterTypeAny      FilterType = "any"
	FilterTypeAuthor   FilterType = "author"
	FilterTypeTaxonomy FilterType = "taxonomy"
)

func (ft FilterType) String() string {
	return string(ft)
}

// FilterOptions contains the options to filter posts.
type FilterOptions struct {
	PageNum          int         // The page number to retrieve
	PageSize         int         // The number of items per page
	FilterType       FilterType  // The type of filter to apply (author, taxonomy)
	FilterKey        string      // The taxonomy to filter by (e.g. "categories", "tags"). Only used for taxonomy filters.
	FilterTerm       string      // The term to filter by (e.g. "go", "author1"). Used with FilterTypeAuthor and FilterTypeTaxonomy.
	FilterSearch     string      // A search string matched against the post content, title, etc.
	FilterPostType   PostTypeKey // The type of post to filter by. Default is PostTypeKeyAny.
	FilterStatus     string      // The status to filter by (e.g. "published", "draft"). Default is "published"; "any" disables it.
	FilterVisibility string      // The visibility to filter by (e.g. "public", "private"). Default is "public"; "any" disables it.
	SplitFeatured    bool        // Whether to split featured items from the main list
}
