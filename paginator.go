package downsite

// Paginator holds one page of posts plus the numbers needed to link to the pages around it.
type Paginator struct {
	TotalPages       int
	CurrentPage      int
	NextPage         int
	PrevPage         int
	PageSize         int
	HasNext          bool
	HasPrev          bool
	HasPosts         bool
	TotalPosts       int
	AllPosts         []*Post
	FeaturedPosts    []*Post
	NonFeaturedPosts []*Post
	Visible          bool // True by default, but can be set to false in the view. E.g. on the home page.
}

// NewPaginator returns a Paginator for one page of docs out of total matches.
func NewPaginator(docs []*Post, total, currentPage, pageSize int, splitFeatured bool) Paginator {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	nextPage := currentPage + 1
	prevPage := currentPage - 1
	hasNext := currentPage < totalPages
	hasPrev := currentPage > 1

	if nextPage > totalPages {
		nextPage = totalPages
	}

	if prevPage < 1 {
		prevPage = 1
	}

	featured := make([]*Post, 0)
	nonFeatured := make([]*Post, 0)

	if splitFeatured {
		for _, doc := range docs {
			if doc.Featured {
				featured = append(featured, doc)
			} else {
				nonFeatured = append(nonFeatured, doc)
			}
		}
	} else {
		nonFeatured = docs
	}

	return Paginator{
		TotalPages:       totalPages,
		CurrentPage:      currentPage,
		NextPage:         nextPage,
		PrevPage:         prevPage,
		PageSize:         pageSize,
		HasNext:          hasNext,
		HasPrev:          hasPrev,
		HasPosts:         len(docs) > 0,
		TotalPosts:       total,
		AllPosts:         docs,
		FeaturedPosts:    featured,
		NonFeaturedPosts: nonFeatured,
		Visible:          true,
	}
}
