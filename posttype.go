package downsite

import "strings"

// PostTypeKey is a string key that represents a post type.
type PostTypeKey string

// PostTypesMap is a map of PostTypeKey to PostType.
type PostTypesMap map[PostTypeKey]PostType

const (
	PostTypeKeyArticle PostTypeKey = "articles"
	PostTypeKeyPage    PostTypeKey = "pages"
	PostTypeKeyAny     PostTypeKey = "any"
)

// String returns the string representation of the PostTypeKey.
func (ptk PostTypeKey) String() string {
	return string(ptk)
}

// IsAny returns true if the key matches every post type.
func (ptk PostTypeKey) IsAny() bool {
	return ptk == PostTypeKeyAny || ptk == ""
}

// PostType maps a post type key to the directory its markdown files live in.
type PostType struct {
	TypeKey    PostTypeKey `json:"type"`
	DirPattern string      `json:"dirPattern"`
}

// IsValidTypeKey returns true if the given key is a valid PostTypeKey in the PostTypesMap.
func (ptm PostTypesMap) IsValidTypeKey(key string) bool {
	_, ok := ptm[PostTypeKey(key)]
	return ok
}

// PostTypeFromPath returns the PostType for the given file path. If no rule matches, an empty PostType is returned.
func (ptm PostTypesMap) PostTypeFromPath(filePath string) PostType {
	for _, rule := range ptm {
		if strings.HasPrefix(filePath, rule.DirPattern) {
			return rule
		}
	}
	return PostType{}
}

// DefaultPostTypes returns the post types a site serves:
// - Blog posts live in the "articles/" directory.
// - Standalone pages (home, about) live in the "pages/" directory.
func DefaultPostTypes() PostTypesMap {
	return PostTypesMap{
		PostTypeKeyArticle: {
			TypeKey:    PostTypeKeyArticle,
			DirPattern: "articles/",
		},
		PostTypeKeyPage: {
			TypeKey:    PostTypeKeyPage,
			DirPattern: "pages/",
		},
	}
}
