package downsite

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

const fileDateLayout = "2006-01-02"

// SlugPath is the result of turning a markdown file path into a post slug.
type SlugPath struct {
	Slug         string
	FileTimePath string     // FileTimePath is the YYYY-MM-DD prefix of the file name, if any.
	FileTime     *time.Time // FileTime is FileTimePath parsed.
	PostType     PostType
}

// hasFileTimeInSlug reports whether name looks like "YYYY-MM-DD-rest".
func hasFileTimeInSlug(name string) bool {
	return len(name) > len(fileDateLayout)+1 &&
		name[4] == '-' && name[7] == '-' && name[10] == '-'
}

// SlugifyPath derives a post slug from the file at fullPath below rootPath.
//
// The post type directory and the extension are dropped, a trailing "index"
// file collapses onto its directory, and every remaining path part is
// slugified. A leading date in the file name is reported in FileTimePath
// and FileTime but stays part of the slug.
func SlugifyPath(rootPath, fullPath string, postType PostType) SlugPath {
	if fullPath == "" {
		return SlugPath{}
	}

	rel := strings.TrimPrefix(fullPath, rootPath)
	rel = strings.TrimSpace(strings.Trim(rel, "/"))
	rel = strings.TrimPrefix(rel, postType.TypeKey.String())
	rel = strings.TrimPrefix(rel, "/")
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))

	result := SlugPath{PostType: postType}

	name := rel
	if i := strings.LastIndex(rel, string(os.PathSeparator)); i != -1 {
		name = rel[i+1:]
	}
	if hasFileTimeInSlug(name) {
		datePart := name[:len(fileDateLayout)]
		if parsed, err := time.Parse(fileDateLayout, datePart); err == nil {
			result.FileTime = &parsed
			result.FileTimePath = datePart
		}
	}

	rel = strings.TrimSuffix(rel, "/index")
	rel = strings.ReplaceAll(rel, string(os.PathSeparator), "/")

	parts := strings.Split(rel, "/")
	for i, part := range parts {
		parts[i] = slug.Make(part)
	}
	result.Slug = strings.Join(parts, "/")

	return result
}

// Slugify turns a post title into a URL-friendly slug.
func Slugify(title string) string {
	return slug.Make(strings.TrimSpace(title))
}
