package downsite

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// Comment is a reader comment on a blog post.
type Comment struct {
	ID        string    `json:"id"`
	PostSlug  string    `json:"postSlug"`
	Author    string    `json:"author"`
	Owner     string    `json:"owner"` // Owner identifies the session allowed to edit the comment
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Active    bool      `json:"active"`
}

// CanEdit reports whether the visitor owns the comment.
func (c *Comment) CanEdit(visitor string) bool {
	return visitor != "" && c.Owner == visitor
}

func validateComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: content is required", ErrInvalidComment)
	}
	return content, nil
}

// AddComment stores a new active comment on a published article.
func (s *Site) AddComment(slug, author, owner, content string) (*Comment, error) {
	content, err := validateComment(content)
	if err != nil {
		return nil, err
	}

	if _, err := s.GetPublishedArticle(slug); err != nil {
		return nil, err
	}

	if strings.TrimSpace(author) == "" {
		author = "Anonymous"
	}

	now := s.now()
	comment := &Comment{
		ID:        uuid.NewString(),
		PostSlug:  slug,
		Author:    strings.TrimSpace(author),
		Owner:     owner,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
		Active:    true,
	}

	if err := s.putComment(comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// GetComment retrieves a comment by ID.
func (s *Site) GetComment(id string) (*Comment, error) {
	var comment *Comment
	err := s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketComments))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		data := b.Get([]byte(id))
		if data == nil {
			return ErrCommentNotFound
		}

		comment = &Comment{}
		return json.Unmarshal(data, comment)
	})
	if err != nil {
		return nil, fmt.Errorf("error getting comment %s: %w", id, err)
	}
	return comment, nil
}

// UpdateComment replaces the content of a comment. Only the owner may edit it.
func (s *Site) UpdateComment(id, owner, content string) (*Comment, error) {
	content, err := validateComment(content)
	if err != nil {
		return nil, err
	}

	comment, err := s.GetComment(id)
	if err != nil {
		return nil, err
	}

	if !comment.CanEdit(owner) {
		return nil, fmt.Errorf("%w: comment %s belongs to another visitor", ErrForbidden, id)
	}

	comment.Content = content
	comment.UpdatedAt = s.now()

	if err := s.putComment(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns the active comments of a post, oldest first.
func (s *Site) ListComments(slug string) ([]*Comment, error) {
	var comments []*Comment
	err := s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketComments))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		return b.ForEach(func(_, v []byte) error {
			var comment Comment
			if err := json.Unmarshal(v, &comment); err != nil {
				return err
			}
			if comment.PostSlug == slug && comment.Active {
				comments = append(comments, &comment)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("error listing comments for %s: %w", slug, err)
	}

	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (s *Site) putComment(comment *Comment) error {
	data, err := json.Marshal(comment)
	if err != nil {
		return fmt.Errorf("failed to serialize comment: %w", err)
	}

	return s.boltIndex.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketComments))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put([]byte(comment.ID), data)
	})
}

func likeKey(slug, visitor string) []byte {
	return []byte(slug + "\x00" + visitor)
}

// ToggleLike likes the post for the visitor, or removes the like when one
// exists. It returns the resulting state and like count.
func (s *Site) ToggleLike(slug, visitor string) (bool, int, error) {
	if strings.TrimSpace(visitor) == "" {
		return false, 0, fmt.Errorf("%w: a visitor is required to like a post", ErrForbidden)
	}

	if _, err := s.GetPublishedArticle(slug); err != nil {
		return false, 0, err
	}

	liked := false
	count := 0
	err := s.boltIndex.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketLikes))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		key := likeKey(slug, visitor)
		if b.Get(key) != nil {
			if err := b.Delete(key); err != nil {
				return err
			}
		} else {
			if err := b.Put(key, []byte{1}); err != nil {
				return err
			}
			liked = true
		}

		count = countLikes(b, slug)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("error toggling like on %s: %w", slug, err)
	}

	return liked, count, nil
}

// HasLiked reports whether the visitor currently likes the post.
func (s *Site) HasLiked(slug, visitor string) (bool, error) {
	liked := false
	err := s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketLikes))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		liked = b.Get(likeKey(slug, visitor)) != nil
		return nil
	})
	return liked, err
}

// LikeCount returns the number of visitors who like the post.
func (s *Site) LikeCount(slug string) (int, error) {
	count := 0
	err := s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketLikes))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		count = countLikes(b, slug)
		return nil
	})
	return count, err
}

func countLikes(b *bbolt.Bucket, slug string) int {
	count := 0
	prefix := []byte(slug + "\x00")
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		count++
	}
	return count
}

// IncrementViews adds one to the view counter of a post and returns the new total.
func (s *Site) IncrementViews(slug string) (int, error) {
	views := 0
	err := s.boltIndex.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketViews))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		key := []byte(slug)
		if current := b.Get(key); current != nil {
			views = int(binary.BigEndian.Uint64(current))
		}
		views++

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(views))
		return b.Put(key, buf)
	})
	if err != nil {
		return 0, fmt.Errorf("error counting view of %s: %w", slug, err)
	}
	return views, nil
}

// Views returns the view counter of a post.
func (s *Site) Views(slug string) (int, error) {
	views := 0
	err := s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketViews))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		if current := b.Get([]byte(slug)); current != nil {
			views = int(binary.BigEndian.Uint64(current))
		}
		return nil
	})
	return views, err
}
