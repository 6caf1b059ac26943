package models

import (
	"github.com/lib/pq"
)

// FeedLimit caps how many posts the feed returns.
const FeedLimit = 50

type Post struct {
	ID         string         `gorm:"primaryKey;type:uuid" json:"id"`
	Content    string         `gorm:"not null" json:"content"`
	AuthorName string         `gorm:"not null" json:"authorName"`
	AuthorID   string         `gorm:"not null;index" json:"authorId"`
	CreatedAt  int64          `gorm:"autoCreateTime:milli;not null;index:idx_posts_created_at,sort:desc" json:"createdAt"` // unix millis
	Upvotes    pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"upvotes"`
	Downvotes  pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"downvotes"`
	ImageURL   string         `json:"imageUrl,omitempty"`
}

type CreatePostRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl" binding:"omitempty,http_url"`
}

// Normalize replaces nil vote sets with empty ones so they encode as [].
func (p *Post) Normalize() *Post {
	if p.Upvotes == nil {
		p.Upvotes = pq.StringArray{}
	}
	if p.Downvotes == nil {
		p.Downvotes = pq.StringArray{}
	}
	return p
}

func (p *Post) OwnedBy(userID string) bool {
	return userID != "" && p.AuthorID == userID
}
