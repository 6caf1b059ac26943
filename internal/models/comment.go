package models

type Comment struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID       string `gorm:"not null;index" json:"postId"`
	Content      string `gorm:"not null" json:"content"`
	AuthorID     string `gorm:"not null" json:"authorId"`
	AuthorName   string `gorm:"not null" json:"authorName"`
	AuthorAvatar string `json:"authorAvatar,omitempty"`
	CreatedAt    int64  `gorm:"autoCreateTime:milli;not null;index" json:"createdAt"` // unix millis
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}
