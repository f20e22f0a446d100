package models

import "time"

// Post is a titled record with one image, owned by the account that created it.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImagePath string    `json:"imagePath"`
	CreatorID string    `json:"creator"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// PostUpdate carries the replacement fields for an existing post.
type PostUpdate struct {
	Title   string
	Content string
	Image   Image
}
