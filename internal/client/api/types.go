package api

import "time"

// Post mirrors the server's post representation.
type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	ImagePath string `json:"imagePath"`
	Creator   string `json:"creator"`
}

// Account is the public part of a registered account.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// LoginResult is a successful login. ExpiresAt is computed locally from
// ExpiresIn at the moment the response arrived.
type LoginResult struct {
	Token     string
	AccountID string
	ExpiresIn time.Duration
	ExpiresAt time.Time
}

// PostsPage is one page of the post list.
type PostsPage struct {
	Posts      []Post `json:"posts"`
	TotalPosts int    `json:"totalPosts"`
}

// PostInput carries the fields of a create or update call. ImageFile is a
// local file to upload; when it is empty ImagePath keeps an already stored
// image (update only).
type PostInput struct {
	Title     string
	Content   string
	ImageFile string
	ImagePath string
}

type messageResponse struct {
	Message string `json:"message"`
}

type signupResponse struct {
	Message string  `json:"message"`
	Account Account `json:"account"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	AccountID string `json:"accountId"`
}

type postResponse struct {
	Message string `json:"message"`
	Post    Post   `json:"post"`
}
