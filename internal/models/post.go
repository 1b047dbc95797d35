package models

import "time"

// Post represents a single authored message. Posts are immutable once
// created; there is no edit or delete path.
type Post struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username,omitempty"` // Author name, filled by joined queries
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MaxPostBody is the maximum length of a post body in bytes.
const MaxPostBody = 256

// PostPage is one page of a post listing.
type PostPage struct {
	Items   []Post `json:"items"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
	HasNext bool   `json:"hasNext"`
	HasPrev bool   `json:"hasPrev"`
}
