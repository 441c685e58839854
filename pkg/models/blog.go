package models

import (
	"time"
)

// BlogPost represents an editorial article authored by an admin
type BlogPost struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Slug      string    `json:"slug" db:"slug"`
	Excerpt   string    `json:"excerpt,omitempty" db:"excerpt"`
	Content   string    `json:"content" db:"content"`
	HTML      string    `json:"html,omitempty" db:"html"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	Published bool      `json:"published" db:"published"`
	ViewCount int       `json:"view_count" db:"view_count"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
