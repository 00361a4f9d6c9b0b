package models

import (
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Rating struct {
	ID        string     `json:"id"`
	AdID      string     `json:"ad_id"`
	AuthorID  string     `json:"author_id"`
	Value     int        `json:"value"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type CommentStatus string

const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentRejected CommentStatus = "rejected"
)

// CanTransition allows only pending comments to be moderated.
func (s CommentStatus) CanTransition(to CommentStatus) bool {
	return s == CommentPending && (to == CommentApproved || to == CommentRejected)
}

type Comment struct {
	ID             string        `json:"id"`
	AdID           string        `json:"ad_id"`
	AdTitle        string        `json:"ad_title,omitempty"`
	AdOwnerID      string        `json:"-"`
	AuthorID       string        `json:"author_id"`
	AuthorUsername string        `json:"author_username"`
	Body           string        `json:"body"`
	Status         CommentStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      *time.Time    `json:"updated_at,omitempty"`
}
