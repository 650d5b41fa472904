package models

import (
	"time"
)

// CommentStatus is the moderation state of a comment. Deletion removes the
// row and is not a status.
type CommentStatus string

const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentRejected CommentStatus = "rejected"
)

// Valid reports whether s is one of the stored statuses
func (s CommentStatus) Valid() bool {
	switch s {
	case CommentPending, CommentApproved, CommentRejected:
		return true
	}
	return false
}

// ModerationAction is an admin decision on a comment
type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
	ActionDelete  ModerationAction = "delete"
)

// Valid reports whether a is a known action
func (a ModerationAction) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionDelete:
		return true
	}
	return false
}

// TargetStatus returns the status an action moves a comment to. Delete has none.
func (a ModerationAction) TargetStatus() (CommentStatus, bool) {
	switch a {
	case ActionApprove:
		return CommentApproved, true
	case ActionReject:
		return CommentRejected, true
	}
	return "", false
}

// Comment represents a comment on an article
type Comment struct {
	ID               int64         `json:"id" db:"id"`
	ArticleID        int64         `json:"article_id" db:"article_id"`
	ArticleTitle     string        `json:"article_title,omitempty" db:"-"`
	UserID           int64         `json:"user_id" db:"user_id"`
	UserName         string        `json:"user_name,omitempty" db:"-"`
	ParentID         *int64        `json:"parent_id" db:"parent_id"`
	Content          string        `json:"content" db:"content"`
	Status           CommentStatus `json:"status" db:"status"`
	ModerationReason string        `json:"moderation_reason,omitempty" db:"moderation_reason"`
	Reported         bool          `json:"reported" db:"reported"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// CommentInput is the payload of POST /comments
type CommentInput struct {
	ArticleID int64  `json:"article_id"`
	ParentID  *int64 `json:"parent_id"`
	Content   string `json:"content"`
}

// ModerationRequest is the payload of the single and bulk moderation endpoints
type ModerationRequest struct {
	CommentIDs []int64          `json:"comment_ids,omitempty"`
	Action     ModerationAction `json:"action"`
	Reason     string           `json:"reason"`
}

// BulkModerationResult reports how many ids were requested and how many rows changed
type BulkModerationResult struct {
	Requested int    `json:"requested"`
	Affected  int    `json:"affected"`
	Status    string `json:"status"`
}

// MaxCommentWords is the maximum allowed words in a comment body
const MaxCommentWords = 500
