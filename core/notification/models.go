package notification

import "time"

// Notification types
const (
	TypeTask       = "task"
	TypeGrade      = "grade"
	TypeSubmission = "submission"
	TypeFeedback   = "feedback"
	TypeSystem     = "system"
)

type Notification struct {
	ID          int       `json:"id"`
	UserID      int       `json:"-"`
	Message     string    `json:"message"`
	Type        string    `json:"notification_type"`
	ReferenceID *int      `json:"reference_id"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}
