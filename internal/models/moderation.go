package models

import (
	"time"

	"github.com/google/uuid"
)

// ModerationEvent is one row of the PostgreSQL audit trail, written for
// every successful poem status change.
type ModerationEvent struct {
	ID         uuid.UUID  `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	PoemID     string     `json:"poem_id"`
	PoemTitle  string     `json:"poem_title"`
	AdminID    string     `json:"admin_id"`
	FromStatus PoemStatus `json:"from_status"`
	ToStatus   PoemStatus `json:"to_status"`
	Note       string     `json:"note,omitempty"`
}
