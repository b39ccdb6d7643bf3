package task

import (
	"time"

	"github.com/lib/pq"
)

// Status values a task moves through.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Priority values, lowest to highest.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

type Task struct {
	ID     uint64 `gorm:"primaryKey" json:"id"`
	UserID uint64 `gorm:"index;not null" json:"user_id"`

	Title       string     `gorm:"type:text;not null" json:"title"`
	Description string     `gorm:"type:text;not null;default:''" json:"description"`
	Deadline    *time.Time `gorm:"type:timestamptz" json:"deadline"`

	Priority string `gorm:"type:text;not null;default:'medium'" json:"priority"`
	Category string `gorm:"type:text;not null;default:'general'" json:"category"`
	Status   string `gorm:"type:text;not null;default:'pending'" json:"status"`

	Subtasks    pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"subtasks"`
	AIGenerated bool           `gorm:"not null;default:false" json:"ai_generated"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
