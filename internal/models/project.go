package models

import (
	"time"

	"gorm.io/gorm"
)

// Project statuses. Any status may be set from any other; DONE is terminal
// only by convention.
const (
	StatusNotStarted = "NOT_STARTED"
	StatusInProcess  = "IN_PROCESS"
	StatusTest       = "TEST"
	StatusReview     = "REVIEW"
	StatusDone       = "DONE"
	StatusHelp       = "HELP"
)

var projectStatuses = map[string]bool{
	StatusNotStarted: true,
	StatusInProcess:  true,
	StatusTest:       true,
	StatusReview:     true,
	StatusDone:       true,
	StatusHelp:       true,
}

// ValidStatus reports whether name is a known project status.
func ValidStatus(name string) bool {
	return projectStatuses[name]
}

// Project represents a student project with a deadline derived from its
// start date and duration.
type Project struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ProjectName     string         `gorm:"size:200;not null" json:"project_name"`
	DifficultyLevel int            `gorm:"not null" json:"difficulty_level"` // 1-5
	DurationDays    int            `gorm:"not null" json:"duration_days"`
	Status          string         `gorm:"size:20;default:NOT_STARTED" json:"status"`
	StartDate       time.Time      `gorm:"type:date" json:"start_date"`
	Deadline        time.Time      `gorm:"type:date;index" json:"deadline"` // always start_date + duration_days
	PMUserID        *uint          `gorm:"index" json:"pm_user_id"`
	PMUser          *User          `gorm:"foreignKey:PMUserID" json:"pm_user,omitempty"`
	CreatedByID     uint           `json:"created_by_id"`
	CreatedBy       *User          `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }
