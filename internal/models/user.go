package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles.
const (
	RoleStudent = "STUDENT"
	RolePM      = "PM"
	RoleAdmin   = "ADMIN"
)

// Specialties form a closed set; anything else is rejected at registration.
var Specialties = []string{"Frontend", "Backend", "ML Engineer", "UX/UI", "QA", "DevOps"}

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	return role == RoleStudent || role == RolePM || role == RoleAdmin
}

// ValidSpecialty reports whether specialty is one of the known specialties.
func ValidSpecialty(specialty string) bool {
	for _, s := range Specialties {
		if s == specialty {
			return true
		}
	}
	return false
}

// User represents a part-time student worker, PM or admin.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CustomID  string         `gorm:"uniqueIndex;size:20;not null" json:"custom_id"` // TTTP01, TTTP02, ...
	FirstName string         `gorm:"size:100;not null" json:"first_name"`
	YearLevel string         `gorm:"size:50" json:"year_level"`
	Specialty string         `gorm:"size:50" json:"specialty"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password  string         `gorm:"size:255" json:"-"` // bcrypt hash, empty for LDAP users
	Role      string         `gorm:"size:20;default:STUDENT" json:"role"`
	AuthType  string         `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
