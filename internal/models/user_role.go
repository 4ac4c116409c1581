package models

import "time"

const (
	// RoleStudent submits notebooks and downloads certificates.
	RoleStudent = "student"
	// RoleGrader scores submissions against the rubric.
	RoleGrader = "grader"
)

// UserRole records the role a user picked for the platform.
type UserRole struct {
	UserID     string    `gorm:"primaryKey;size:128" json:"user_id"`
	Role       string    `gorm:"size:32;not null" json:"role"`
	Email      string    `gorm:"size:255" json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// IsValidRole reports whether role is one of the selectable roles.
func IsValidRole(role string) bool {
	return role == RoleStudent || role == RoleGrader
}
