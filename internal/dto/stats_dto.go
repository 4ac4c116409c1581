package dto

import "time"

// StudentStatsResponse summarises a student's submissions.
type StudentStatsResponse struct {
	Total        int64    `json:"total"`
	Graded       int64    `json:"graded"`
	AverageGrade *float64 `json:"average_grade"`
}

// GraderStatsResponse summarises the grading queue.
type GraderStatsResponse struct {
	Total     int64 `json:"total"`
	Submitted int64 `json:"submitted"`
	Graded    int64 `json:"graded"`
}

// RoleSelectRequest picks the caller's platform role.
type RoleSelectRequest struct {
	Role string `json:"role" validate:"required,oneof=student grader"`
}

// RoleResponse describes a stored role selection.
type RoleResponse struct {
	UserID     string    `json:"user_id"`
	Role       string    `json:"role"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}
