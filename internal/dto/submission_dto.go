package dto

import (
	"time"

	"github.com/noah-isme/notebook-grading-api/internal/models"
)

// SubmissionCreateRequest describes a new notebook submission. NotebookLink may be
// omitted when a notebook file is uploaded with the request.
type SubmissionCreateRequest struct {
	AssignmentTitle        string `json:"assignment_title" form:"assignment_title" validate:"required,max=255"`
	NotebookLink           string `json:"notebook_link" form:"notebook_link" validate:"omitempty,url,max=1024"`
	FullNameForCertificate string `json:"full_name_for_certificate" form:"full_name_for_certificate" validate:"required,max=255"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	StudentID *string
	Status    *string `query:"status" validate:"omitempty,oneof=submitted graded"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID                     string         `json:"id"`
	StudentID              string         `json:"student_id"`
	StudentEmail           string         `json:"student_email"`
	AssignmentTitle        string         `json:"assignment_title"`
	NotebookLink           string         `json:"notebook_link"`
	FullNameForCertificate string         `json:"full_name_for_certificate"`
	Status                 string         `json:"status"`
	SubmittedAt            time.Time      `json:"submitted_at"`
	Grade                  *int           `json:"grade"`
	RubricScores           map[string]int `json:"rubric_scores,omitempty"`
	Feedback               *string        `json:"feedback"`
	CertificateEligible    bool           `json:"certificate_eligible"`
	GradedAt               *time.Time     `json:"graded_at"`
	GradedBy               *string        `json:"graded_by"`
	GraderName             string         `json:"grader_name"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// SubmissionEvent is pushed to feed subscribers when a submission changes.
type SubmissionEvent struct {
	Type       string             `json:"type"`
	Submission SubmissionResponse `json:"submission"`
}

const (
	// SubmissionEventCreated is emitted after a student submits.
	SubmissionEventCreated = "submission.created"
	// SubmissionEventGraded is emitted after a grade is committed.
	SubmissionEventGraded = "submission.graded"
)

// NewSubmissionResponse converts a Submission model into a DTO. Undecodable
// rubric scores are omitted rather than failing the response.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	scores, _ := model.Scores()

	return SubmissionResponse{
		ID:                     model.ID,
		StudentID:              model.StudentID,
		StudentEmail:           model.StudentEmail,
		AssignmentTitle:        model.AssignmentTitle,
		NotebookLink:           model.NotebookLink,
		FullNameForCertificate: model.FullNameForCertificate,
		Status:                 model.Status,
		SubmittedAt:            model.SubmittedAt,
		Grade:                  model.Grade,
		RubricScores:           scores,
		Feedback:               model.Feedback,
		CertificateEligible:    model.CertificateEligible,
		GradedAt:               model.GradedAt,
		GradedBy:               model.GradedBy,
		UpdatedAt:              model.UpdatedAt,
	}
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
