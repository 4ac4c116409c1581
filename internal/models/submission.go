package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission is a student's notebook link awaiting or carrying a rubric grade.
type Submission struct {
	ID                     string         `gorm:"primaryKey;size:36" json:"id"`
	StudentID              string         `gorm:"size:128;not null;index" json:"student_id"`
	StudentEmail           string         `gorm:"size:255" json:"student_email"`
	AssignmentTitle        string         `gorm:"size:255;not null" json:"assignment_title"`
	NotebookLink           string         `gorm:"size:1024;not null" json:"notebook_link"`
	FullNameForCertificate string         `gorm:"size:255;not null" json:"full_name_for_certificate"`
	Status                 string         `gorm:"size:32;not null;index" json:"status"`
	SubmittedAt            time.Time      `gorm:"not null;index" json:"submitted_at"`
	Grade                  *int           `json:"grade"`
	RubricScores           datatypes.JSON `json:"rubric_scores"`
	Feedback               *string        `gorm:"type:text" json:"feedback"`
	CertificateEligible    bool           `gorm:"not null;default:false" json:"certificate_eligible"`
	GradedAt               *time.Time     `json:"graded_at"`
	GradedBy               *string        `gorm:"size:128" json:"graded_by"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

const (
	// SubmissionStatusSubmitted indicates the submission is waiting for a grader.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusGraded indicates a rubric grade has been committed.
	SubmissionStatusGraded = "graded"
)

// BeforeCreate assigns an identifier and submission timestamp when absent.
func (s *Submission) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now().UTC()
	}
	if s.Status == "" {
		s.Status = SubmissionStatusSubmitted
	}
	return nil
}

// IsGraded reports whether the submission has a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// Scores decodes the stored rubric selection. A missing column yields nil.
func (s Submission) Scores() (map[string]int, error) {
	if len(s.RubricScores) == 0 || string(s.RubricScores) == "null" {
		return nil, nil
	}

	var scores map[string]int
	if err := json.Unmarshal(s.RubricScores, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}
