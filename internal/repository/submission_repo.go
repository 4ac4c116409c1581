package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/notebook-grading-api/internal/models"
)

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	StudentID *string
	Status    *string
}

// GradeSnapshot is the set of columns written when a grade is committed.
type GradeSnapshot struct {
	Grade               int
	RubricScores        datatypes.JSON
	Feedback            *string
	CertificateEligible bool
	GradedAt            time.Time
	GradedBy            string
}

// SubmissionCounts aggregates submissions matching a filter.
type SubmissionCounts struct {
	Total        int64
	Submitted    int64
	Graded       int64
	AverageGrade *float64
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id string) (models.Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	SaveGrade(ctx context.Context, id string, snapshot GradeSnapshot) (models.Submission, error)
	Counts(ctx context.Context, filter SubmissionFilter) (SubmissionCounts, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) filtered(ctx context.Context, filter SubmissionFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Submission{})

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	return query
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.filtered(ctx, filter).Order("submitted_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) SaveGrade(ctx context.Context, id string, snapshot GradeSnapshot) (models.Submission, error) {
	var saved models.Submission

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":               models.SubmissionStatusGraded,
			"grade":                snapshot.Grade,
			"rubric_scores":        snapshot.RubricScores,
			"feedback":             snapshot.Feedback,
			"certificate_eligible": snapshot.CertificateEligible,
			"graded_at":            snapshot.GradedAt,
			"graded_by":            snapshot.GradedBy,
			"updated_at":           snapshot.GradedAt,
		}

		result := tx.Model(&models.Submission{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Where("id = ?", id).First(&saved).Error
	})
	if err != nil {
		return models.Submission{}, err
	}

	return saved, nil
}

func (r *submissionRepository) Counts(ctx context.Context, filter SubmissionFilter) (SubmissionCounts, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.filtered(ctx, filter).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return SubmissionCounts{}, err
	}

	var counts SubmissionCounts
	for _, row := range rows {
		counts.Total += row.Count
		switch row.Status {
		case models.SubmissionStatusGraded:
			counts.Graded += row.Count
		case models.SubmissionStatusSubmitted:
			counts.Submitted += row.Count
		}
	}

	var average struct {
		AvgGrade *float64
	}
	if err := r.filtered(ctx, filter).
		Where("status = ? AND grade IS NOT NULL", models.SubmissionStatusGraded).
		Select("AVG(grade) AS avg_grade").
		Scan(&average).Error; err != nil {
		return SubmissionCounts{}, err
	}
	counts.AverageGrade = average.AvgGrade

	return counts, nil
}
