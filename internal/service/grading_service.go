package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/notebook-grading-api/internal/dto"
	"github.com/noah-isme/notebook-grading-api/internal/grading"
	"github.com/noah-isme/notebook-grading-api/internal/models"
	"github.com/noah-isme/notebook-grading-api/internal/observability"
	"github.com/noah-isme/notebook-grading-api/internal/repository"
)

// GradingService applies the rubric engine to submissions.
type GradingService interface {
	Rubric() dto.RubricResponse
	Preview(req dto.GradingPreviewRequest) (dto.GradingPreviewResponse, error)
	CompileFeedback(req dto.FeedbackCompileRequest) (dto.FeedbackCompileResponse, error)
	Commit(ctx context.Context, actor Actor, id string, req dto.GradeCommitRequest) (dto.GradeCommitResponse, error)
}

type gradingService struct {
	engine      *grading.Engine
	submissions repository.SubmissionRepository
	feed        SubmissionFeed
	graders     GraderDirectory
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewGradingService wires the engine to the submission store. The feed may be nil.
func NewGradingService(engine *grading.Engine, repo repository.SubmissionRepository, feed SubmissionFeed, graders GraderDirectory, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		engine:      engine,
		submissions: repo,
		feed:        feed,
		graders:     graders,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/notebook-grading-api/internal/service/grading"),
		now:         time.Now,
	}
}

func (s *gradingService) Rubric() dto.RubricResponse {
	return dto.NewRubricResponse(s.engine.Rubric(), s.engine.Policy())
}

func (s *gradingService) Preview(req dto.GradingPreviewRequest) (dto.GradingPreviewResponse, error) {
	selection := selectionOf(req.Scores)
	if err := s.engine.ValidateScores(selection); err != nil {
		return dto.GradingPreviewResponse{}, err
	}
	return dto.NewGradingPreviewResponse(s.engine.Evaluate(selection)), nil
}

func (s *gradingService) CompileFeedback(req dto.FeedbackCompileRequest) (dto.FeedbackCompileResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.FeedbackCompileResponse{}, err
	}

	compiled := s.engine.CompileFeedback(selectionOf(req.Scores))
	return dto.FeedbackCompileResponse{
		Compiled: compiled,
		Feedback: grading.AppendFeedback(req.ExistingFeedback, compiled),
	}, nil
}

func (s *gradingService) Commit(ctx context.Context, actor Actor, id string, req dto.GradeCommitRequest) (dto.GradeCommitResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.commit", trace.WithAttributes(
		attribute.String("submission.id", id),
		attribute.String("grader.id", actor.ID),
	))
	defer span.End()

	if !actor.IsGrader() {
		return dto.GradeCommitResponse{}, ErrForbidden
	}

	if err := s.validator.Struct(req); err != nil {
		return dto.GradeCommitResponse{}, err
	}

	selection := selectionOf(req.Scores)
	if err := s.engine.ValidateScores(selection); err != nil {
		span.SetStatus(codes.Error, "invalid score")
		return dto.GradeCommitResponse{}, err
	}
	if err := s.engine.RequireComplete(selection); err != nil {
		span.SetStatus(codes.Error, "rubric incomplete")
		return dto.GradeCommitResponse{}, err
	}

	current, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeCommitResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.GradeCommitResponse{}, fmt.Errorf("load submission: %w", err)
	}

	result := s.engine.ComputeGrade(selection)

	scores, err := json.Marshal(selection)
	if err != nil {
		return dto.GradeCommitResponse{}, fmt.Errorf("encode rubric scores: %w", err)
	}

	var feedback *string
	if req.Feedback != nil {
		if cleaned := cleanText(s.sanitizer, *req.Feedback); cleaned != "" {
			feedback = &cleaned
		}
	}

	saved, err := s.submissions.SaveGrade(ctx, current.ID, repository.GradeSnapshot{
		Grade:               result.Percentage,
		RubricScores:        datatypes.JSON(scores),
		Feedback:            feedback,
		CertificateEligible: result.Eligible,
		GradedAt:            s.now().UTC(),
		GradedBy:            actor.ID,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeCommitResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return dto.GradeCommitResponse{}, fmt.Errorf("save grade: %w", err)
	}

	observability.GradesCommitted().WithLabelValues(strconv.FormatBool(result.Eligible)).Inc()
	span.SetAttributes(
		attribute.Int("grade.percentage", result.Percentage),
		attribute.Bool("grade.eligible", result.Eligible),
	)

	s.logger.Info().
		Str("submission_id", saved.ID).
		Str("grader_id", actor.ID).
		Int("grade", result.Percentage).
		Bool("certificate_eligible", result.Eligible).
		Msg("grade committed")

	response := dto.NewSubmissionResponse(saved)
	response.GraderName = s.graders.describe(saved.GradedBy)

	if s.feed != nil {
		s.feed.Publish(ctx, dto.SubmissionEvent{Type: dto.SubmissionEventGraded, Submission: response})
	}

	return dto.GradeCommitResponse{
		Submission: response,
		Notice:     GradeNotice(saved),
	}, nil
}

func selectionOf(scores map[string]int) grading.Selection {
	selection := make(grading.Selection, len(scores))
	for category, score := range scores {
		selection.Record(category, score)
	}
	return selection
}

// GradeNotice renders the message sent to a student once their grade is available.
func GradeNotice(submission models.Submission) string {
	recipient := orDefault(submission.StudentEmail, "Student")
	name := orDefault(submission.FullNameForCertificate, "Student")

	feedback := "No additional feedback was provided."
	if submission.Feedback != nil && strings.TrimSpace(*submission.Feedback) != "" {
		feedback = strings.TrimSpace(*submission.Feedback)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\n", recipient)
	b.WriteString("From: Notebook Grading Platform <noreply@example.com>\n")
	fmt.Fprintf(&b, "Subject: Your Grade for \"%s\" is Available!\n\n", submission.AssignmentTitle)
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Your submission for the assignment \"%s\" has been graded.\n\n", submission.AssignmentTitle)

	if submission.Grade != nil {
		fmt.Fprintf(&b, "Final Grade: %d%%\n\n", *submission.Grade)
	}
	fmt.Fprintf(&b, "Additional Feedback:\n%s\n", feedback)

	if submission.Grade != nil {
		if submission.CertificateEligible {
			b.WriteString("\nCongratulations! Based on your grade, your certificate of completion is now available.\n")
		} else {
			b.WriteString("\nPlease review the detailed rubric breakdown and feedback on the platform to understand areas for improvement.\n")
		}
	}
	b.WriteString("\nBest regards,\nThe Grading Team")

	return b.String()
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
