package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/notebook-grading-api/internal/dto"
	"github.com/noah-isme/notebook-grading-api/internal/models"
	"github.com/noah-isme/notebook-grading-api/internal/repository"
)

var (
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrForbidden indicates the caller may not access the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidSubmission indicates required submission fields are missing or malformed.
	ErrInvalidSubmission = errors.New("assignment title, notebook link and full name are required")
	// ErrInvalidNotebook indicates an uploaded notebook file was rejected.
	ErrInvalidNotebook = errors.New("notebook must be a .ipynb JSON document")
)

const notebookExtension = ".ipynb"

// FileUploader stores uploaded files and returns their public URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// SubmissionService orchestrates submission workflows.
type SubmissionService interface {
	Create(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest, notebook *multipart.FileHeader) (dto.SubmissionResponse, error)
	List(ctx context.Context, actor Actor, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, actor Actor, id string) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	uploader    FileUploader
	feed        SubmissionFeed
	graders     GraderDirectory
	sanitizer   *bluemonday.Policy
	maxNotebook int64
	logger      zerolog.Logger
}

// NewSubmissionService constructs a SubmissionService instance. The uploader and feed may be nil.
func NewSubmissionService(repo repository.SubmissionRepository, validate *validator.Validate, uploader FileUploader, feed SubmissionFeed, graders GraderDirectory, maxNotebookMB int, logger zerolog.Logger) SubmissionService {
	if maxNotebookMB <= 0 {
		maxNotebookMB = 10
	}
	return &submissionService{
		submissions: repo,
		validator:   validate,
		uploader:    uploader,
		feed:        feed,
		graders:     graders,
		sanitizer:   bluemonday.StrictPolicy(),
		maxNotebook: int64(maxNotebookMB) * 1024 * 1024,
		logger:      logger.With().Str("component", "submission_service").Logger(),
	}
}

func (s *submissionService) Create(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest, notebook *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if strings.TrimSpace(actor.ID) == "" {
		return dto.SubmissionResponse{}, ErrForbidden
	}

	payload.AssignmentTitle = cleanText(s.sanitizer, payload.AssignmentTitle)
	payload.FullNameForCertificate = cleanText(s.sanitizer, payload.FullNameForCertificate)
	payload.NotebookLink = strings.TrimSpace(payload.NotebookLink)

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	link := payload.NotebookLink
	if notebook != nil {
		uploaded, err := s.uploadNotebook(ctx, notebook)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		link = uploaded
	}
	if !isAbsoluteURL(link) {
		return dto.SubmissionResponse{}, ErrInvalidSubmission
	}

	email := strings.TrimSpace(actor.Email)
	if email == "" {
		email = actor.ID + "@example.com"
	}

	submission := models.Submission{
		StudentID:              actor.ID,
		StudentEmail:           email,
		AssignmentTitle:        payload.AssignmentTitle,
		NotebookLink:           link,
		FullNameForCertificate: payload.FullNameForCertificate,
		Status:                 models.SubmissionStatusSubmitted,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("create submission: %w", err)
	}

	s.logger.Info().Str("submission_id", submission.ID).Str("student_id", actor.ID).Msg("submission created")

	response := s.present(submission)
	if s.feed != nil {
		s.feed.Publish(ctx, dto.SubmissionEvent{Type: dto.SubmissionEventCreated, Submission: response})
	}

	return response, nil
}

func (s *submissionService) List(ctx context.Context, actor Actor, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.SubmissionFilter{Status: filter.Status}
	switch {
	case actor.IsGrader():
		repoFilter.StudentID = filter.StudentID
	case actor.IsStudent():
		studentID := actor.ID
		repoFilter.StudentID = &studentID
	default:
		return nil, ErrForbidden
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	responses := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, s.present(submission))
	}
	return responses, nil
}

func (s *submissionService) Get(ctx context.Context, actor Actor, id string) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, fmt.Errorf("load submission: %w", err)
	}

	if !actor.IsGrader() && submission.StudentID != actor.ID {
		return dto.SubmissionResponse{}, ErrForbidden
	}

	return s.present(submission), nil
}

func (s *submissionService) present(submission models.Submission) dto.SubmissionResponse {
	response := dto.NewSubmissionResponse(submission)
	response.GraderName = s.graders.describe(submission.GradedBy)
	return response
}

func (s *submissionService) uploadNotebook(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("notebook uploads are not configured: %w", ErrInvalidNotebook)
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), notebookExtension) {
		return "", ErrInvalidNotebook
	}
	if file.Size > s.maxNotebook {
		return "", fmt.Errorf("notebook exceeds %d bytes: %w", s.maxNotebook, ErrInvalidNotebook)
	}

	handle, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open notebook: %w", err)
	}
	defer handle.Close()

	raw, err := io.ReadAll(io.LimitReader(handle, s.maxNotebook+1))
	if err != nil {
		return "", fmt.Errorf("read notebook: %w", err)
	}
	if int64(len(raw)) > s.maxNotebook {
		return "", fmt.Errorf("notebook exceeds %d bytes: %w", s.maxNotebook, ErrInvalidNotebook)
	}

	mime := mimetype.Detect(raw)
	if !mime.Is("application/json") && !mime.Is("text/plain") {
		return "", fmt.Errorf("notebook detected as %s: %w", mime.String(), ErrInvalidNotebook)
	}
	if !json.Valid(raw) {
		return "", ErrInvalidNotebook
	}

	uploaded, err := s.uploader.Upload(ctx, file.Filename, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("upload notebook: %w", err)
	}

	s.logger.Info().Str("file", file.Filename).Int("bytes", len(raw)).Msg("notebook uploaded")
	return uploaded, nil
}

// cleanText strips markup and surrounding whitespace from user supplied text.
func cleanText(policy *bluemonday.Policy, value string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(value)))
}

func isAbsoluteURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
