package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/notebook-grading-api/internal/certificate"
	"github.com/noah-isme/notebook-grading-api/internal/repository"
)

// ErrCertificateUnavailable indicates the submission does not qualify for a certificate.
var ErrCertificateUnavailable = errors.New("certificate not available for this submission")

const defaultCertificateDateLayout = "1/2/2006"

// CertificateRenderer produces certificate document bytes.
type CertificateRenderer interface {
	Render(ctx context.Context, fullName, completionDate string) ([]byte, error)
}

// CertificateFile is a rendered certificate ready for download.
type CertificateFile struct {
	Filename string
	Data     []byte
}

// CertificateService issues completion certificates for eligible submissions.
type CertificateService interface {
	Issue(ctx context.Context, actor Actor, submissionID string) (CertificateFile, error)
}

type certificateService struct {
	submissions repository.SubmissionRepository
	renderer    CertificateRenderer
	dateLayout  string
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCertificateService constructs a certificate service.
func NewCertificateService(repo repository.SubmissionRepository, renderer CertificateRenderer, dateLayout string, logger zerolog.Logger) CertificateService {
	if strings.TrimSpace(dateLayout) == "" {
		dateLayout = defaultCertificateDateLayout
	}
	return &certificateService{
		submissions: repo,
		renderer:    renderer,
		dateLayout:  dateLayout,
		logger:      logger.With().Str("component", "certificate_service").Logger(),
		now:         time.Now,
	}
}

func (s *certificateService) Issue(ctx context.Context, actor Actor, submissionID string) (CertificateFile, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CertificateFile{}, ErrSubmissionNotFound
		}
		return CertificateFile{}, fmt.Errorf("load submission: %w", err)
	}

	if submission.StudentID != actor.ID {
		return CertificateFile{}, ErrForbidden
	}

	fullName := strings.TrimSpace(submission.FullNameForCertificate)
	if !submission.IsGraded() || !submission.CertificateEligible || fullName == "" {
		return CertificateFile{}, ErrCertificateUnavailable
	}

	completed := s.now()
	if submission.GradedAt != nil {
		completed = *submission.GradedAt
	}

	data, err := s.renderer.Render(ctx, fullName, completed.Format(s.dateLayout))
	if err != nil {
		return CertificateFile{}, err
	}

	s.logger.Info().Str("submission_id", submission.ID).Int("bytes", len(data)).Msg("certificate issued")

	return CertificateFile{
		Filename: certificate.Filename(fullName, submission.AssignmentTitle),
		Data:     data,
	}, nil
}
