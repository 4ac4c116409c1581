package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/notebook-grading-api/internal/dto"
	"github.com/noah-isme/notebook-grading-api/internal/models"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Submission{}, &models.UserRole{}))
	return db
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func seedSubmission(t *testing.T, db *gorm.DB, studentID, title string) models.Submission {
	t.Helper()
	submission := models.Submission{
		StudentID:              studentID,
		StudentEmail:           studentID + "@school.test",
		AssignmentTitle:        title,
		NotebookLink:           "https://colab.research.google.com/drive/" + studentID,
		FullNameForCertificate: "Ada Lovelace",
		SubmittedAt:            time.Now().UTC(),
	}
	require.NoError(t, db.Create(&submission).Error)
	return submission
}

func notebookFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("notebook", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["notebook"][0]
}

// recordingFeed captures published events without fan-out.
type recordingFeed struct {
	events []dto.SubmissionEvent
}

func (f *recordingFeed) Publish(_ context.Context, event dto.SubmissionEvent) {
	f.events = append(f.events, event)
}

func (f *recordingFeed) Subscribe(FeedFilter) (<-chan dto.SubmissionEvent, func()) {
	ch := make(chan dto.SubmissionEvent)
	return ch, func() {}
}

func (f *recordingFeed) Start(context.Context) {}

var (
	studentActor = Actor{ID: "student-1", Email: "ada@school.test", Role: models.RoleStudent}
	graderActor  = Actor{ID: "grader-1", Role: models.RoleGrader}
)
