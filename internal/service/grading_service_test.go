package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/notebook-grading-api/internal/dto"
	"github.com/noah-isme/notebook-grading-api/internal/grading"
	"github.com/noah-isme/notebook-grading-api/internal/models"
	"github.com/noah-isme/notebook-grading-api/internal/repository"
)

func uniformScores(score int) map[string]int {
	scores := map[string]int{}
	for _, category := range grading.NotebookRubric().Categories() {
		scores[category.Name] = score
	}
	return scores
}

func newGradingFixture(t *testing.T) (GradingService, *recordingFeed, models.Submission, repository.SubmissionRepository) {
	t.Helper()
	db := setupServiceDB(t)
	repo := repository.NewSubmissionRepository(db)
	feed := &recordingFeed{}
	engine := grading.NewEngine(grading.NotebookRubric(), grading.DefaultPolicy())
	graders := NewGraderDirectory(map[string]string{"grader-1": "Dr. Moleboge"})

	svc := NewGradingService(engine, repo, feed, graders, newValidator(), zerolog.Nop())
	svc.(*gradingService).now = func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) }

	return svc, feed, seedSubmission(t, db, "student-1", "Week 4 Notebook"), repo
}

func TestGradingServiceCommitPersistsGrade(t *testing.T) {
	svc, feed, submission, repo := newGradingFixture(t)

	feedback := "  Nice <b>plots</b> & tidy code  "
	result, err := svc.Commit(context.Background(), graderActor, submission.ID, dto.GradeCommitRequest{
		Scores:   uniformScores(2),
		Feedback: &feedback,
	})
	require.NoError(t, err)

	require.Equal(t, models.SubmissionStatusGraded, result.Submission.Status)
	require.NotNil(t, result.Submission.Grade)
	require.Equal(t, 67, *result.Submission.Grade)
	require.True(t, result.Submission.CertificateEligible)
	require.Equal(t, "Dr. Moleboge", result.Submission.GraderName)
	require.Equal(t, uniformScores(2), result.Submission.RubricScores)
	require.Equal(t, "Nice plots & tidy code", *result.Submission.Feedback)

	stored, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, 67, *stored.Grade)
	require.Equal(t, "grader-1", *stored.GradedBy)
	require.WithinDuration(t, time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC), *stored.GradedAt, time.Second)

	require.Len(t, feed.events, 1)
	require.Equal(t, dto.SubmissionEventGraded, feed.events[0].Type)

	require.Contains(t, result.Notice, "To: student-1@school.test")
	require.Contains(t, result.Notice, `Subject: Your Grade for "Week 4 Notebook" is Available!`)
	require.Contains(t, result.Notice, "Final Grade: 67%")
	require.Contains(t, result.Notice, "Congratulations!")
}

func TestGradingServiceCommitRejectsIncompleteRubric(t *testing.T) {
	svc, feed, submission, repo := newGradingFixture(t)

	scores := uniformScores(3)
	delete(scores, "Analysis")
	delete(scores, "Results")

	_, err := svc.Commit(context.Background(), graderActor, submission.ID, dto.GradeCommitRequest{Scores: scores})

	var incomplete *grading.IncompleteRubricError
	require.ErrorAs(t, err, &incomplete)
	require.Equal(t, 6, incomplete.Total)
	require.Equal(t, 4, incomplete.Scored)
	require.Equal(t, []string{"Analysis", "Results"}, incomplete.Missing)

	stored, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, stored.Status)
	require.Nil(t, stored.Grade)
	require.Empty(t, feed.events)
}

func TestGradingServiceCommitBelowThreshold(t *testing.T) {
	svc, _, submission, _ := newGradingFixture(t)

	result, err := svc.Commit(context.Background(), graderActor, submission.ID, dto.GradeCommitRequest{Scores: uniformScores(1)})
	require.NoError(t, err)
	require.Equal(t, 33, *result.Submission.Grade)
	require.False(t, result.Submission.CertificateEligible)
	require.Nil(t, result.Submission.Feedback)
	require.Contains(t, result.Notice, "No additional feedback was provided.")
	require.Contains(t, result.Notice, "areas for improvement")
}

func TestGradingServiceCommitRegradeOverwrites(t *testing.T) {
	svc, _, submission, _ := newGradingFixture(t)

	_, err := svc.Commit(context.Background(), graderActor, submission.ID, dto.GradeCommitRequest{Scores: uniformScores(1)})
	require.NoError(t, err)

	result, err := svc.Commit(context.Background(), graderActor, submission.ID, dto.GradeCommitRequest{Scores: uniformScores(3)})
	require.NoError(t, err)
	require.Equal(t, 100, *result.Submission.Grade)
	require.True(t, result.Submission.CertificateEligible)
	require.Equal(t, models.SubmissionStatusGraded, result.Submission.Status)
}

func TestGradingServiceCommitErrors(t *testing.T) {
	svc, _, submission, _ := newGradingFixture(t)

	_, err := svc.Commit(context.Background(), studentActor, submission.ID, dto.GradeCommitRequest{Scores: uniformScores(3)})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Commit(context.Background(), graderActor, "missing", dto.GradeCommitRequest{Scores: uniformScores(3)})
	require.ErrorIs(t, err, ErrSubmissionNotFound)

	_, err = svc.Commit(context.Background(), graderActor, submission.ID, dto.GradeCommitRequest{})
	require.Error(t, err)
}

func TestGradingServicePreviewAndFeedback(t *testing.T) {
	svc, _, _, _ := newGradingFixture(t)

	preview, err := svc.Preview(dto.GradingPreviewRequest{Scores: map[string]int{"Analysis": 3}})
	require.NoError(t, err)
	require.Equal(t, 17, preview.Grade)
	require.False(t, preview.Eligible)
	require.False(t, preview.Complete)
	require.Equal(t, 1, preview.Scored)
	require.Len(t, preview.Missing, 5)

	full, err := svc.Preview(dto.GradingPreviewRequest{Scores: uniformScores(3)})
	require.NoError(t, err)
	require.True(t, full.Complete)
	require.Empty(t, full.Missing)
	require.Equal(t, 100, full.Grade)

	compiled, err := svc.CompileFeedback(dto.FeedbackCompileRequest{
		Scores:           map[string]int{"Results": 1, "Analysis": 3},
		ExistingFeedback: "Good effort.",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(compiled.Compiled, grading.FeedbackHeader))
	require.True(t, strings.HasPrefix(compiled.Feedback, "Good effort.\n\n"+grading.FeedbackHeader))
	require.Less(t, strings.Index(compiled.Compiled, "- Analysis"), strings.Index(compiled.Compiled, "- Results"))

	rubric := svc.Rubric()
	require.Len(t, rubric.Categories, 6)
	require.Equal(t, 3, rubric.MaxPerCategory)
	require.Equal(t, grading.DefaultPassThreshold, rubric.PassThreshold)
}

func TestGradingServiceRejectsScoresOutsideRubric(t *testing.T) {
	svc, feed, submission, repo := newGradingFixture(t)

	huge := uniformScores(1 << 59)
	_, err := svc.Commit(context.Background(), graderActor, submission.ID, dto.GradeCommitRequest{Scores: huge})
	var invalid *grading.InvalidScoreError
	require.ErrorAs(t, err, &invalid)
	require.True(t, invalid.Known)
	require.Equal(t, grading.NotebookRubric().Categories()[0].Name, invalid.Category)

	extra := uniformScores(3)
	extra["Bonus"] = 1 << 62
	_, err = svc.Commit(context.Background(), graderActor, submission.ID, dto.GradeCommitRequest{Scores: extra})
	require.ErrorAs(t, err, &invalid)
	require.False(t, invalid.Known)
	require.Equal(t, "Bonus", invalid.Category)

	stored, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Nil(t, stored.Grade)
	require.Empty(t, feed.events)

	_, err = svc.Preview(dto.GradingPreviewRequest{Scores: map[string]int{"Analysis": 0}})
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "Analysis", invalid.Category)
}

func TestGradeNoticeWithoutGrade(t *testing.T) {
	notice := GradeNotice(models.Submission{AssignmentTitle: "Week 1"})
	require.True(t, strings.HasPrefix(notice, "To: Student\n"))
	require.Contains(t, notice, "Hi Student,")
	require.NotContains(t, notice, "Final Grade")
	require.True(t, strings.HasSuffix(notice, "Best regards,\nThe Grading Team"))
}
