package handler_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/notebook-grading-api/internal/dto"
	"github.com/noah-isme/notebook-grading-api/internal/models"
)

func TestCertificateHandlerDownload(t *testing.T) {
	tb := setupTestbed(t)
	submission := createSubmission(t, tb, "student-1", "Week 5 Notebook")
	student := bearer(t, "student-1", models.RoleStudent)
	path := "/api/v1/submissions/" + submission.ID + "/certificate"

	resp := tb.do(t, http.MethodGet, path, student, nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = tb.do(t, http.MethodPost, "/api/v1/grading/"+submission.ID, bearer(t, "grader-1", models.RoleGrader), dto.GradeCommitRequest{Scores: allScores(2)})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = tb.do(t, http.MethodGet, path, student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	require.Equal(t, `attachment; filename="Certificate_Ada_Lovelace_Week_5_Notebook.pdf"`, resp.Header.Get("Content-Disposition"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "%PDF-", string(body[:5]))

	resp = tb.do(t, http.MethodGet, path, bearer(t, "student-2", models.RoleStudent), nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = tb.do(t, http.MethodGet, path, bearer(t, "grader-1", models.RoleGrader), nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCertificateHandlerIneligible(t *testing.T) {
	tb := setupTestbed(t)
	submission := createSubmission(t, tb, "student-1", "Week 6")

	resp := tb.do(t, http.MethodPost, "/api/v1/grading/"+submission.ID, bearer(t, "grader-1", models.RoleGrader), dto.GradeCommitRequest{Scores: allScores(1)})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = tb.do(t, http.MethodGet, "/api/v1/submissions/"+submission.ID+"/certificate", bearer(t, "student-1", models.RoleStudent), nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestCertificateHandlerNameOutsideFontCoverage(t *testing.T) {
	tb := setupTestbed(t)
	resp := tb.do(t, http.MethodPost, "/api/v1/submissions", bearer(t, "student-1", models.RoleStudent), dto.SubmissionCreateRequest{
		AssignmentTitle:        "Week 7",
		NotebookLink:           "https://colab.research.google.com/drive/student-1",
		FullNameForCertificate: "李雷",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var submission dto.SubmissionResponse
	decodeData(t, resp, &submission)

	resp = tb.do(t, http.MethodPost, "/api/v1/grading/"+submission.ID, bearer(t, "grader-1", models.RoleGrader), dto.GradeCommitRequest{Scores: allScores(3)})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = tb.do(t, http.MethodGet, "/api/v1/submissions/"+submission.ID+"/certificate", bearer(t, "student-1", models.RoleStudent), nil)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
