package handler_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/notebook-grading-api/internal/dto"
)

func TestRoleHandlerSelectionDrivesAccess(t *testing.T) {
	tb := setupTestbed(t)
	token := bearer(t, "user-7", "")

	resp := tb.do(t, http.MethodGet, "/api/v1/me/role", token, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = tb.do(t, http.MethodGet, "/api/v1/stats/grader", token, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = tb.do(t, http.MethodPut, "/api/v1/me/role", token, dto.RoleSelectRequest{Role: "admin"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = tb.do(t, http.MethodPut, "/api/v1/me/role", token, dto.RoleSelectRequest{Role: "grader"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var selected dto.RoleResponse
	decodeData(t, resp, &selected)
	require.Equal(t, "grader", selected.Role)
	require.Equal(t, "user-7@school.test", selected.Email)

	resp = tb.do(t, http.MethodGet, "/api/v1/stats/grader", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = tb.do(t, http.MethodGet, "/api/v1/me/role", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
