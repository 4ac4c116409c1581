package service

import (
	"strings"

	"github.com/noah-isme/notebook-grading-api/internal/models"
)

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID    string
	Email string
	Role  string
}

// IsGrader reports whether the actor grades submissions.
func (a Actor) IsGrader() bool {
	return strings.EqualFold(a.Role, models.RoleGrader)
}

// IsStudent reports whether the actor submits notebooks.
func (a Actor) IsStudent() bool {
	return strings.EqualFold(a.Role, models.RoleStudent)
}

const notAvailable = "Not available"

// GraderDirectory maps grader identifiers to display names.
type GraderDirectory struct {
	names map[string]string
}

// NewGraderDirectory copies the provided id to name table.
func NewGraderDirectory(names map[string]string) GraderDirectory {
	copied := make(map[string]string, len(names))
	for id, name := range names {
		copied[id] = name
	}
	return GraderDirectory{names: copied}
}

// DisplayName returns the grader's name, the raw id when unknown, or "Not available" for an empty id.
func (d GraderDirectory) DisplayName(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return notAvailable
	}
	if name, ok := d.names[id]; ok {
		return name
	}
	return id
}

func (d GraderDirectory) describe(graderID *string) string {
	if graderID == nil {
		return notAvailable
	}
	return d.DisplayName(*graderID)
}
