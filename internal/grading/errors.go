package grading

import (
	"fmt"
	"strings"
)

// IncompleteRubricError is returned when a grade is committed before every category is scored.
type IncompleteRubricError struct {
	Total   int
	Scored  int
	Missing []string
}

func (e *IncompleteRubricError) Error() string {
	return fmt.Sprintf("rubric incomplete: %d of %d categories scored, missing %s",
		e.Scored, e.Total, strings.Join(e.Missing, ", "))
}

// Remaining is the number of categories still unscored.
func (e *IncompleteRubricError) Remaining() int {
	return e.Total - e.Scored
}

// InvalidScoreError is returned when a selection names an unknown category or a score
// that no criterion of the category defines.
type InvalidScoreError struct {
	Category string
	Score    int
	// Known is false when the category is not part of the rubric.
	Known bool
}

func (e *InvalidScoreError) Error() string {
	if !e.Known {
		return fmt.Sprintf("unknown rubric category %q", e.Category)
	}
	return fmt.Sprintf("score %d is not a criterion of %q", e.Score, e.Category)
}
