package grading

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func uniformSelection(def Definition, score int) Selection {
	sel := Selection{}
	for _, category := range def.Categories() {
		sel.Record(category.Name, score)
	}
	return sel
}

func TestComputeGradeAllMinimum(t *testing.T) {
	engine := NewEngine(NotebookRubric(), DefaultPolicy())

	result := engine.ComputeGrade(uniformSelection(engine.Rubric(), 1))

	require.Equal(t, 33, result.Percentage)
	require.False(t, result.Eligible)
}

func TestComputeGradeAllMaximum(t *testing.T) {
	engine := NewEngine(NotebookRubric(), DefaultPolicy())

	result := engine.ComputeGrade(uniformSelection(engine.Rubric(), 3))

	require.Equal(t, 100, result.Percentage)
	require.True(t, result.Eligible)
}

func TestComputeGradeEmptySelection(t *testing.T) {
	engine := NewEngine(NotebookRubric(), DefaultPolicy())

	require.Equal(t, Result{Percentage: 0, Eligible: false}, engine.ComputeGrade(nil))
	require.Equal(t, Result{Percentage: 0, Eligible: false}, engine.ComputeGrade(Selection{}))
}

func TestComputeGradeRoundsHalfUp(t *testing.T) {
	def := MustDefinition([]Category{
		{Name: "A", Criteria: []Criterion{{Score: 0, Label: "none"}, {Score: 8, Label: "full"}}},
	})
	engine := NewEngine(def, DefaultPolicy())

	// 1/8 = 12.5% rounds up, 3/8 = 37.5% rounds up.
	require.Equal(t, 13, engine.ComputeGrade(Selection{"A": 1}).Percentage)
	require.Equal(t, 38, engine.ComputeGrade(Selection{"A": 3}).Percentage)
}

func TestComputeGradeEligibilityBoundary(t *testing.T) {
	def := MustDefinition([]Category{
		{Name: "Score", Criteria: []Criterion{{Score: 0, Label: "min"}, {Score: 100, Label: "max"}}},
	})
	engine := NewEngine(def, DefaultPolicy())

	below := engine.ComputeGrade(Selection{"Score": 49})
	require.Equal(t, 49, below.Percentage)
	require.False(t, below.Eligible)

	at := engine.ComputeGrade(Selection{"Score": 50})
	require.Equal(t, 50, at.Percentage)
	require.True(t, at.Eligible)
}

func TestComputeGradeCustomThreshold(t *testing.T) {
	engine := NewEngine(NotebookRubric(), Policy{PassThreshold: 70})

	result := engine.ComputeGrade(uniformSelection(engine.Rubric(), 2))
	require.Equal(t, 67, result.Percentage)
	require.False(t, result.Eligible)

	require.Equal(t, DefaultPassThreshold, NewEngine(NotebookRubric(), Policy{}).Policy().PassThreshold)
}

func TestComputeGradeClampsInflatedTotals(t *testing.T) {
	engine := NewEngine(NotebookRubric(), DefaultPolicy())
	sel := uniformSelection(engine.Rubric(), 3).Record("Bonus", 9)

	require.Equal(t, 100, engine.ComputeGrade(sel).Percentage)
}

func TestComputeGradeStaysInRangeForHugeScores(t *testing.T) {
	engine := NewEngine(NotebookRubric(), DefaultPolicy())

	result := engine.ComputeGrade(uniformSelection(engine.Rubric(), 1<<59))
	require.Equal(t, 100, result.Percentage)
	require.True(t, result.Eligible)

	sel := Selection{"Bonus": 1 << 62, "Extra": 1 << 62, "More": 1 << 62}
	require.Equal(t, math.MaxInt, sel.Total())
	require.Equal(t, 100, engine.ComputeGrade(sel).Percentage)

	negative := Selection{"Analysis": math.MinInt, "Results": -1}
	require.Equal(t, math.MinInt, negative.Total())
	require.Equal(t, 0, engine.ComputeGrade(negative).Percentage)
}

func TestValidateScores(t *testing.T) {
	engine := NewEngine(NotebookRubric(), DefaultPolicy())

	require.NoError(t, engine.ValidateScores(uniformSelection(engine.Rubric(), 2)))
	require.NoError(t, engine.ValidateScores(Selection{"Analysis": 1}))
	require.NoError(t, engine.ValidateScores(nil))

	var invalid *InvalidScoreError
	err := engine.ValidateScores(Selection{"Results": 4, "Analysis": 0})
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, InvalidScoreError{Category: "Analysis", Score: 0, Known: true}, *invalid)
	require.Contains(t, err.Error(), `score 0 is not a criterion of "Analysis"`)

	err = engine.ValidateScores(Selection{"Analysis": 2, "Zeta": 1, "Bonus": 1})
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, InvalidScoreError{Category: "Bonus", Score: 1}, *invalid)
	require.Contains(t, err.Error(), "unknown rubric category")
}

func TestComputeGradeIsIdempotent(t *testing.T) {
	engine := NewEngine(NotebookRubric(), DefaultPolicy())
	sel := Selection{
		"Application of Concepts learnt": 2,
		"Analysis":                       3,
		"Results":                        1,
		"Readability":                    2,
		"Presentation":                   3,
		"Writing":                        2,
	}
	snapshot := sel.Clone()

	first := engine.ComputeGrade(sel)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, engine.ComputeGrade(sel))
	}
	require.Equal(t, 72, first.Percentage)
	require.Equal(t, snapshot, sel)
}

func TestIsComplete(t *testing.T) {
	engine := NewEngine(NotebookRubric(), DefaultPolicy())

	sel := Selection{}
	for i, category := range engine.Rubric().Categories() {
		require.False(t, engine.IsComplete(sel), "expected incomplete after %d categories", i)
		sel.Record(category.Name, 2)
	}
	require.True(t, engine.IsComplete(sel))

	sel.Record("Unlisted", 1)
	require.True(t, engine.IsComplete(sel))
}

func TestIsCompleteUnknownKeysDoNotCount(t *testing.T) {
	engine := NewEngine(NotebookRubric(), DefaultPolicy())

	sel := Selection{}
	for i := 0; i < engine.Rubric().Len(); i++ {
		sel.Record("unknown-"+string(rune('a'+i)), 3)
	}

	require.False(t, engine.IsComplete(sel))
}

func TestRequireCompleteReportsMissing(t *testing.T) {
	engine := NewEngine(NotebookRubric(), DefaultPolicy())
	sel := Selection{"Writing": 3, "Analysis": 2}

	err := engine.RequireComplete(sel)
	require.Error(t, err)

	var incomplete *IncompleteRubricError
	require.True(t, errors.As(err, &incomplete))
	require.Equal(t, 6, incomplete.Total)
	require.Equal(t, 2, incomplete.Scored)
	require.Equal(t, 4, incomplete.Remaining())
	require.Equal(t, []string{"Application of Concepts learnt", "Results", "Readability", "Presentation"}, incomplete.Missing)
	require.Contains(t, err.Error(), "2 of 6")

	require.NoError(t, engine.RequireComplete(uniformSelection(engine.Rubric(), 1)))
}

func TestEvaluate(t *testing.T) {
	engine := NewEngine(NotebookRubric(), DefaultPolicy())

	eval := engine.Evaluate(Selection{"Writing": 3})
	require.False(t, eval.Complete)
	require.Equal(t, 1, eval.Scored)
	require.Equal(t, 6, eval.Total)
	require.Len(t, eval.Missing, 5)
	require.Equal(t, 17, eval.Result.Percentage)
}

func TestCompileFeedbackFollowsRubricOrder(t *testing.T) {
	engine := NewEngine(NotebookRubric(), DefaultPolicy())

	sel := Selection{}
	sel.Record("Writing", 3)
	sel.Record("Analysis", 1)
	sel.Record("Readability", 2)

	feedback := engine.CompileFeedback(sel)
	lines := strings.Split(strings.TrimRight(feedback, "\n"), "\n")

	require.Equal(t, FeedbackHeader, lines[0])
	require.Equal(t, []string{
		"- Analysis (0-50%): Choice of analysis is overly simplistic or incomplete",
		"- Readability (50-75%): Code is reasonably well organized. There is little unused or irrelevant code, or this code has been moved out of the main project files. Variable and function names generally meaningful and helpful for understanding.",
		"- Writing (75-100): Explanation is correct, complete, convincing, and elegant",
	}, lines[1:])
}

func TestCompileFeedbackSkipsUnscoredAndUnknownScores(t *testing.T) {
	engine := NewEngine(NotebookRubric(), DefaultPolicy())

	feedback := engine.CompileFeedback(Selection{"Results": 7, "Unlisted": 2})
	require.Equal(t, FeedbackHeader+"\n", feedback)
}

func TestAppendFeedbackNeverReplaces(t *testing.T) {
	compiled := FeedbackHeader + "\n- Writing (75-100): elegant\n"

	require.Equal(t, compiled, AppendFeedback("", compiled))
	require.Equal(t, "Nice plots.\n\n"+compiled, AppendFeedback("Nice plots.", compiled))
}

func TestSelectionRecordOnNil(t *testing.T) {
	var sel Selection
	sel = sel.Record("Analysis", 2)

	require.Equal(t, Selection{"Analysis": 2}, sel)
	require.Equal(t, 2, sel.Total())
}
