package dto

import "github.com/noah-isme/notebook-grading-api/internal/grading"

// RubricCriterion is one scoring band of a category.
type RubricCriterion struct {
	Score       int    `json:"score"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// RubricCategory lists the bands a grader can pick for one category.
type RubricCategory struct {
	Category string            `json:"category"`
	Criteria []RubricCriterion `json:"criteria"`
}

// RubricResponse exposes the active rubric and grading policy.
type RubricResponse struct {
	Categories     []RubricCategory `json:"categories"`
	MaxPerCategory int              `json:"max_per_category"`
	PassThreshold  int              `json:"pass_threshold"`
}

// NewRubricResponse converts a rubric definition into its wire form.
func NewRubricResponse(rubric grading.Definition, policy grading.Policy) RubricResponse {
	categories := rubric.Categories()
	response := RubricResponse{
		Categories:     make([]RubricCategory, 0, len(categories)),
		MaxPerCategory: rubric.MaxPerCategory(),
		PassThreshold:  policy.PassThreshold,
	}

	for _, category := range categories {
		criteria := make([]RubricCriterion, 0, len(category.Criteria))
		for _, criterion := range category.Criteria {
			criteria = append(criteria, RubricCriterion{
				Score:       criterion.Score,
				Label:       criterion.Label,
				Description: criterion.Description,
			})
		}
		response.Categories = append(response.Categories, RubricCategory{Category: category.Name, Criteria: criteria})
	}

	return response
}

// GradingPreviewRequest carries an in-progress rubric selection.
type GradingPreviewRequest struct {
	Scores map[string]int `json:"scores"`
}

// GradingPreviewResponse reports the running grade of a selection.
type GradingPreviewResponse struct {
	Grade    int      `json:"grade"`
	Eligible bool     `json:"certificate_eligible"`
	Complete bool     `json:"complete"`
	Scored   int      `json:"scored"`
	Total    int      `json:"total"`
	Missing  []string `json:"missing"`
}

// NewGradingPreviewResponse converts an engine evaluation.
func NewGradingPreviewResponse(evaluation grading.Evaluation) GradingPreviewResponse {
	missing := evaluation.Missing
	if missing == nil {
		missing = []string{}
	}
	return GradingPreviewResponse{
		Grade:    evaluation.Result.Percentage,
		Eligible: evaluation.Result.Eligible,
		Complete: evaluation.Complete,
		Scored:   evaluation.Scored,
		Total:    evaluation.Total,
		Missing:  missing,
	}
}

// FeedbackCompileRequest asks for rubric feedback appended to existing text.
type FeedbackCompileRequest struct {
	Scores           map[string]int `json:"scores"`
	ExistingFeedback string         `json:"existing_feedback" validate:"max=10000"`
}

// FeedbackCompileResponse returns the compiled block and the combined text.
type FeedbackCompileResponse struct {
	Compiled string `json:"compiled"`
	Feedback string `json:"feedback"`
}

// GradeCommitRequest finalises a grade for a submission.
type GradeCommitRequest struct {
	Scores   map[string]int `json:"scores" validate:"required"`
	Feedback *string        `json:"feedback" validate:"omitempty,max=10000"`
}

// GradeCommitResponse returns the graded submission with the student notice.
type GradeCommitResponse struct {
	Submission SubmissionResponse `json:"submission"`
	Notice     string             `json:"notice"`
}

// IncompleteRubricDetails is attached to 422 responses.
type IncompleteRubricDetails struct {
	Total     int      `json:"total"`
	Scored    int      `json:"scored"`
	Remaining int      `json:"remaining"`
	Missing   []string `json:"missing"`
}

// InvalidScoreDetails names the rejected entry of a rubric selection.
type InvalidScoreDetails struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
}
