package grading

import (
	"sort"
	"strings"
)

// DefaultPassThreshold is the inclusive percentage from which a student earns a certificate.
const DefaultPassThreshold = 50

// FeedbackHeader opens every compiled rubric feedback block.
const FeedbackHeader = "Rubric Feedback:"

// Policy carries the tunable parts of grade derivation.
type Policy struct {
	PassThreshold int
}

// DefaultPolicy returns the policy used when no override is configured.
func DefaultPolicy() Policy {
	return Policy{PassThreshold: DefaultPassThreshold}
}

// Result is the grade derived from a selection.
type Result struct {
	Percentage int  `json:"percentage"`
	Eligible   bool `json:"eligible"`
}

// Evaluation bundles a result with completeness details for a grader preview.
type Evaluation struct {
	Result   Result   `json:"result"`
	Complete bool     `json:"complete"`
	Scored   int      `json:"scored"`
	Total    int      `json:"total"`
	Missing  []string `json:"missing"`
}

// Engine derives grades, completeness and feedback from selections against one rubric.
type Engine struct {
	rubric Definition
	policy Policy
}

// NewEngine binds a rubric and policy. A non-positive threshold falls back to the default.
func NewEngine(rubric Definition, policy Policy) *Engine {
	if policy.PassThreshold <= 0 {
		policy.PassThreshold = DefaultPassThreshold
	}
	return &Engine{rubric: rubric, policy: policy}
}

// Rubric exposes the bound rubric definition.
func (e *Engine) Rubric() Definition {
	return e.rubric
}

// Policy exposes the bound policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// ComputeGrade converts a selection into a rounded percentage and eligibility flag.
func (e *Engine) ComputeGrade(sel Selection) Result {
	percentage := 0
	if len(sel) > 0 {
		percentage = percentOf(sel.Total(), e.rubric.Len()*e.rubric.MaxPerCategory())
	}

	return Result{
		Percentage: percentage,
		Eligible:   percentage >= e.policy.PassThreshold,
	}
}

// percentOf rounds total/denominator*100 half-up using integer arithmetic and clamps to [0,100].
func percentOf(total, denominator int) int {
	if denominator <= 0 || total <= 0 {
		return 0
	}
	if total >= denominator {
		return 100
	}
	return (200*total + denominator) / (2 * denominator)
}

// ValidateScores reports the first score, in rubric order, that matches no criterion of its
// category, then the first unknown category by name.
func (e *Engine) ValidateScores(sel Selection) error {
	known := make(map[string]struct{}, e.rubric.Len())
	for _, category := range e.rubric.Categories() {
		known[category.Name] = struct{}{}
		score, ok := sel[category.Name]
		if !ok {
			continue
		}
		if _, ok := e.rubric.Criterion(category.Name, score); !ok {
			return &InvalidScoreError{Category: category.Name, Score: score, Known: true}
		}
	}

	var unknown []string
	for name := range sel {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &InvalidScoreError{Category: unknown[0], Score: sel[unknown[0]]}
	}
	return nil
}

// IsComplete reports whether every rubric category has a score. Extra keys are ignored.
func (e *Engine) IsComplete(sel Selection) bool {
	return len(e.missing(sel)) == 0
}

// RequireComplete returns an *IncompleteRubricError when categories remain unscored.
func (e *Engine) RequireComplete(sel Selection) error {
	missing := e.missing(sel)
	if len(missing) == 0 {
		return nil
	}

	total := e.rubric.Len()
	return &IncompleteRubricError{
		Total:   total,
		Scored:  total - len(missing),
		Missing: missing,
	}
}

// Evaluate computes the running grade together with completeness details.
func (e *Engine) Evaluate(sel Selection) Evaluation {
	missing := e.missing(sel)
	total := e.rubric.Len()

	return Evaluation{
		Result:   e.ComputeGrade(sel),
		Complete: len(missing) == 0,
		Scored:   total - len(missing),
		Total:    total,
		Missing:  missing,
	}
}

func (e *Engine) missing(sel Selection) []string {
	missing := make([]string, 0)
	for _, category := range e.rubric.categories {
		if _, ok := sel[category.Name]; !ok {
			missing = append(missing, category.Name)
		}
	}
	return missing
}

// CompileFeedback renders one line per scored category, in rubric order.
func (e *Engine) CompileFeedback(sel Selection) string {
	var b strings.Builder
	b.WriteString(FeedbackHeader)
	b.WriteByte('\n')

	for _, category := range e.rubric.categories {
		score, ok := sel[category.Name]
		if !ok {
			continue
		}
		criterion, found := e.rubric.Criterion(category.Name, score)
		if !found {
			continue
		}
		b.WriteString("- ")
		b.WriteString(category.Name)
		b.WriteString(" (")
		b.WriteString(criterion.Label)
		b.WriteString("): ")
		b.WriteString(criterion.Description)
		b.WriteByte('\n')
	}

	return b.String()
}

// AppendFeedback adds compiled rubric feedback after existing free-form text.
func AppendFeedback(existing, compiled string) string {
	if existing == "" {
		return compiled
	}
	return existing + "\n\n" + compiled
}
