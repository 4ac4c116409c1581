package grading

import (
	"errors"
	"fmt"
	"strings"
)

// Criterion is one selectable level inside a rubric category.
type Criterion struct {
	Score       int    `json:"score"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Category groups the criteria a grader chooses from for one aspect of a submission.
type Category struct {
	Name     string      `json:"category"`
	Criteria []Criterion `json:"criteria"`
}

// Definition is the ordered, immutable rubric used to grade every submission.
type Definition struct {
	categories []Category
}

// NewDefinition copies the supplied categories and validates the rubric invariants.
func NewDefinition(categories []Category) (Definition, error) {
	copied := make([]Category, 0, len(categories))
	for _, category := range categories {
		criteria := make([]Criterion, len(category.Criteria))
		copy(criteria, category.Criteria)
		copied = append(copied, Category{Name: strings.TrimSpace(category.Name), Criteria: criteria})
	}

	def := Definition{categories: copied}
	if err := def.validate(); err != nil {
		return Definition{}, err
	}

	return def, nil
}

// MustDefinition is NewDefinition for package-level rubric literals.
func MustDefinition(categories []Category) Definition {
	def, err := NewDefinition(categories)
	if err != nil {
		panic(err)
	}
	return def
}

func (d Definition) validate() error {
	if len(d.categories) == 0 {
		return errors.New("rubric must define at least one category")
	}

	seen := make(map[string]struct{}, len(d.categories))
	levels := len(d.categories[0].Criteria)
	max := maxScore(d.categories[0].Criteria)

	for _, category := range d.categories {
		if category.Name == "" {
			return errors.New("rubric category name must not be empty")
		}
		if _, dup := seen[category.Name]; dup {
			return fmt.Errorf("duplicate rubric category %q", category.Name)
		}
		seen[category.Name] = struct{}{}

		if len(category.Criteria) == 0 {
			return fmt.Errorf("rubric category %q has no criteria", category.Name)
		}
		if len(category.Criteria) != levels {
			return fmt.Errorf("rubric category %q has %d criteria, expected %d", category.Name, len(category.Criteria), levels)
		}
		if got := maxScore(category.Criteria); got != max {
			return fmt.Errorf("rubric category %q has max score %d, expected %d", category.Name, got, max)
		}
	}

	if max <= 0 {
		return errors.New("rubric max score must be positive")
	}

	return nil
}

// Categories returns a copy of the rubric categories in declaration order.
func (d Definition) Categories() []Category {
	out := make([]Category, 0, len(d.categories))
	for _, category := range d.categories {
		criteria := make([]Criterion, len(category.Criteria))
		copy(criteria, category.Criteria)
		out = append(out, Category{Name: category.Name, Criteria: criteria})
	}
	return out
}

// Len reports the number of categories.
func (d Definition) Len() int {
	return len(d.categories)
}

// MaxPerCategory is the highest score of the first category. Validation guarantees every category shares it.
func (d Definition) MaxPerCategory() int {
	if len(d.categories) == 0 {
		return 0
	}
	return maxScore(d.categories[0].Criteria)
}

// Criterion looks up the criterion of a category matching the given score.
func (d Definition) Criterion(category string, score int) (Criterion, bool) {
	for _, c := range d.categories {
		if c.Name != category {
			continue
		}
		for _, criterion := range c.Criteria {
			if criterion.Score == score {
				return criterion, true
			}
		}
		return Criterion{}, false
	}
	return Criterion{}, false
}

func maxScore(criteria []Criterion) int {
	max := 0
	for i, criterion := range criteria {
		if i == 0 || criterion.Score > max {
			max = criterion.Score
		}
	}
	return max
}
