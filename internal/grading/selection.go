package grading

import "math"

// Selection maps a rubric category name to the score chosen by a grader.
type Selection map[string]int

// Record sets or overwrites the score for a category. Unknown categories are kept as-is.
func (s Selection) Record(category string, score int) Selection {
	if s == nil {
		s = Selection{}
	}
	s[category] = score
	return s
}

// Clone returns an independent copy of the selection.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Total sums every selected score, including scores for unknown categories.
// The sum saturates at the int bounds instead of wrapping.
func (s Selection) Total() int {
	total := 0
	for _, score := range s {
		switch {
		case score > 0 && total > math.MaxInt-score:
			total = math.MaxInt
		case score < 0 && total < math.MinInt-score:
			total = math.MinInt
		default:
			total += score
		}
	}
	return total
}
