package grading

// NotebookRubric returns the built-in rubric for data-analysis notebook submissions.
func NotebookRubric() Definition {
	return MustDefinition([]Category{
		{
			Name: "Application of Concepts learnt",
			Criteria: []Criterion{
				{Score: 1, Label: "0-50%", Description: "Failed to apply the concepts learnt"},
				{Score: 2, Label: "50-75%", Description: "Fairly applied the concepts learnt"},
				{Score: 3, Label: "75-100", Description: "Used the concepts to a satisfactory levels"},
			},
		},
		{
			Name: "Analysis",
			Criteria: []Criterion{
				{Score: 1, Label: "0-50%", Description: "Choice of analysis is overly simplistic or incomplete"},
				{Score: 2, Label: "50-75%", Description: "Analysis appropriate"},
				{Score: 3, Label: "75-100", Description: "Analysis appropriate, complete, advanced, and informative"},
			},
		},
		{
			Name: "Results",
			Criteria: []Criterion{
				{Score: 1, Label: "0-50%", Description: "Conclusions are missing, incorrect, or not based on analysis. Inappropriate choice of plots; poorly labeled plots; plots missing"},
				{Score: 2, Label: "50-75%", Description: "Conclusions relevant, but partially correct or partially complete. Plots convey information but lack context for interpretation"},
				{Score: 3, Label: "75-100", Description: "Relevant conclusions explicitly tied to analysis and to context. Plots convey information correctly with adequate and appropriate reference information"},
			},
		},
		{
			Name: "Readability",
			Criteria: []Criterion{
				{Score: 1, Label: "0-50%", Description: "Code is messy and poorly organized; unused or irrelevant code distracts when reading code. Variables and functions names do not help to understand code."},
				{Score: 2, Label: "50-75%", Description: "Code is reasonably well organized. There is little unused or irrelevant code, or this code has been moved out of the main project files. Variable and function names generally meaningful and helpful for understanding."},
				{Score: 3, Label: "75-100", Description: "Code very well organized. No irrelevant or distracting code. Variable and function names have clear relationship to their purpose in the code. Code is easy to read and understand."},
			},
		},
		{
			Name: "Presentation",
			Criteria: []Criterion{
				{Score: 1, Label: "0-50%", Description: "Verbal presentation is illogical, incorrect, or incoherent. Visual presentation is cluttered, disjoint, or illegible. Verbal and visual presentation unrelated"},
				{Score: 2, Label: "50-75%", Description: "Verbal presentation partially correct but incomplete or unconvincing. Visual presentation is readable and clear. Verbal and visual presentation related"},
				{Score: 3, Label: "75-100", Description: "Verbal presentation is correct, complete, and convincing. Visual presentation is appealing, informative, and crisp. Verbal and visual presentation clearly related"},
			},
		},
		{
			Name: "Writing",
			Criteria: []Criterion{
				{Score: 1, Label: "0-50%", Description: "Explanation is illogical, incorrect, or incoherent"},
				{Score: 2, Label: "50-75%", Description: "Explanation is correct, complete, and convincing"},
				{Score: 3, Label: "75-100", Description: "Explanation is correct, complete, convincing, and elegant"},
			},
		},
	})
}
