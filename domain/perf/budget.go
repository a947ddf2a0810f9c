package perf

// Budget maps metric names to their maximum acceptable values for one
// page class.
type Budget map[string]float64

// BudgetViolation records one metric exceeding its budget.
type BudgetViolation struct {
	Metric   string   `json:"metric"`
	Actual   float64  `json:"actual"`
	Budget   float64  `json:"budget"`
	Severity Severity `json:"severity"`
}

// BudgetReport is the outcome of evaluating one sample against a budget
// table: the violations found and a 0-100 score.
type BudgetReport struct {
	PageClass  PageClass         `json:"page_class"`
	Violations []BudgetViolation `json:"violations"`
	Score      float64           `json:"score"`
}

// Passed reports whether the sample stayed fully within budget.
func (r BudgetReport) Passed() bool {
	return len(r.Violations) == 0
}

// Worst returns the highest severity among the violations, or "" if none.
func (r BudgetReport) Worst() Severity {
	var worst Severity
	for _, v := range r.Violations {
		if v.Severity.Rank() > worst.Rank() {
			worst = v.Severity
		}
	}
	return worst
}
