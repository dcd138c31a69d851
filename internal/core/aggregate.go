package core

import "sort"

// Aggregation engine: pure derivations over already-fetched records. The
// functions here never touch I/O; callers hand in the record sequences
// and the anchor dates, which keeps every aggregate deterministic.

// TotalForMonth sums the amounts of the records dated inside the window,
// bounds inclusive on both ends. Empty input yields zero, never an error.
func TotalForMonth(records []Record, w MonthWindow) Amount {
	var total Amount
	for _, r := range records {
		if w.Contains(r.Date) {
			total += r.Amount
		}
	}
	return total
}

// SplitByOwner groups the in-window records by member and sums per key.
// Unattributed records (empty member) are left out of the map; they still
// count towards TotalForMonth.
func SplitByOwner(records []Record, w MonthWindow) map[string]Amount {
	split := make(map[string]Amount)
	for _, r := range records {
		if r.Member == "" || !w.Contains(r.Date) {
			continue
		}
		split[r.Member] += r.Amount
	}
	return split
}

// MonthlyBalance is income minus expense for the window. Positive means
// the household saved over the period, negative that it lost.
func MonthlyBalance(income, expense []Record, w MonthWindow) Amount {
	return TotalForMonth(income, w) - TotalForMonth(expense, w)
}

// PerOwnerBalance is one member's income minus expense; a member missing
// from either map counts as zero on that side.
func PerOwnerBalance(incomeByOwner, expenseByOwner map[string]Amount, owner string) Amount {
	return incomeByOwner[owner] - expenseByOwner[owner]
}

// RollingWindowTotal sums records dated on or after start. The caller
// supplies the anchor (today, seven days ago, first of the month), so
// "so far" totals stay testable.
func RollingWindowTotal(records []Record, start Date) Amount {
	from := start.Truncated()
	var total Amount
	for _, r := range records {
		if !r.Date.Truncated().Before(from.Time) {
			total += r.Amount
		}
	}
	return total
}

// BudgetThresholds are the ratio cutoffs used to classify budget
// consumption. Warn marks the "approaching the limit" zone; Over marks
// actual overrun and is compared strictly.
type BudgetThresholds struct {
	Warn float64
	Over float64
}

// DefaultBudgetThresholds warns at 80% and flags overrun past 100%.
func DefaultBudgetThresholds() BudgetThresholds {
	return BudgetThresholds{Warn: 0.8, Over: 1.0}
}

// BudgetState is the derived consumption of a monthly budget. Ratio is
// the raw, unclamped spent/budget quotient (zero when budget <= 0).
type BudgetState struct {
	Spent     Amount
	Budget    Amount
	Remaining Amount
	Ratio     float64
}

// NewBudgetState derives the consumption state. Remaining goes negative
// on overrun; it is never clamped.
func NewBudgetState(spent, budget Amount) BudgetState {
	s := BudgetState{
		Spent:     spent,
		Budget:    budget,
		Remaining: budget - spent,
	}
	if budget > 0 {
		s.Ratio = float64(spent) / float64(budget)
	}
	return s
}

// DisplayRatio clamps the ratio to [0, 1] for progress bar widths. The
// raw Ratio stays available for classification.
func (b BudgetState) DisplayRatio() float64 {
	switch {
	case b.Ratio < 0:
		return 0
	case b.Ratio > 1:
		return 1
	default:
		return b.Ratio
	}
}

// Over reports actual overrun: strictly above the Over threshold, so
// spending exactly the budget is not over.
func (b BudgetState) Over(t BudgetThresholds) bool {
	return b.Ratio > t.Over
}

// Warning reports that consumption reached the warn zone.
func (b BudgetState) Warning(t BudgetThresholds) bool {
	return b.Ratio >= t.Warn
}

// MemberBalance is one member's share of a month: what they brought in,
// what they spent and the resulting balance.
type MemberBalance struct {
	Member  string
	Income  Amount
	Expense Amount
	Balance Amount
}

// MonthSummary is the full derived view of one month for a household.
type MonthSummary struct {
	Window       MonthWindow
	IncomeTotal  Amount
	ExpenseTotal Amount
	Balance      Amount
	ByMember     []MemberBalance
	Budget       BudgetState
}

// BuildMonthSummary derives the complete monthly view from the fetched
// income and expense records plus the configured budget.
func BuildMonthSummary(income, expense []Record, w MonthWindow, budget Amount) MonthSummary {
	incomeTotal := TotalForMonth(income, w)
	expenseTotal := TotalForMonth(expense, w)

	incomeByOwner := SplitByOwner(income, w)
	expenseByOwner := SplitByOwner(expense, w)

	members := make(map[string]struct{})
	for m := range incomeByOwner {
		members[m] = struct{}{}
	}
	for m := range expenseByOwner {
		members[m] = struct{}{}
	}

	summary := MonthSummary{
		Window:       w,
		IncomeTotal:  incomeTotal,
		ExpenseTotal: expenseTotal,
		Balance:      incomeTotal - expenseTotal,
		Budget:       NewBudgetState(expenseTotal, budget),
	}
	for m := range members {
		summary.ByMember = append(summary.ByMember, MemberBalance{
			Member:  m,
			Income:  incomeByOwner[m],
			Expense: expenseByOwner[m],
			Balance: PerOwnerBalance(incomeByOwner, expenseByOwner, m),
		})
	}
	// Stable key order so summaries render deterministically.
	sort.Slice(summary.ByMember, func(i, j int) bool {
		return summary.ByMember[i].Member < summary.ByMember[j].Member
	})
	return summary
}
