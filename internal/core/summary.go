package core

// Sums aggregates a transaction list. Balance is income minus expense.
type Sums struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// Summarize computes income/expense totals over a list. Anything that is
// not income counts as expense, mirroring the two-way type split.
func Summarize(list []Transaction) Sums {
	var s Sums
	for _, t := range list {
		if t.Type == Income {
			s.Income += t.Amount
		} else {
			s.Expense += t.Amount
		}
	}
	s.Balance = s.Income - s.Expense
	return s
}

// TopExpenseCategory returns the category with the highest total expense
// in the list and that total. Ties keep the first-seen category because
// the comparison is strict. Returns ("", 0) when the list holds no
// expenses.
func TopExpenseCategory(list []Transaction) (string, float64) {
	totals := make(map[string]float64)
	var order []string
	for _, t := range list {
		if t.Type == Income {
			continue
		}
		if _, seen := totals[t.Category]; !seen {
			order = append(order, t.Category)
		}
		totals[t.Category] += t.Amount
	}

	var top string
	var topVal float64
	for _, c := range order {
		if totals[c] > topVal {
			topVal = totals[c]
			top = c
		}
	}
	return top, topVal
}
