// Package core holds the domain types and the ledger aggregation logic.
//
// Summarize and its helpers are pure functions: derived figures are never
// stored, only recomputed from the current transaction lists and budget map.
package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Summary is the derived view over one user's ledger.
type Summary struct {
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	Balance      decimal.Decimal `json:"balance"`
	// OverallBudgetUsage treats total income as the global budget. Zero when
	// there is no income, regardless of expense volume.
	OverallBudgetUsage decimal.Decimal            `json:"overallBudgetUsage"`
	SpendByCategory    map[string]decimal.Decimal `json:"spendByCategory"`
}

// CategoryBudget is the per-category budget status.
type CategoryBudget struct {
	Category  string          `json:"category"`
	Spent     decimal.Decimal `json:"spent"`
	Budget    decimal.Decimal `json:"budget"`
	Usage     decimal.Decimal `json:"usage"`
	Remaining decimal.Decimal `json:"remaining"`
}

// PieSlice is one wedge of the category breakdown chart.
type PieSlice struct {
	Label   string          `json:"label"`
	Color   string          `json:"color"`
	Total   decimal.Decimal `json:"total"`
	Percent decimal.Decimal `json:"percent"`
}

// SumAmounts adds up the amounts of a transaction list.
func SumAmounts(txns []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Amount)
	}
	return total
}

// Summarize recomputes the full summary from scratch. Deterministic for
// identical inputs; safe to call on every mutation at single-user volumes.
func Summarize(incomes, expenses []Transaction) Summary {
	s := Summary{
		TotalIncome:        SumAmounts(incomes),
		TotalExpense:       SumAmounts(expenses),
		OverallBudgetUsage: decimal.Zero,
		SpendByCategory:    make(map[string]decimal.Decimal),
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	if s.TotalIncome.IsPositive() {
		s.OverallBudgetUsage = s.TotalExpense.Div(s.TotalIncome).Mul(hundred)
	}
	for _, e := range expenses {
		s.SpendByCategory[e.Category] = s.SpendByCategory[e.Category].Add(e.Amount)
	}
	return s
}

// BudgetStatus derives usage and remainder for one category. A zero budget
// yields zero usage; Remaining goes negative on overspend.
func BudgetStatus(category string, spent, budget decimal.Decimal) CategoryBudget {
	cb := CategoryBudget{
		Category:  category,
		Spent:     spent,
		Budget:    budget,
		Usage:     decimal.Zero,
		Remaining: budget.Sub(spent),
	}
	if budget.IsPositive() {
		cb.Usage = spent.Div(budget).Mul(hundred)
	}
	return cb
}

// BudgetReport computes the status of every category with a budget entry.
// Categories without an entry are absent, not zero: deleting a category must
// also have pruned its budget key.
func BudgetReport(expenses []Transaction, budgets BudgetMap, categories []Category) []CategoryBudget {
	spend := Summarize(nil, expenses).SpendByCategory
	report := make([]CategoryBudget, 0, len(categories))
	for _, c := range categories {
		budget, ok := budgets[c.Value]
		if !ok {
			continue
		}
		report = append(report, BudgetStatus(c.Value, spend[c.Value], budget))
	}
	return report
}

// PieBreakdown returns one slice per category that has at least one
// transaction, with its share of the total. Zero-total categories are
// filtered out rather than rendered as empty wedges.
func PieBreakdown(txns []Transaction, categories []Category) []PieSlice {
	total := SumAmounts(txns)
	slices := make([]PieSlice, 0, len(categories))
	for _, c := range categories {
		sum := decimal.Zero
		for _, t := range txns {
			if t.Category == c.Value {
				sum = sum.Add(t.Amount)
			}
		}
		if !sum.IsPositive() {
			continue
		}
		slice := PieSlice{Label: c.Label, Color: c.Color, Total: sum, Percent: decimal.Zero}
		if total.IsPositive() {
			slice.Percent = sum.Div(total).Mul(hundred)
		}
		slices = append(slices, slice)
	}
	return slices
}
