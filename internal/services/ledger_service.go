package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// LedgerService handles manual transactions and recurring templates for the
// HTTP layer. Notifications are best effort: a broken broker never fails a
// write.
type LedgerService struct {
	store    *storage.Repository
	notifier Notifier
}

func NewLedgerService(store *storage.Repository, notifier Notifier) *LedgerService {
	return &LedgerService{store: store, notifier: notifier}
}

// AddTransaction validates and stores a transaction. Missing id and date are
// filled with a fresh id and the current time.
func (s *LedgerService) AddTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = core.NewID()
	}
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.CreateTransaction(ctx, userID, t); err != nil {
		return core.Transaction{}, fmt.Errorf("store transaction: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.TransactionCreated(ctx, userID, t); err != nil {
			slog.WarnContext(ctx, "Failed to publish transaction event",
				"transaction_id", t.ID,
				"error", err)
		}
	}
	return t, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, userID string, kind core.Kind) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, kind)
}

// DeleteTransaction removes one transaction. Storage sentinels pass through
// unwrapped so the HTTP layer can map them to status codes.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID string, kind core.Kind, id string) error {
	if err := s.store.DeleteTransaction(ctx, userID, kind, id); err != nil {
		return err
	}

	if s.notifier != nil {
		if err := s.notifier.TransactionDeleted(ctx, userID, kind, id); err != nil {
			slog.WarnContext(ctx, "Failed to publish deletion event",
				"transaction_id", id,
				"error", err)
		}
	}
	return nil
}

// AddTemplate validates and stores a recurring template.
func (s *LedgerService) AddTemplate(ctx context.Context, userID string, t core.RecurringTemplate) (core.RecurringTemplate, error) {
	if t.ID == "" {
		t.ID = core.NewID()
	}
	if err := t.Validate(); err != nil {
		return core.RecurringTemplate{}, err
	}

	if err := s.store.CreateTemplate(ctx, userID, t); err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("store template: %w", err)
	}
	return t, nil
}

func (s *LedgerService) ListTemplates(ctx context.Context, userID string, kind core.Kind) ([]core.RecurringTemplate, error) {
	return s.store.ListTemplates(ctx, userID, kind)
}

func (s *LedgerService) DeleteTemplate(ctx context.Context, userID string, kind core.Kind, id string) error {
	return s.store.DeleteTemplate(ctx, userID, kind, id)
}

// SummaryView is the dashboard payload: totals, per-category budget status
// and the pie breakdown of spending.
type SummaryView struct {
	core.Summary
	Budgets []core.CategoryBudget `json:"budgets"`
	Pie     []core.PieSlice       `json:"pie"`
}

// Summary aggregates the user's complete financial picture. All arithmetic
// happens in core over the freshly loaded data.
func (s *LedgerService) Summary(ctx context.Context, userID string) (SummaryView, error) {
	incomes, err := s.store.ListTransactions(ctx, userID, core.Income)
	if err != nil {
		return SummaryView{}, fmt.Errorf("load incomes: %w", err)
	}
	expenses, err := s.store.ListTransactions(ctx, userID, core.Expense)
	if err != nil {
		return SummaryView{}, fmt.Errorf("load expenses: %w", err)
	}
	budgets, err := s.store.GetBudgets(ctx, userID)
	if err != nil {
		return SummaryView{}, fmt.Errorf("load budgets: %w", err)
	}
	categories, err := s.store.ListCategories(ctx, userID, core.Expense)
	if err != nil {
		return SummaryView{}, fmt.Errorf("load categories: %w", err)
	}

	return SummaryView{
		Summary: core.Summarize(incomes, expenses),
		Budgets: core.BudgetReport(expenses, budgets, categories),
		Pie:     core.PieBreakdown(expenses, categories),
	}, nil
}
