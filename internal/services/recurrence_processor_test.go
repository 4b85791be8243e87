package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"finanzas/internal/core"

	"github.com/shopspring/decimal"
)

func TestProcessDueFiresMatchingTemplates(t *testing.T) {
	repo := newTestStore(t)
	notifier := &recordingNotifier{}
	proc := NewRecurrenceProcessor(repo, notifier)
	ctx := context.Background()
	userID := newStoredUser(t, repo)

	templates := []core.RecurringTemplate{
		{ID: core.NewID(), Kind: core.Income, Amount: decimal.RequireFromString("1000"), Category: "salario", RecurrenceDay: 15, Notes: "Nomina"},
		{ID: core.NewID(), Kind: core.Expense, Amount: decimal.RequireFromString("12.99"), Category: "ocio", RecurrenceDay: 15, Notes: "Streaming"},
		{ID: core.NewID(), Kind: core.Expense, Amount: decimal.RequireFromString("800"), Category: "vivienda", RecurrenceDay: 1, Notes: "Alquiler"},
	}
	for _, tmpl := range templates {
		if err := repo.CreateTemplate(ctx, userID, tmpl); err != nil {
			t.Fatalf("CreateTemplate failed: %v", err)
		}
	}

	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	fired, err := proc.ProcessDue(ctx, userID, now)
	if err != nil {
		t.Fatalf("ProcessDue failed: %v", err)
	}
	if fired != 2 {
		t.Fatalf("expected 2 firings, got %d", fired)
	}

	incomes, err := repo.ListTransactions(ctx, userID, core.Income)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(incomes) != 1 {
		t.Fatalf("expected 1 materialized income, got %d", len(incomes))
	}
	if incomes[0].Title != "Nomina" {
		t.Errorf("expected title from notes, got %q", incomes[0].Title)
	}
	if !strings.Contains(incomes[0].Notes, RecurrenceMarker) {
		t.Errorf("expected recurrence marker in notes, got %q", incomes[0].Notes)
	}

	if len(notifier.fired) != 2 {
		t.Errorf("expected a recurrence event per kind, got %v", notifier.fired)
	}
}

func TestProcessDueIsIdempotent(t *testing.T) {
	repo := newTestStore(t)
	proc := NewRecurrenceProcessor(repo, nil)
	ctx := context.Background()
	userID := newStoredUser(t, repo)

	tmpl := core.RecurringTemplate{
		ID: core.NewID(), Kind: core.Expense,
		Amount: decimal.RequireFromString("12.99"), Category: "ocio",
		RecurrenceDay: 15, Notes: "Streaming",
	}
	if err := repo.CreateTemplate(ctx, userID, tmpl); err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}

	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	for run := 0; run < 3; run++ {
		if _, err := proc.ProcessDue(ctx, userID, now); err != nil {
			t.Fatalf("run %d failed: %v", run, err)
		}
	}

	expenses, err := repo.ListTransactions(ctx, userID, core.Expense)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(expenses) != 1 {
		t.Errorf("expected a single transaction after repeated runs, got %d", len(expenses))
	}

	// Next month is a fresh cycle.
	fired, err := proc.ProcessDue(ctx, userID, time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("next cycle run failed: %v", err)
	}
	if fired != 1 {
		t.Errorf("expected 1 firing next cycle, got %d", fired)
	}
}

func TestProcessAllSweepsEveryUser(t *testing.T) {
	repo := newTestStore(t)
	proc := NewRecurrenceProcessor(repo, nil)
	ctx := context.Background()

	users := []string{newStoredUser(t, repo), newStoredUser(t, repo)}
	for _, userID := range users {
		tmpl := core.RecurringTemplate{
			ID: core.NewID(), Kind: core.Expense,
			Amount: decimal.RequireFromString("50"), Category: "otros",
			RecurrenceDay: 10,
		}
		if err := repo.CreateTemplate(ctx, userID, tmpl); err != nil {
			t.Fatalf("CreateTemplate failed: %v", err)
		}
	}

	fired, err := proc.ProcessAll(ctx, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}
	if fired != 2 {
		t.Errorf("expected 2 firings across users, got %d", fired)
	}

	for _, userID := range users {
		got, err := repo.ListTransactions(ctx, userID, core.Expense)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 transaction for %s, got %d", userID, len(got))
		}
	}
}
