package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/storage"

	"github.com/shopspring/decimal"
)

type recordingNotifier struct {
	mu      sync.Mutex
	created []string
	deleted []string
	fired   []int
	fail    bool
}

func (n *recordingNotifier) TransactionCreated(_ context.Context, _ string, t core.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("broker down")
	}
	n.created = append(n.created, t.ID)
	return nil
}

func (n *recordingNotifier) TransactionDeleted(_ context.Context, _ string, _ core.Kind, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("broker down")
	}
	n.deleted = append(n.deleted, id)
	return nil
}

func (n *recordingNotifier) RecurrenceFired(_ context.Context, _ string, _ core.Kind, count int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("broker down")
	}
	n.fired = append(n.fired, count)
	return nil
}

func newTestStore(t *testing.T) *storage.Repository {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "finanzas.db"))
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newStoredUser(t *testing.T, repo *storage.Repository) string {
	t.Helper()

	id := core.NewID()
	err := repo.CreateUser(context.Background(), storage.User{
		ID: id, Name: "Test", Email: id + "@example.com", PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return id
}

func TestAddTransactionFillsDefaults(t *testing.T) {
	repo := newTestStore(t)
	notifier := &recordingNotifier{}
	svc := NewLedgerService(repo, notifier)
	ctx := context.Background()
	userID := newStoredUser(t, repo)

	saved, err := svc.AddTransaction(ctx, userID, core.Transaction{
		Kind:     core.Expense,
		Title:    "Supermercado",
		Amount:   decimal.RequireFromString("45.50"),
		Category: "comida",
	})
	if err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}
	if saved.ID == "" {
		t.Error("expected generated id")
	}
	if saved.Date.IsZero() {
		t.Error("expected defaulted date")
	}
	if len(notifier.created) != 1 || notifier.created[0] != saved.ID {
		t.Errorf("expected creation event for %s, got %v", saved.ID, notifier.created)
	}
}

func TestAddTransactionRejectsInvalid(t *testing.T) {
	repo := newTestStore(t)
	svc := NewLedgerService(repo, nil)
	ctx := context.Background()
	userID := newStoredUser(t, repo)

	tests := []struct {
		name string
		txn  core.Transaction
		want error
	}{
		{
			name: "zero amount",
			txn:  core.Transaction{Kind: core.Expense, Title: "x", Amount: decimal.Zero, Category: "otros"},
			want: core.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			txn:  core.Transaction{Kind: core.Expense, Title: "x", Amount: decimal.RequireFromString("-5"), Category: "otros"},
			want: core.ErrInvalidAmount,
		},
		{
			name: "blank title",
			txn:  core.Transaction{Kind: core.Expense, Title: "   ", Amount: decimal.RequireFromString("5"), Category: "otros"},
			want: core.ErrEmptyTitle,
		},
		{
			name: "missing category",
			txn:  core.Transaction{Kind: core.Income, Title: "x", Amount: decimal.RequireFromString("5")},
			want: core.ErrEmptyCategory,
		},
		{
			name: "bad kind",
			txn:  core.Transaction{Kind: "transfer", Title: "x", Amount: decimal.RequireFromString("5"), Category: "otros"},
			want: core.ErrInvalidKind,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddTransaction(ctx, userID, tt.txn); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAddTransactionSurvivesNotifierFailure(t *testing.T) {
	repo := newTestStore(t)
	notifier := &recordingNotifier{fail: true}
	svc := NewLedgerService(repo, notifier)
	ctx := context.Background()
	userID := newStoredUser(t, repo)

	_, err := svc.AddTransaction(ctx, userID, core.Transaction{
		Kind:     core.Income,
		Title:    "Salario",
		Amount:   decimal.RequireFromString("1000"),
		Category: "salario",
	})
	if err != nil {
		t.Fatalf("expected write to succeed despite broker failure, got %v", err)
	}

	got, err := svc.ListTransactions(ctx, userID, core.Income)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected stored transaction, got %d", len(got))
	}
}

func TestDeleteTransactionPassesSentinels(t *testing.T) {
	repo := newTestStore(t)
	svc := NewLedgerService(repo, nil)
	ctx := context.Background()
	userID := newStoredUser(t, repo)

	err := svc.DeleteTransaction(ctx, userID, core.Expense, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSummaryComposesView(t *testing.T) {
	repo := newTestStore(t)
	svc := NewLedgerService(repo, nil)
	ctx := context.Background()
	userID := newStoredUser(t, repo)

	categories := []core.Category{
		{Value: "comida", Label: "Comida", Color: "hsl(22, 95%, 61%)", Icon: "Utensils"},
	}
	if err := repo.SeedCategories(ctx, userID, nil, categories); err != nil {
		t.Fatalf("SeedCategories failed: %v", err)
	}
	if err := repo.SetBudget(ctx, userID, "comida", decimal.RequireFromString("300")); err != nil {
		t.Fatalf("SetBudget failed: %v", err)
	}

	now := time.Now().UTC()
	seed := []core.Transaction{
		{ID: core.NewID(), Kind: core.Income, Title: "Salario", Amount: decimal.RequireFromString("1000"), Category: "salario", Date: now},
		{ID: core.NewID(), Kind: core.Expense, Title: "Supermercado", Amount: decimal.RequireFromString("200"), Category: "comida", Date: now},
		{ID: core.NewID(), Kind: core.Expense, Title: "Restaurante", Amount: decimal.RequireFromString("50"), Category: "comida", Date: now},
	}
	for _, txn := range seed {
		if err := repo.CreateTransaction(ctx, userID, txn); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
	}

	view, err := svc.Summary(ctx, userID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}

	if !view.TotalIncome.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("expected income 1000, got %s", view.TotalIncome)
	}
	if !view.Balance.Equal(decimal.RequireFromString("750")) {
		t.Errorf("expected balance 750, got %s", view.Balance)
	}
	if !view.OverallBudgetUsage.Round(2).Equal(decimal.RequireFromString("25")) {
		t.Errorf("expected overall usage 25, got %s", view.OverallBudgetUsage)
	}

	if len(view.Budgets) != 1 {
		t.Fatalf("expected 1 budget row, got %d", len(view.Budgets))
	}
	row := view.Budgets[0]
	if !row.Usage.Round(2).Equal(decimal.RequireFromString("83.33")) {
		t.Errorf("expected usage 83.33, got %s", row.Usage)
	}
	if !row.Remaining.Equal(decimal.RequireFromString("50")) {
		t.Errorf("expected remaining 50, got %s", row.Remaining)
	}

	if len(view.Pie) != 1 {
		t.Fatalf("expected 1 pie slice, got %d", len(view.Pie))
	}
	if !view.Pie[0].Percent.Round(2).Equal(decimal.RequireFromString("100")) {
		t.Errorf("expected single slice at 100%%, got %s", view.Pie[0].Percent)
	}
}
