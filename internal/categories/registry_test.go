package categories

import (
	"context"
	"errors"
	"strings"
	"testing"

	"finanzas/internal/core"

	"github.com/shopspring/decimal"
)

// fakeStore keeps categories and budgets in memory with the same
// category+budget coupling the SQLite store guarantees.
type fakeStore struct {
	cats    map[core.Kind][]core.Category
	budgets core.BudgetMap
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cats:    make(map[core.Kind][]core.Category),
		budgets: make(core.BudgetMap),
	}
}

func (s *fakeStore) ListCategories(_ context.Context, _ string, kind core.Kind) ([]core.Category, error) {
	return s.cats[kind], nil
}

func (s *fakeStore) InsertCategory(_ context.Context, _ string, kind core.Kind, c core.Category, budget decimal.Decimal) error {
	s.cats[kind] = append(s.cats[kind], c)
	if kind == core.Expense {
		s.budgets[c.Value] = budget
	}
	return nil
}

func (s *fakeStore) DeleteWithBudget(_ context.Context, _ string, kind core.Kind, value string) error {
	kept := s.cats[kind][:0]
	for _, c := range s.cats[kind] {
		if c.Value != value {
			kept = append(kept, c)
		}
	}
	s.cats[kind] = kept
	if kind == core.Expense {
		delete(s.budgets, value)
	}
	return nil
}

func (s *fakeStore) SetBudget(_ context.Context, _, category string, amount decimal.Decimal) error {
	s.budgets[category] = amount
	return nil
}

func (s *fakeStore) GetBudgets(_ context.Context, _ string) (core.BudgetMap, error) {
	return s.budgets.Clone(), nil
}

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{" Viajes ", "viajes"},
		{"Cuidado Personal", "cuidado_personal"},
		{"OCIO", "ocio"},
		{"ya_derivado", "ya_derivado"},
	}

	for _, tt := range tests {
		if got := DeriveKey(tt.name); got != tt.want {
			t.Errorf("DeriveKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRegistryAdd(t *testing.T) {
	store := newFakeStore()
	reg := NewRegistry(store, core.Expense)
	ctx := context.Background()

	cat, err := reg.Add(ctx, "u1", " Viajes ", "Plane")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if cat.Value != "viajes" {
		t.Errorf("value = %q, want viajes", cat.Value)
	}
	if cat.Label != "Viajes" {
		t.Errorf("label = %q, want Viajes", cat.Label)
	}
	if cat.Icon != "Plane" {
		t.Errorf("icon = %q, want Plane", cat.Icon)
	}
	if !strings.HasPrefix(cat.Color, "hsl(") {
		t.Errorf("color = %q, want hsl(...) form", cat.Color)
	}

	// Adding inserts a zero budget entry.
	budgets, _ := reg.Budgets(ctx, "u1")
	if b, ok := budgets["viajes"]; !ok || !b.IsZero() {
		t.Errorf("budgets[viajes] = %v (present=%v), want zero entry", b, ok)
	}
}

func TestRegistryAddRejectsEmptyAndDuplicate(t *testing.T) {
	store := newFakeStore()
	reg := NewRegistry(store, core.Expense)
	ctx := context.Background()

	if _, err := reg.Add(ctx, "u1", "   ", "Circle"); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Add(blank) error = %v, want ErrEmptyName", err)
	}

	if _, err := reg.Add(ctx, "u1", "Viajes", "Plane"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	// Same derived key, different surface form.
	if _, err := reg.Add(ctx, "u1", " viajes ", "Plane"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Add(duplicate) error = %v, want ErrDuplicate", err)
	}
}

func TestRegistryNamespacesAreIndependent(t *testing.T) {
	store := newFakeStore()
	expenses := NewRegistry(store, core.Expense)
	incomes := NewRegistry(store, core.Income)
	ctx := context.Background()

	if _, err := expenses.Add(ctx, "u1", "Otros", "Receipt"); err != nil {
		t.Fatalf("expense Add() error = %v", err)
	}
	if err := expenses.SetBudget(ctx, "u1", "otros", decimal.NewFromInt(100)); err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}

	// Identical key in the income namespace must not collide.
	if _, err := incomes.Add(ctx, "u1", "Otros", "PlusCircle"); err != nil {
		t.Errorf("income Add() error = %v, want nil (independent namespace)", err)
	}

	// The income add must not clobber the expense budget.
	budgets, _ := expenses.Budgets(ctx, "u1")
	if got := budgets["otros"]; !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("budgets[otros] after income add = %v, want 100", got)
	}

	// Nor may deleting the income category prune the expense entry.
	if err := incomes.Delete(ctx, "u1", "otros"); err != nil {
		t.Fatalf("income Delete() error = %v", err)
	}
	budgets, _ = expenses.Budgets(ctx, "u1")
	if got, ok := budgets["otros"]; !ok || !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("budgets[otros] after income delete = %v (present=%v), want 100", got, ok)
	}
}

func TestRegistryDeletePrunesBudget(t *testing.T) {
	store := newFakeStore()
	reg := NewRegistry(store, core.Expense)
	ctx := context.Background()

	if _, err := reg.Add(ctx, "u1", "Ocio", "Gamepad2"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := reg.SetBudget(ctx, "u1", "ocio", decimal.NewFromInt(120)); err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}

	if err := reg.Delete(ctx, "u1", "ocio"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	budgets, _ := reg.Budgets(ctx, "u1")
	if _, ok := budgets["ocio"]; ok {
		t.Error("budget entry survives category deletion")
	}
	cats, _ := reg.List(ctx, "u1")
	if len(cats) != 0 {
		t.Errorf("categories = %v, want empty", cats)
	}
}

func TestRegistrySetBudgetDoesNotValidateSign(t *testing.T) {
	store := newFakeStore()
	reg := NewRegistry(store, core.Expense)
	ctx := context.Background()

	// Negative amounts pass through unchecked at this layer.
	if err := reg.SetBudget(ctx, "u1", "comida", decimal.NewFromInt(-10)); err != nil {
		t.Errorf("SetBudget(-10) error = %v, want nil", err)
	}
}

func TestIconOrFallback(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Plane", "Plane"},
		{"PiggyBank", "PiggyBank"},
		{"NoSuchIcon", DefaultIcon},
		{"", DefaultIcon},
	}

	for _, tt := range tests {
		if got := IconOrFallback(tt.in); got != tt.want {
			t.Errorf("IconOrFallback(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSeedsAreWellFormed(t *testing.T) {
	for _, c := range append(IncomeSeed(), ExpenseSeed()...) {
		if c.Value != DeriveKey(c.Label) {
			t.Errorf("seed %q has value %q, want %q", c.Label, c.Value, DeriveKey(c.Label))
		}
		if !KnownIcon(c.Icon) {
			t.Errorf("seed %q uses unknown icon %q", c.Label, c.Icon)
		}
	}
}
