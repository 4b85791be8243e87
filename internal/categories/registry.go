// Package categories maintains the per-user category lists and the budget
// mapping as one cohesive unit: adding an expense category seeds a zero
// budget entry and deleting one prunes its budget entry in the same
// operation. Budgets belong to the expense namespace; income categories
// never touch them, even when a value exists in both namespaces.
package categories

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"finanzas/internal/core"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyName = errors.New("category name cannot be empty")
	ErrDuplicate = errors.New("category already exists")
)

// Store is the persistence boundary the registry drives. Implementations
// must make DeleteWithBudget atomic: expense category row and budget row go
// together or not at all. Income categories carry no budget rows, so their
// inserts and deletes must leave the budget mapping alone.
type Store interface {
	ListCategories(ctx context.Context, userID string, kind core.Kind) ([]core.Category, error)
	InsertCategory(ctx context.Context, userID string, kind core.Kind, c core.Category, budget decimal.Decimal) error
	DeleteWithBudget(ctx context.Context, userID string, kind core.Kind, value string) error
	SetBudget(ctx context.Context, userID, category string, amount decimal.Decimal) error
	GetBudgets(ctx context.Context, userID string) (core.BudgetMap, error)
}

// Registry exposes the category/budget operations for one transaction kind.
type Registry struct {
	store Store
	kind  core.Kind
}

func NewRegistry(store Store, kind core.Kind) *Registry {
	return &Registry{store: store, kind: kind}
}

// DeriveKey turns a display name into a category value: trimmed,
// lower-cased, spaces replaced with underscores.
func DeriveKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// RandomColor picks a display color with fixed saturation and lightness so
// generated categories stay legible against the dashboard palette.
func RandomColor() string {
	return fmt.Sprintf("hsl(%d, 70%%, 50%%)", rand.Intn(360))
}

// List returns the categories of this registry's namespace.
func (r *Registry) List(ctx context.Context, userID string) ([]core.Category, error) {
	cats, err := r.store.ListCategories(ctx, userID, r.kind)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Add creates a category from a display name and icon. The derived key must
// not collide within the namespace; the icon falls back to DefaultIcon when
// unknown. Expense categories get a zero budget entry alongside.
func (r *Registry) Add(ctx context.Context, userID, name, icon string) (core.Category, error) {
	label := strings.TrimSpace(name)
	if label == "" {
		return core.Category{}, ErrEmptyName
	}
	value := DeriveKey(name)

	existing, err := r.store.ListCategories(ctx, userID, r.kind)
	if err != nil {
		return core.Category{}, fmt.Errorf("check existing categories: %w", err)
	}
	for _, c := range existing {
		if c.Value == value {
			return core.Category{}, ErrDuplicate
		}
	}

	cat := core.Category{
		Value: value,
		Label: label,
		Color: RandomColor(),
		Icon:  IconOrFallback(icon),
	}
	if err := r.store.InsertCategory(ctx, userID, r.kind, cat, decimal.Zero); err != nil {
		return core.Category{}, fmt.Errorf("insert category %q: %w", value, err)
	}
	return cat, nil
}

// Delete removes a category; for expenses its budget entry goes with it, so
// aggregations over the deleted key come back absent rather than zero.
func (r *Registry) Delete(ctx context.Context, userID, value string) error {
	if err := r.store.DeleteWithBudget(ctx, userID, r.kind, value); err != nil {
		return fmt.Errorf("delete category %q: %w", value, err)
	}
	return nil
}

// SetBudget replaces the budget entry for a category value. Amount sign is
// not checked at this layer.
func (r *Registry) SetBudget(ctx context.Context, userID, value string, amount decimal.Decimal) error {
	if err := r.store.SetBudget(ctx, userID, value, amount); err != nil {
		return fmt.Errorf("set budget for %q: %w", value, err)
	}
	return nil
}

// Budgets returns the user's budget map.
func (r *Registry) Budgets(ctx context.Context, userID string) (core.BudgetMap, error) {
	budgets, err := r.store.GetBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get budgets: %w", err)
	}
	return budgets, nil
}

// IncomeSeed returns the default income categories.
func IncomeSeed() []core.Category {
	return []core.Category{
		{Value: "salario", Label: "Salario", Color: "hsl(142.1, 76.2%, 36.3%)", Icon: "Briefcase"},
		{Value: "inversiones", Label: "Inversiones", Color: "hsl(221.2, 83.2%, 53.3%)", Icon: "TrendingUp"},
		{Value: "regalos", Label: "Regalos", Color: "hsl(346.8, 77.2%, 49.8%)", Icon: "Gift"},
		{Value: "otros", Label: "Otros", Color: "hsl(47.9, 95.8%, 53.1%)", Icon: "PlusCircle"},
	}
}

// ExpenseSeed returns the default expense categories.
func ExpenseSeed() []core.Category {
	return []core.Category{
		{Value: "comida", Label: "Comida", Color: "hsl(22, 95%, 61%)", Icon: "Utensils"},
		{Value: "transporte", Label: "Transporte", Color: "hsl(262, 80%, 68%)", Icon: "Car"},
		{Value: "vivienda", Label: "Vivienda", Color: "hsl(180, 70%, 45%)", Icon: "Home"},
		{Value: "ocio", Label: "Ocio", Color: "hsl(320, 75%, 60%)", Icon: "Gamepad2"},
		{Value: "salud", Label: "Salud", Color: "hsl(0, 85%, 65%)", Icon: "HeartPulse"},
		{Value: "otros", Label: "Otros", Color: "hsl(60, 80%, 55%)", Icon: "Receipt"},
	}
}
