package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		ID:       NewID(),
		Kind:     Expense,
		Title:    "Supermercado",
		Amount:   decimal.NewFromInt(42),
		Category: "comida",
		Date:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(*Transaction) {}, nil},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-5) }, ErrInvalidAmount},
		{"empty title", func(tx *Transaction) { tx.Title = "   " }, ErrEmptyTitle},
		{"overlong title", func(tx *Transaction) { tx.Title = strings.Repeat("a", 201) }, ErrTitleTooLong},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
		{"unknown kind", func(tx *Transaction) { tx.Kind = "transfer" }, ErrInvalidKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecurringTemplateValidate(t *testing.T) {
	valid := RecurringTemplate{
		ID:            NewID(),
		Kind:          Income,
		Amount:        decimal.NewFromInt(1500),
		Category:      "salario",
		RecurrenceDay: 28,
	}

	tests := []struct {
		name    string
		mutate  func(*RecurringTemplate)
		wantErr error
	}{
		{"valid", func(*RecurringTemplate) {}, nil},
		{"day zero", func(rt *RecurringTemplate) { rt.RecurrenceDay = 0 }, ErrInvalidRecurrenceDay},
		{"day 32", func(rt *RecurringTemplate) { rt.RecurrenceDay = 32 }, ErrInvalidRecurrenceDay},
		{"day 31 is allowed", func(rt *RecurringTemplate) { rt.RecurrenceDay = 31 }, nil},
		{"zero amount", func(rt *RecurringTemplate) { rt.Amount = decimal.Zero }, ErrInvalidAmount},
		{"empty category", func(rt *RecurringTemplate) { rt.Category = " " }, ErrEmptyCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := valid
			tt.mutate(&rt)
			err := rt.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewIDIsOpaqueAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("NewID() returned empty string")
		}
		if seen[id] {
			t.Fatalf("NewID() repeated id %s", id)
		}
		seen[id] = true
	}
}

func TestBudgetMapClone(t *testing.T) {
	orig := BudgetMap{"comida": decimal.NewFromInt(300)}
	clone := orig.Clone()
	clone["comida"] = decimal.NewFromInt(999)
	clone["ocio"] = decimal.NewFromInt(50)

	if !orig["comida"].Equal(decimal.NewFromInt(300)) {
		t.Errorf("Clone() mutated original: %v", orig["comida"])
	}
	if _, ok := orig["ocio"]; ok {
		t.Error("Clone() shares storage with original")
	}
}
