package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind selects one of the two independent transaction namespaces.
	// Category values are unique within a kind, not across kinds.
	Kind string

	Transaction struct {
		ID       string          `json:"id"`
		Kind     Kind            `json:"-"`
		Title    string          `json:"title"`
		Amount   decimal.Decimal `json:"amount"`
		Category string          `json:"category"`
		Date     time.Time       `json:"date"`
		Notes    string          `json:"notes,omitempty"`
	}

	// RecurringTemplate is a rule, not a schedule: it carries no start or
	// end date and no per-cycle history. Firing state lives in storage.
	RecurringTemplate struct {
		ID            string          `json:"id"`
		Kind          Kind            `json:"-"`
		Amount        decimal.Decimal `json:"amount"`
		Category      string          `json:"category"`
		RecurrenceDay int             `json:"recurrenceDay"`
		Notes         string          `json:"notes,omitempty"`
	}

	Category struct {
		Value string `json:"value"`
		Label string `json:"label"`
		Color string `json:"color"`
		Icon  string `json:"icon"`
	}

	// BudgetMap maps a category value to its allotted amount.
	BudgetMap map[string]decimal.Decimal
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidKind          = errors.New("invalid transaction kind")
	ErrEmptyCategory        = errors.New("empty category")
	ErrEmptyTitle           = errors.New("empty title")
	ErrTitleTooLong         = errors.New("title too long (max 200 characters)")
	ErrInvalidRecurrenceDay = errors.New("invalid recurrence day")
)

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return ErrTitleTooLong
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (rt RecurringTemplate) Validate() error {
	if err := rt.Kind.Validate(); err != nil {
		return err
	}
	if !rt.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(rt.Category) == "" {
		return ErrEmptyCategory
	}
	// Days above a month's length simply never fire that month; no rollover.
	if rt.RecurrenceDay < 1 || rt.RecurrenceDay > 31 {
		return ErrInvalidRecurrenceDay
	}
	return nil
}

// NewID returns an opaque identifier for transactions and templates.
func NewID() string {
	return uuid.NewString()
}

// Clone returns a copy of the budget map. Callers mutate copies, never a
// shared map.
func (b BudgetMap) Clone() BudgetMap {
	out := make(BudgetMap, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
