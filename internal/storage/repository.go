// Package storage persists users, sessions, ledger entries, recurring
// templates, categories and budgets in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finanzas/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const (
	dateLayout = time.RFC3339
	dayLayout  = "2006-01-02"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrForbidden      = errors.New("record belongs to another user")
	ErrAlreadyFired   = errors.New("template already fired this cycle")
	ErrDuplicateEmail = errors.New("email already in use")
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
}

type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// TemplateState pairs a recurring template with its durable firing marker.
// A zero LastFired means the template never fired.
type TemplateState struct {
	Template  core.RecurringTemplate
	LastFired time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse stored amount %q: %w", s, err)
	}
	return d, nil
}

// --- users ---

func (r *Repository) CreateUser(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash) VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID, "email", u.Email)
	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// ListUserIDs returns every registered user id. The recurring worker cycles
// over this list.
func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- sessions ---

func (r *Repository) CreateSession(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		s.Token, s.UserID, s.ExpiresAt.UTC().Format(dateLayout))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession resolves a token to a live session. Expired sessions are
// removed on sight and reported as not found.
func (r *Repository) GetSession(ctx context.Context, token string) (Session, error) {
	var (
		s         Session
		expiresAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at FROM sessions WHERE token = ?`, token).
		Scan(&s.Token, &s.UserID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}

	s.ExpiresAt, err = time.Parse(dateLayout, expiresAt)
	if err != nil {
		return Session{}, fmt.Errorf("parse session expiry %q: %w", expiresAt, err)
	}
	if time.Now().After(s.ExpiresAt) {
		_ = r.DeleteSession(ctx, token)
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// --- transactions ---

func (r *Repository) CreateTransaction(ctx context.Context, userID string, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, kind, title, amount, category, date, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, userID, string(t.Kind), t.Title, t.Amount.String(), t.Category,
		t.Date.UTC().Format(dateLayout), t.Notes)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"kind", string(t.Kind),
		"category", t.Category,
		"amount", t.Amount.String())
	return nil
}

// ListTransactions returns one user's transactions of a kind, newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID string, kind core.Kind) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, amount, category, date, notes
		 FROM transactions WHERE user_id = ? AND kind = ? ORDER BY date DESC`,
		userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t           core.Transaction
			amount, day string
		)
		if err := rows.Scan(&t.ID, &t.Title, &amount, &t.Category, &day, &t.Notes); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = kind
		if t.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		if t.Date, err = time.Parse(dateLayout, day); err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", day, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTransaction removes one row. A row owned by a different user is
// reported as ErrForbidden, never silently deleted.
func (r *Repository) DeleteTransaction(ctx context.Context, userID string, kind core.Kind, id string) error {
	var owner string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM transactions WHERE id = ? AND kind = ?`, id, string(kind)).
		Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("look up transaction owner: %w", err)
	}
	if owner != userID {
		return ErrForbidden
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "kind", string(kind))
	return nil
}

// --- recurring templates ---

func (r *Repository) CreateTemplate(ctx context.Context, userID string, t core.RecurringTemplate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_templates (id, user_id, kind, amount, category, recurrence_day, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, userID, string(t.Kind), t.Amount.String(), t.Category, t.RecurrenceDay, t.Notes)
	if err != nil {
		return fmt.Errorf("create recurring template: %w", err)
	}

	slog.InfoContext(ctx, "Recurring template saved",
		"id", t.ID,
		"kind", string(t.Kind),
		"recurrence_day", t.RecurrenceDay)
	return nil
}

func (r *Repository) ListTemplates(ctx context.Context, userID string, kind core.Kind) ([]core.RecurringTemplate, error) {
	states, err := r.ListTemplateStates(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	out := make([]core.RecurringTemplate, len(states))
	for i, s := range states {
		out[i] = s.Template
	}
	return out, nil
}

// ListTemplateStates returns templates together with their firing markers.
func (r *Repository) ListTemplateStates(ctx context.Context, userID string, kind core.Kind) ([]TemplateState, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, category, recurrence_day, notes, last_fired_on
		 FROM recurring_templates WHERE user_id = ? AND kind = ? ORDER BY created_at`,
		userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	defer rows.Close()

	var out []TemplateState
	for rows.Next() {
		var (
			s         TemplateState
			amount    string
			lastFired sql.NullString
		)
		if err := rows.Scan(&s.Template.ID, &amount, &s.Template.Category,
			&s.Template.RecurrenceDay, &s.Template.Notes, &lastFired); err != nil {
			return nil, fmt.Errorf("scan recurring template: %w", err)
		}
		s.Template.Kind = kind
		if s.Template.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		if lastFired.Valid {
			if s.LastFired, err = time.Parse(dayLayout, lastFired.String); err != nil {
				return nil, fmt.Errorf("parse last fired marker %q: %w", lastFired.String, err)
			}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteTemplate(ctx context.Context, userID string, kind core.Kind, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_templates WHERE id = ? AND user_id = ? AND kind = ?`,
		id, userID, string(kind))
	if err != nil {
		return fmt.Errorf("delete recurring template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Recurring template deleted", "id", id, "kind", string(kind))
	return nil
}

// FireTemplate inserts a materialized transaction and stamps the template's
// last_fired_on marker in one SQL transaction. The marker comparison is by
// year+month, so re-running the materializer within the same cycle returns
// ErrAlreadyFired instead of inserting a duplicate.
func (r *Repository) FireTemplate(ctx context.Context, userID, templateID string, txn core.Transaction, firedOn time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin fire transaction: %w", err)
	}
	defer tx.Rollback()

	firedDay := firedOn.Format(dayLayout)
	cycle := firedOn.Format("2006-01")

	res, err := tx.ExecContext(ctx,
		`UPDATE recurring_templates SET last_fired_on = ?
		 WHERE id = ? AND user_id = ?
		   AND (last_fired_on IS NULL OR substr(last_fired_on, 1, 7) != ?)`,
		firedDay, templateID, userID, cycle)
	if err != nil {
		return fmt.Errorf("stamp firing marker: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM recurring_templates WHERE id = ? AND user_id = ?`,
			templateID, userID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check template existence: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrAlreadyFired
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, kind, title, amount, category, date, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, userID, string(txn.Kind), txn.Title, txn.Amount.String(), txn.Category,
		txn.Date.UTC().Format(dateLayout), txn.Notes); err != nil {
		return fmt.Errorf("insert materialized transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit fire transaction: %w", err)
	}

	slog.InfoContext(ctx, "Recurring template fired",
		"template_id", templateID,
		"transaction_id", txn.ID,
		"fired_on", firedDay)
	return nil
}

// --- categories and budgets ---

// SeedCategories installs the default category sets for a fresh user.
// Expense categories get zero budget entries; income categories carry no
// budgets.
func (r *Repository) SeedCategories(ctx context.Context, userID string, incomes, expenses []core.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for i, c := range incomes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (user_id, kind, value, label, color, icon, position)
			 VALUES (?, 'income', ?, ?, ?, ?, ?)`,
			userID, c.Value, c.Label, c.Color, c.Icon, i); err != nil {
			return fmt.Errorf("seed income category %q: %w", c.Value, err)
		}
	}
	for i, c := range expenses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (user_id, kind, value, label, color, icon, position)
			 VALUES (?, 'expense', ?, ?, ?, ?, ?)`,
			userID, c.Value, c.Label, c.Color, c.Icon, i); err != nil {
			return fmt.Errorf("seed expense category %q: %w", c.Value, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (user_id, category, amount) VALUES (?, ?, '0')`,
			userID, c.Value); err != nil {
			return fmt.Errorf("seed budget for %q: %w", c.Value, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	return nil
}

func (r *Repository) ListCategories(ctx context.Context, userID string, kind core.Kind) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT value, label, color, icon FROM categories
		 WHERE user_id = ? AND kind = ? ORDER BY position`,
		userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.Value, &c.Label, &c.Color, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertCategory adds a category, together with its budget entry when the
// kind is expense. Income categories never touch the budgets table, so a
// same-valued expense category keeps its budget untouched.
func (r *Repository) InsertCategory(ctx context.Context, userID string, kind core.Kind, c core.Category, budget decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO categories (user_id, kind, value, label, color, icon, position)
		 VALUES (?, ?, ?, ?, ?, ?,
		         (SELECT COALESCE(MAX(position) + 1, 0) FROM categories WHERE user_id = ? AND kind = ?))`,
		userID, string(kind), c.Value, c.Label, c.Color, c.Icon, userID, string(kind)); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}

	if kind == core.Expense {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (user_id, category, amount) VALUES (?, ?, ?)
			 ON CONFLICT (user_id, category) DO UPDATE SET amount = excluded.amount`,
			userID, c.Value, budget.String()); err != nil {
			return fmt.Errorf("insert budget entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "value", c.Value, "kind", string(kind))
	return nil
}

// DeleteWithBudget removes a category and, for the expense kind, prunes its
// budget entry in the same SQL transaction, so no dangling budget key can
// survive. Deleting an income category never prunes: the value may still be
// in use by an expense category with a live budget.
func (r *Repository) DeleteWithBudget(ctx context.Context, userID string, kind core.Kind, value string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM categories WHERE user_id = ? AND kind = ? AND value = ?`,
		userID, string(kind), value)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if kind == core.Expense {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM budgets WHERE user_id = ? AND category = ?`, userID, value); err != nil {
			return fmt.Errorf("prune budget entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Category deleted", "value", value, "kind", string(kind))
	return nil
}

func (r *Repository) SetBudget(ctx context.Context, userID, category string, amount decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category, amount) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, category) DO UPDATE SET amount = excluded.amount`,
		userID, category, amount.String())
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

func (r *Repository) GetBudgets(ctx context.Context, userID string) (core.BudgetMap, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, amount FROM budgets WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("get budgets: %w", err)
	}
	defer rows.Close()

	budgets := make(core.BudgetMap)
	for rows.Next() {
		var category, amount string
		if err := rows.Scan(&category, &amount); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if budgets[category], err = parseAmount(amount); err != nil {
			return nil, err
		}
	}
	return budgets, rows.Err()
}
