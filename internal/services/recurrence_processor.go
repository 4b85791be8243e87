package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// RecurrenceProcessor turns due templates into stored transactions. The
// durable last fired marker in storage makes every run idempotent: a template
// fires at most once per monthly cycle no matter how often the processor
// runs.
type RecurrenceProcessor struct {
	store    *storage.Repository
	notifier Notifier
}

func NewRecurrenceProcessor(store *storage.Repository, notifier Notifier) *RecurrenceProcessor {
	return &RecurrenceProcessor{store: store, notifier: notifier}
}

// ProcessDue fires one user's due templates of both kinds and returns how
// many transactions were created. Races with a concurrent run lose at the
// storage layer and are skipped, not reported as errors.
func (p *RecurrenceProcessor) ProcessDue(ctx context.Context, userID string, now time.Time) (int, error) {
	total := 0
	for _, kind := range []core.Kind{core.Income, core.Expense} {
		fired, err := p.processKind(ctx, userID, kind, now)
		if err != nil {
			return total, err
		}
		total += fired

		if fired > 0 && p.notifier != nil {
			if err := p.notifier.RecurrenceFired(ctx, userID, kind, fired); err != nil {
				slog.WarnContext(ctx, "Failed to publish recurrence event",
					"user_id", userID,
					"kind", string(kind),
					"error", err)
			}
		}
	}
	return total, nil
}

func (p *RecurrenceProcessor) processKind(ctx context.Context, userID string, kind core.Kind, now time.Time) (int, error) {
	states, err := p.store.ListTemplateStates(ctx, userID, kind)
	if err != nil {
		return 0, fmt.Errorf("list %s templates: %w", kind, err)
	}

	fired := 0
	for _, s := range states {
		if FiredThisCycle(s.LastFired, now) {
			continue
		}
		txns := Materialize([]core.RecurringTemplate{s.Template}, now)
		if len(txns) == 0 {
			continue
		}

		err := p.store.FireTemplate(ctx, userID, s.Template.ID, txns[0], now)
		switch {
		case errors.Is(err, storage.ErrAlreadyFired):
			slog.InfoContext(ctx, "Template already fired this cycle, skipping",
				"template_id", s.Template.ID)
		case err != nil:
			slog.ErrorContext(ctx, "Failed to fire template",
				"template_id", s.Template.ID,
				"error", err)
		default:
			fired++
		}
	}
	return fired, nil
}

// ProcessAll runs ProcessDue for every registered user. One user's failure is
// logged and does not stop the sweep.
func (p *RecurrenceProcessor) ProcessAll(ctx context.Context, now time.Time) (int, error) {
	userIDs, err := p.store.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	total := 0
	for _, userID := range userIDs {
		fired, err := p.ProcessDue(ctx, userID, now)
		total += fired
		if err != nil {
			slog.ErrorContext(ctx, "Recurrence sweep failed for user",
				"user_id", userID,
				"error", err)
		}
	}

	if total > 0 {
		slog.InfoContext(ctx, "Recurrence sweep completed",
			"users", len(userIDs),
			"fired", total)
	}
	return total, nil
}
