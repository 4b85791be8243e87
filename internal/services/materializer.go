// Package services provides business logic and orchestration services.
//
// This file implements recurrence materialization: turning recurring
// transaction templates into concrete, dated transactions.
package services

import (
	"fmt"
	"time"

	"finanzas/internal/core"
)

// RecurrenceMarker is appended to the notes of every materialized
// transaction so generated entries are distinguishable from manual ones.
const RecurrenceMarker = "(Recurrente)"

// GeneratedID derives a transaction id from the materialization instant and
// the template id. Uniqueness holds only across distinct milliseconds; the
// durable firing marker in storage is what prevents double entries, not this
// id.
func GeneratedID(kind core.Kind, templateID string, at time.Time) string {
	prefix := "exp"
	if kind == core.Income {
		prefix = "inc"
	}
	return fmt.Sprintf("%s-%d-%s", prefix, at.UnixMilli(), templateID)
}

// defaultTitle names a generated transaction when its template has no notes.
func defaultTitle(kind core.Kind) string {
	if kind == core.Income {
		return "Ingreso"
	}
	return "Gasto"
}

// Materialize produces one transaction per template whose recurrence day
// equals today's day-of-month. Pure: no storage, no side effects, never
// fails. A template with day 31 simply never fires in shorter months; there
// is no end-of-month rollover.
func Materialize(templates []core.RecurringTemplate, today time.Time) []core.Transaction {
	day := today.Day()
	stamp := time.Date(today.Year(), today.Month(), day, 0, 0, 0, 0, today.Location())

	var out []core.Transaction
	for _, tmpl := range templates {
		if tmpl.RecurrenceDay != day {
			continue
		}
		title := defaultTitle(tmpl.Kind)
		notes := RecurrenceMarker
		if tmpl.Notes != "" {
			title = tmpl.Notes
			notes = tmpl.Notes + " " + RecurrenceMarker
		}
		out = append(out, core.Transaction{
			ID:       GeneratedID(tmpl.Kind, tmpl.ID, today),
			Kind:     tmpl.Kind,
			Title:    title,
			Amount:   tmpl.Amount,
			Category: tmpl.Category,
			Date:     stamp,
			Notes:    notes,
		})
	}
	return out
}

// FiredThisCycle reports whether a template that last fired at lastFired has
// already covered now's monthly cycle. A zero lastFired means it never fired.
func FiredThisCycle(lastFired, now time.Time) bool {
	if lastFired.IsZero() {
		return false
	}
	return lastFired.Year() == now.Year() && lastFired.Month() == now.Month()
}
