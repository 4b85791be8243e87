package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"finanzas/internal/core"
)

const maxBodyBytes = 1 << 20 // 1 MiB

var errMalformedBody = errors.New("malformed request body")

// decodeJSON reads one JSON object into dst. Unknown fields and trailing
// garbage are rejected.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if dec.More() {
		return errMalformedBody
	}
	return nil
}

// kindFromPath derives the transaction kind from the route. The routes are
// /api/incomes, /api/expenses and their /api/recurring counterparts.
func kindFromPath(r *http.Request) core.Kind {
	if strings.Contains(r.URL.Path, "/incomes") {
		return core.Income
	}
	return core.Expense
}

// kindFromQuery reads an optional ?kind= parameter, defaulting to expense.
func kindFromQuery(r *http.Request) (core.Kind, error) {
	raw := r.URL.Query().Get("kind")
	if raw == "" {
		return core.Expense, nil
	}
	kind := core.Kind(raw)
	if err := kind.Validate(); err != nil {
		return "", err
	}
	return kind, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
