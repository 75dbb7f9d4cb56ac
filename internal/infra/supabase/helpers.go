package supabase

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Prefer header values used by the stores.
const (
	preferRepresentation = "return=representation"
	preferMinimal        = "return=minimal"
	preferIgnoreDupes    = "resolution=ignore-duplicates,return=minimal"
)

// eq builds a PostgREST equality filter with the value escaped.
func eq(column, value string) string {
	return fmt.Sprintf("%s=eq.%s", column, url.QueryEscape(value))
}

// decodeFirst decodes a PostgREST array answer and returns its first row,
// or nil when the answer is empty.
func decodeFirst[T any](body []byte, table string) (*T, error) {
	rows, err := decodeRows[T](body, table)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// decodeRows decodes a PostgREST array answer. An empty body is no rows.
func decodeRows[T any](body []byte, table string) ([]T, error) {
	if len(body) == 0 {
		return []T{}, nil
	}
	var rows []T
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", table, err)
	}
	return rows, nil
}
