package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/tracegraph/internal/ir"
)

// marshalAttributes converts attributes to canonical JSON TEXT for storage.
func marshalAttributes(attrs map[string]string) (string, error) {
	if attrs == nil {
		attrs = map[string]string{}
	}
	data, err := ir.MarshalCanonical(attrs)
	if err != nil {
		return "", fmt.Errorf("marshal attributes: %w", err)
	}
	return string(data), nil
}

// unmarshalAttributes parses attributes TEXT. The result is never nil.
func unmarshalAttributes(data string) (map[string]string, error) {
	attrs := map[string]string{}
	if data == "" || data == "{}" {
		return attrs, nil
	}
	if err := json.Unmarshal([]byte(data), &attrs); err != nil {
		return nil, fmt.Errorf("unmarshal attributes: %w", err)
	}
	return attrs, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
