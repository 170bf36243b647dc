package models

import "gorm.io/gorm"

// ColumnType drives the SQL-side cast applied to raw sync values. Values
// arrive from the remote API as strings; the store coerces them, so a
// malformed number or date fails at the store, not silently upstream.
type ColumnType int

const (
	ColString ColumnType = iota
	ColInt
	ColUUID
	ColNumeric
	ColTimestamp
	ColDate
	ColBool
)

func castValue(t ColumnType, v any) any {
	if v == nil {
		return nil
	}
	switch t {
	case ColInt:
		return gorm.Expr("?::int", v)
	case ColUUID:
		return gorm.Expr("?::uuid", v)
	case ColNumeric:
		return gorm.Expr("?::numeric", v)
	case ColTimestamp:
		return gorm.Expr("?::timestamptz", v)
	case ColDate:
		return gorm.Expr("?::date", v)
	case ColBool:
		return gorm.Expr("?::boolean", v)
	default:
		return v
	}
}

// normalizeRow keeps only columns the table declares and wraps each kept
// value in its cast. Unknown keys are dropped; nils stay NULL.
func normalizeRow(casts map[string]ColumnType, row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for col, v := range row {
		t, ok := casts[col]
		if !ok {
			continue
		}
		out[col] = castValue(t, v)
	}
	return out
}
