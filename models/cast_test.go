package models

import (
	"testing"

	"gorm.io/gorm/clause"
)

func TestNormalizeRowDropsUnknownColumns(t *testing.T) {
	casts := map[string]ColumnType{"name": ColString, "age": ColNumeric}
	out := normalizeRow(casts, map[string]any{
		"name":    "Ada",
		"age":     "42",
		"unknown": "dropped",
	})

	if _, ok := out["unknown"]; ok {
		t.Error("unknown column survived normalization")
	}
	if out["name"] != "Ada" {
		t.Errorf("name = %v, want raw string", out["name"])
	}
}

func TestNormalizeRowPreservesNulls(t *testing.T) {
	casts := map[string]ColumnType{"birthday": ColTimestamp, "veteran": ColBool}
	out := normalizeRow(casts, map[string]any{"birthday": nil, "veteran": nil})

	if out["birthday"] != nil || out["veteran"] != nil {
		t.Errorf("nils were wrapped: %v", out)
	}
}

func TestCastValueWrapsTypedColumns(t *testing.T) {
	cases := []struct {
		typ  ColumnType
		want string
	}{
		{ColUUID, "?::uuid"},
		{ColNumeric, "?::numeric"},
		{ColTimestamp, "?::timestamptz"},
		{ColDate, "?::date"},
		{ColBool, "?::boolean"},
		{ColInt, "?::int"},
	}
	for _, tc := range cases {
		got := castValue(tc.typ, "v")
		expr, ok := got.(clause.Expr)
		if !ok {
			t.Fatalf("castValue(%v) = %T, want clause.Expr", tc.typ, got)
		}
		if expr.SQL != tc.want {
			t.Errorf("castValue(%v) SQL = %q, want %q", tc.typ, expr.SQL, tc.want)
		}
	}

	if got := castValue(ColString, "plain"); got != "plain" {
		t.Errorf("string cast = %v, want passthrough", got)
	}
}

func TestContactCastsCoverSyncColumns(t *testing.T) {
	for _, col := range []string{"gcid", "hubspot_id", "hubspot_updated_at", "mobile", "landline", "email"} {
		if _, ok := contactCasts[col]; !ok {
			t.Errorf("contactCasts missing %s", col)
		}
	}
	for _, col := range []string{"hubspot_id", "hubspot_updated_at", "contact_gcid", "list_price", "purchase_date"} {
		if _, ok := dealCasts[col]; !ok {
			t.Errorf("dealCasts missing %s", col)
		}
	}
}
