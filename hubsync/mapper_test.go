package hubsync

import (
	"testing"
	"time"
)

func TestMapRecordFirstNonEmptySourceWins(t *testing.T) {
	mappings := []fieldMapping{
		{Column: "recent_hearing_test", Sources: []string{"recent_hearing_test", "recent_hearing_tes"}},
	}

	row := mapRecord(mappings, RemoteRecord{
		ID: "1",
		Properties: map[string]any{
			"recent_hearing_test": "yes",
			"recent_hearing_tes":  "typo",
		},
	})
	if row["recent_hearing_test"] != "yes" {
		t.Errorf("got %v, want canonical property preferred", row["recent_hearing_test"])
	}

	row = mapRecord(mappings, RemoteRecord{
		ID:         "2",
		Properties: map[string]any{"recent_hearing_tes": "typo"},
	})
	if row["recent_hearing_test"] != "typo" {
		t.Errorf("got %v, want legacy alias used when canonical absent", row["recent_hearing_test"])
	}
}

func TestMapRecordEmptyStringsBecomeNull(t *testing.T) {
	mappings := []fieldMapping{
		{Column: "firstname", Sources: []string{"firstname"}},
		{Column: "lastname", Sources: []string{"lastname"}},
		{Column: "email", Sources: []string{"email"}},
	}

	row := mapRecord(mappings, RemoteRecord{
		ID: "1",
		Properties: map[string]any{
			"firstname": "",
			"lastname":  "  ",
		},
	})
	if row["firstname"] != nil {
		t.Errorf("empty string mapped to %v, want nil", row["firstname"])
	}
	if row["lastname"] != nil {
		t.Errorf("whitespace mapped to %v, want nil", row["lastname"])
	}
	if row["email"] != nil {
		t.Errorf("absent property mapped to %v, want nil", row["email"])
	}
}

func TestMapRecordTrimsAndCoversEveryColumn(t *testing.T) {
	mappings := []fieldMapping{
		{Column: "firstname", Sources: []string{"firstname"}},
		{Column: "city", Sources: []string{"city"}},
	}

	row := mapRecord(mappings, RemoteRecord{
		ID:         "42",
		Properties: map[string]any{"firstname": "  Ada  "},
	})
	if row["hubspot_id"] != "42" {
		t.Errorf("hubspot_id = %v, want record id always set", row["hubspot_id"])
	}
	if row["firstname"] != "Ada" {
		t.Errorf("firstname = %q, want trimmed", row["firstname"])
	}
	if _, present := row["city"]; !present {
		t.Error("unmatched column missing from row; updates would not clear it")
	}
}

func TestSourcePropertiesDeduplicates(t *testing.T) {
	mappings := []fieldMapping{
		{Column: "a", Sources: []string{"x", "y"}},
		{Column: "b", Sources: []string{"y", "z"}},
	}
	props := sourceProperties(mappings)
	if len(props) != 3 {
		t.Fatalf("props = %v, want x y z", props)
	}
	if props[0] != "x" || props[1] != "y" || props[2] != "z" {
		t.Errorf("props = %v, want mapping order preserved", props)
	}
}

func TestRemoteTimestamp(t *testing.T) {
	got := remoteTimestamp(rec("1", "2026-08-29T12:34:56Z"), "lastmodifieddate")
	if got == nil || !got.Equal(time.Date(2026, 8, 29, 12, 34, 56, 0, time.UTC)) {
		t.Errorf("timestamp = %v, want parsed UTC time", got)
	}

	if remoteTimestamp(rec("2", ""), "lastmodifieddate") != nil {
		t.Error("absent property should yield nil")
	}
	if remoteTimestamp(rec("3", "not-a-date"), "lastmodifieddate") != nil {
		t.Error("unparseable value should yield nil")
	}
}

func TestContactMappingRenamesSyncColumns(t *testing.T) {
	row := mapRecord(contactMappings, RemoteRecord{
		ID: "7",
		Properties: map[string]any{
			"createdate":            "2026-08-01T00:00:00Z",
			"lastmodifieddate":      "2026-08-29T00:00:00Z",
			"hs_created_by_user_id": "11",
			"hs_updated_by_user_id": "12",
			"firstname":             "Grace",
		},
	})
	if row["hubspot_created_at"] != "2026-08-01T00:00:00Z" {
		t.Errorf("hubspot_created_at = %v", row["hubspot_created_at"])
	}
	if row["hubspot_updated_at"] != "2026-08-29T00:00:00Z" {
		t.Errorf("hubspot_updated_at = %v", row["hubspot_updated_at"])
	}
	if row["hubspot_created_by_user_id"] != "11" || row["hubspot_updated_by_user_id"] != "12" {
		t.Errorf("user id columns = %v / %v", row["hubspot_created_by_user_id"], row["hubspot_updated_by_user_id"])
	}
}

func TestDealMappingLegacyAliases(t *testing.T) {
	row := mapRecord(dealMappings, RemoteRecord{
		ID: "9",
		Properties: map[string]any{
			"tech_level_future_hearing_aid_fitted": "premium",
			"creation_source_id":                   "src-1",
		},
	})
	if row["tech_level_future_hearing_aids"] != "premium" {
		t.Errorf("tech level = %v, want legacy alias value", row["tech_level_future_hearing_aids"])
	}
	if row["source_id"] != "src-1" {
		t.Errorf("source_id = %v, want creation_source_id", row["source_id"])
	}
}
