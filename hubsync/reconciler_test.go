package hubsync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hellohearing/crm_backend/models"
)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	t = t.UTC()
	return &t
}

// fakeEntity is an in-memory Entity. The local side is a map of remote id
// to recorded timestamp; every write is logged so tests can assert ordering
// and dry-run purity.
type fakeEntity struct {
	records   []RemoteRecord
	states    map[string]*time.Time
	fetchErr  error
	statesErr error

	insertErr   map[string]error
	updateOk    map[string]bool
	fallbackOk  map[string]bool
	validateErr map[string]error

	writeLog []string

	remoteIds   map[string]struct{}
	refs        []RemoteRef
	deletedKeys []string
	listErr     error
}

func (f *fakeEntity) Type() string { return "fakes" }

func (f *fakeEntity) FetchRecent(ctx context.Context, opts FetchOptions) (FetchResult, error) {
	if f.fetchErr != nil {
		return FetchResult{}, f.fetchErr
	}
	return FetchResult{Since: time.Now().UTC(), Pages: 1, Records: f.records}, nil
}

func (f *fakeEntity) RemoteUpdatedAt(rec RemoteRecord) *time.Time {
	return remoteTimestamp(rec, "lastmodifieddate")
}

func (f *fakeEntity) ListRemoteIds(ctx context.Context, pageSize int) (map[string]struct{}, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.remoteIds, nil
}

func (f *fakeEntity) LocalSyncStates(ctx context.Context, ids []string) (map[string]*time.Time, error) {
	if f.statesErr != nil {
		return nil, f.statesErr
	}
	out := make(map[string]*time.Time)
	for _, id := range ids {
		if v, ok := f.states[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f *fakeEntity) MapRow(rec RemoteRecord) map[string]any {
	return map[string]any{"hubspot_id": rec.ID}
}

func (f *fakeEntity) ValidateInsert(row map[string]any) error {
	id, _ := row["hubspot_id"].(string)
	return f.validateErr[id]
}

func (f *fakeEntity) Insert(ctx context.Context, row map[string]any) error {
	id, _ := row["hubspot_id"].(string)
	f.writeLog = append(f.writeLog, "insert:"+id)
	return f.insertErr[id]
}

func (f *fakeEntity) UpdateByHubspotId(ctx context.Context, id string, row map[string]any) (bool, error) {
	f.writeLog = append(f.writeLog, "update:"+id)
	ok, declared := f.updateOk[id]
	if !declared {
		return true, nil
	}
	return ok, nil
}

func (f *fakeEntity) UpdateByFallbackKey(ctx context.Context, row map[string]any) (bool, error) {
	id, _ := row["hubspot_id"].(string)
	f.writeLog = append(f.writeLog, "fallback:"+id)
	return f.fallbackOk[id], nil
}

func (f *fakeEntity) LocalRemoteRefs(ctx context.Context) ([]RemoteRef, error) {
	return f.refs, nil
}

func (f *fakeEntity) DeleteByLocalKeys(ctx context.Context, keys []string) (int64, error) {
	f.deletedKeys = append(f.deletedKeys, keys...)
	return int64(len(keys)), nil
}

func rec(id, modified string) RemoteRecord {
	props := map[string]any{}
	if modified != "" {
		props["lastmodifieddate"] = modified
	}
	return RemoteRecord{ID: id, Properties: props}
}

func TestSyncPartitionsEveryRecordExactlyOnce(t *testing.T) {
	ent := &fakeEntity{
		records: []RemoteRecord{
			rec("100", "2026-08-29T12:00:00Z"), // not in DB -> insert
			rec("200", "2026-08-29T12:00:00Z"), // newer remote -> update
			rec("300", "2026-08-29T12:00:00Z"), // equal -> unchanged
			rec("400", "2026-08-29T11:00:00Z"), // older remote -> unchanged
			rec("500", ""),                     // no remote ts, local present -> unchanged
			rec("600", ""),                     // no remote ts, local NULL -> update
		},
		states: map[string]*time.Time{
			"200": ts("2026-08-29T11:00:00Z"),
			"300": ts("2026-08-29T12:00:00Z"),
			"400": ts("2026-08-29T12:00:00Z"),
			"500": ts("2026-08-29T10:00:00Z"),
			"600": nil,
		},
	}

	resp, err := Sync(context.Background(), ent, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if got := resp.Partitions.ToInsert + resp.Partitions.ToUpdate + resp.Partitions.Unchanged; got != resp.Total {
		t.Fatalf("partitions don't cover total: %d vs %d", got, resp.Total)
	}
	if len(resp.ToInsert) != 1 || resp.ToInsert[0] != "100" {
		t.Errorf("to_insert = %v, want [100]", resp.ToInsert)
	}
	wantUpdate := map[string]bool{"200": true, "600": true}
	if len(resp.ToUpdate) != 2 {
		t.Fatalf("to_update = %v, want 200 and 600", resp.ToUpdate)
	}
	for _, id := range resp.ToUpdate {
		if !wantUpdate[id] {
			t.Errorf("unexpected update id %s", id)
		}
	}
	if len(resp.Unchanged) != 3 {
		t.Fatalf("unchanged = %v, want 300, 400, 500", resp.Unchanged)
	}
	for _, u := range resp.Unchanged {
		if u.HubspotId == "300" {
			if u.RemoteUpdatedAt == nil || u.RecordedUpdatedAt == nil {
				t.Errorf("unchanged detail for 300 missing timestamps: %+v", u)
			}
		}
	}
}

func TestSyncForceModeUpdatesEveryMatchedRecord(t *testing.T) {
	ent := &fakeEntity{
		records: []RemoteRecord{
			rec("1", "2026-08-29T11:00:00Z"),
			rec("2", "2026-08-29T12:00:00Z"),
			rec("3", "2026-08-29T12:00:00Z"),
		},
		states: map[string]*time.Time{
			"1": ts("2026-08-29T12:00:00Z"), // remote older, forced anyway
			"2": ts("2026-08-29T12:00:00Z"), // equal, forced anyway
		},
	}

	resp, err := Sync(context.Background(), ent, Options{DryRun: true, Mode: ModeForce})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if resp.Partitions.Unchanged != 0 {
		t.Errorf("force mode left %d unchanged", resp.Partitions.Unchanged)
	}
	if resp.Partitions.ToUpdate != 2 || resp.Partitions.ToInsert != 1 {
		t.Errorf("partitions = %+v, want 1 insert / 2 update", resp.Partitions)
	}
}

func TestSyncDryRunWritesNothing(t *testing.T) {
	ent := &fakeEntity{
		records: []RemoteRecord{rec("1", "2026-08-29T12:00:00Z")},
		states:  map[string]*time.Time{},
	}

	resp, err := Sync(context.Background(), ent, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if resp.Applied != nil {
		t.Errorf("dry run produced an apply report: %+v", resp.Applied)
	}
	if len(ent.writeLog) != 0 {
		t.Errorf("dry run performed writes: %v", ent.writeLog)
	}
}

func TestSyncEmptyWindow(t *testing.T) {
	ent := &fakeEntity{}

	resp, err := Sync(context.Background(), ent, Options{})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !resp.Ok || resp.Total != 0 {
		t.Errorf("resp = %+v, want ok with zero total", resp)
	}
	if len(ent.writeLog) != 0 {
		t.Errorf("empty window performed writes: %v", ent.writeLog)
	}
}

func TestSyncAppliesUpdatesBeforeInserts(t *testing.T) {
	ent := &fakeEntity{
		records: []RemoteRecord{
			rec("new", "2026-08-29T12:00:00Z"),
			rec("old", "2026-08-29T12:00:00Z"),
		},
		states: map[string]*time.Time{"old": ts("2026-08-29T11:00:00Z")},
	}

	if _, err := Sync(context.Background(), ent, Options{}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(ent.writeLog) != 2 || ent.writeLog[0] != "update:old" || ent.writeLog[1] != "insert:new" {
		t.Errorf("write order = %v, want updates before inserts", ent.writeLog)
	}
}

func TestSyncConflictFallsBackToUpdate(t *testing.T) {
	ent := &fakeEntity{
		records:   []RemoteRecord{rec("dup", "2026-08-29T12:00:00Z")},
		states:    map[string]*time.Time{},
		insertErr: map[string]error{"dup": models.ErrConflict},
	}

	resp, err := Sync(context.Background(), ent, Options{})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if resp.Applied.Updated != 1 || resp.Applied.Inserted != 0 {
		t.Errorf("applied = %+v, want conflict converted to update", resp.Applied)
	}
	if len(resp.Errors) != 0 {
		t.Errorf("unexpected errors: %v", resp.Errors)
	}
}

func TestSyncConflictFallsBackToSecondaryKey(t *testing.T) {
	ent := &fakeEntity{
		records:    []RemoteRecord{rec("dup", "2026-08-29T12:00:00Z")},
		states:     map[string]*time.Time{},
		insertErr:  map[string]error{"dup": models.ErrConflict},
		updateOk:   map[string]bool{"dup": false},
		fallbackOk: map[string]bool{"dup": true},
	}

	resp, err := Sync(context.Background(), ent, Options{})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if resp.Applied.Updated != 1 {
		t.Errorf("applied = %+v, want fallback-key update counted", resp.Applied)
	}
	want := []string{"insert:dup", "update:dup", "fallback:dup"}
	if len(ent.writeLog) != len(want) {
		t.Fatalf("write log = %v, want %v", ent.writeLog, want)
	}
	for i := range want {
		if ent.writeLog[i] != want[i] {
			t.Fatalf("write log = %v, want %v", ent.writeLog, want)
		}
	}
}

func TestSyncConflictResidualIsRecorded(t *testing.T) {
	ent := &fakeEntity{
		records:    []RemoteRecord{rec("dup", "2026-08-29T12:00:00Z")},
		states:     map[string]*time.Time{},
		insertErr:  map[string]error{"dup": models.ErrConflict},
		updateOk:   map[string]bool{"dup": false},
		fallbackOk: map[string]bool{"dup": false},
	}

	resp, err := Sync(context.Background(), ent, Options{})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", resp.Errors)
	}
	if resp.Errors[0].Action != "update_after_duplicate" || resp.Errors[0].HubspotId != "dup" {
		t.Errorf("error = %+v, want update_after_duplicate for dup", resp.Errors[0])
	}
}

func TestSyncSkipsInvalidInsertsWithoutError(t *testing.T) {
	ent := &fakeEntity{
		records: []RemoteRecord{
			rec("bad", "2026-08-29T12:00:00Z"),
			rec("good", "2026-08-29T12:00:00Z"),
		},
		states:      map[string]*time.Time{},
		validateErr: map[string]error{"bad": errors.New("unreachable")},
	}

	resp, err := Sync(context.Background(), ent, Options{})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if resp.Applied.SkippedInserts != 1 || resp.Applied.Inserted != 1 {
		t.Errorf("applied = %+v, want 1 skipped / 1 inserted", resp.Applied)
	}
	if len(resp.Applied.SkippedInsertIds) != 1 || resp.Applied.SkippedInsertIds[0] != "bad" {
		t.Errorf("skipped ids = %v, want [bad]", resp.Applied.SkippedInsertIds)
	}
	if len(resp.Errors) != 0 {
		t.Errorf("skips counted as errors: %v", resp.Errors)
	}
}

func TestSyncContinuesPastPerRecordFailures(t *testing.T) {
	var records []RemoteRecord
	for i := 0; i < 5; i++ {
		records = append(records, rec(fmt.Sprintf("%d", i), "2026-08-29T12:00:00Z"))
	}
	ent := &fakeEntity{
		records:   records,
		states:    map[string]*time.Time{},
		insertErr: map[string]error{"2": errors.New("boom")},
	}

	resp, err := Sync(context.Background(), ent, Options{})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if resp.Applied.Inserted != 4 {
		t.Errorf("inserted = %d, want 4 despite one failure", resp.Applied.Inserted)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Action != "insert" {
		t.Errorf("errors = %v, want single insert error", resp.Errors)
	}
}

func TestSyncFetchErrorAbortsWhole(t *testing.T) {
	ent := &fakeEntity{fetchErr: &RemoteError{Status: 500, Body: "upstream"}}

	_, err := Sync(context.Background(), ent, Options{})
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("err = %v, want RemoteError", err)
	}
	if len(ent.writeLog) != 0 {
		t.Errorf("failed fetch still wrote: %v", ent.writeLog)
	}
}

func TestSyncIsIdempotentOnUnchangedData(t *testing.T) {
	ent := &fakeEntity{
		records: []RemoteRecord{rec("1", "2026-08-29T12:00:00Z")},
		states:  map[string]*time.Time{"1": ts("2026-08-29T12:00:00Z")},
	}

	for i := 0; i < 2; i++ {
		resp, err := Sync(context.Background(), ent, Options{})
		if err != nil {
			t.Fatalf("Sync pass %d: %v", i, err)
		}
		if resp.Partitions.Unchanged != 1 {
			t.Fatalf("pass %d partitions = %+v, want all unchanged", i, resp.Partitions)
		}
	}
	if len(ent.writeLog) != 0 {
		t.Errorf("unchanged data produced writes: %v", ent.writeLog)
	}
}
