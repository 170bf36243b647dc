package hubsync

import (
	"context"
	"errors"
	"testing"
)

func TestReconcileDeletionsRemovesOnlyStaleRows(t *testing.T) {
	ent := &fakeEntity{
		remoteIds: map[string]struct{}{"1": {}, "3": {}},
		refs: []RemoteRef{
			{LocalKey: "a", HubspotId: "1"},
			{LocalKey: "b", HubspotId: "2"},
			{LocalKey: "c", HubspotId: "3"},
			{LocalKey: "d", HubspotId: "4"},
		},
	}

	result, err := ReconcileDeletions(context.Background(), ent)
	if err != nil {
		t.Fatalf("ReconcileDeletions: %v", err)
	}
	if result.Deleted != 2 {
		t.Errorf("deleted = %d, want 2", result.Deleted)
	}
	want := map[string]bool{"b": true, "d": true}
	if len(ent.deletedKeys) != 2 {
		t.Fatalf("deleted keys = %v, want b and d", ent.deletedKeys)
	}
	for _, k := range ent.deletedKeys {
		if !want[k] {
			t.Errorf("unexpected deleted key %s", k)
		}
	}
}

func TestReconcileDeletionsNoStaleRows(t *testing.T) {
	ent := &fakeEntity{
		remoteIds: map[string]struct{}{"1": {}},
		refs:      []RemoteRef{{LocalKey: "a", HubspotId: "1"}},
	}

	result, err := ReconcileDeletions(context.Background(), ent)
	if err != nil {
		t.Fatalf("ReconcileDeletions: %v", err)
	}
	if result.Deleted != 0 || len(result.DeletedKeys) != 0 {
		t.Errorf("result = %+v, want nothing deleted", result)
	}
	if len(ent.deletedKeys) != 0 {
		t.Errorf("delete was called with %v", ent.deletedKeys)
	}
}

func TestReconcileDeletionsCensusFailureAborts(t *testing.T) {
	ent := &fakeEntity{
		listErr: errors.New("census failed"),
		refs:    []RemoteRef{{LocalKey: "a", HubspotId: "1"}},
	}

	if _, err := ReconcileDeletions(context.Background(), ent); err == nil {
		t.Fatal("expected census error")
	}
	if len(ent.deletedKeys) != 0 {
		t.Errorf("failed census still deleted %v", ent.deletedKeys)
	}
}
