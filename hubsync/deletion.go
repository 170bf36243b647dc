package hubsync

import (
	"context"
)

// missingLocally diffs local remote refs against the remote census and
// returns the local keys whose remote counterpart no longer exists.
func missingLocally(refs []RemoteRef, remote map[string]struct{}) []string {
	var keys []string
	for _, ref := range refs {
		if _, ok := remote[ref.HubspotId]; !ok {
			keys = append(keys, ref.LocalKey)
		}
	}
	return keys
}

// ReconcileDeletions removes local rows whose remote object has been deleted
// or archived. It takes a complete census of the remote side first; a failed
// census aborts with nothing deleted.
func ReconcileDeletions(ctx context.Context, ent Entity) (DeletionResult, error) {
	remote, err := ent.ListRemoteIds(ctx, defaultPageSize)
	if err != nil {
		return DeletionResult{}, err
	}

	refs, err := ent.LocalRemoteRefs(ctx)
	if err != nil {
		return DeletionResult{}, err
	}

	result := DeletionResult{
		Ok:          true,
		RemoteTotal: len(remote),
		LocalTotal:  len(refs),
		DeletedKeys: []string{},
	}

	stale := missingLocally(refs, remote)
	if len(stale) == 0 {
		return result, nil
	}

	deleted, err := ent.DeleteByLocalKeys(ctx, stale)
	if err != nil {
		return DeletionResult{}, err
	}
	result.Deleted = deleted
	result.DeletedKeys = stale
	return result, nil
}
