package hubsync

import (
	"context"
	"time"
)

// Entity abstracts one synced object type (contacts, deals) over the same
// reconciliation loop. Storage implementations live in models; the fakes in
// the tests implement the same surface.
type Entity interface {
	Type() string

	// Remote side.
	FetchRecent(ctx context.Context, opts FetchOptions) (FetchResult, error)
	RemoteUpdatedAt(rec RemoteRecord) *time.Time
	ListRemoteIds(ctx context.Context, pageSize int) (map[string]struct{}, error)

	// Local side. LocalSyncStates reports, for each requested remote id
	// that has a matching row, that row's recorded remote timestamp (which
	// may be nil when the column is NULL). Ids with no row are absent from
	// the map.
	LocalSyncStates(ctx context.Context, hubspotIds []string) (map[string]*time.Time, error)
	MapRow(rec RemoteRecord) map[string]any
	ValidateInsert(row map[string]any) error
	Insert(ctx context.Context, row map[string]any) error
	UpdateByHubspotId(ctx context.Context, hubspotId string, row map[string]any) (bool, error)
	// UpdateByFallbackKey retries a conflicted insert against the entity's
	// secondary key, when it has one. Entities without a fallback return
	// (false, nil).
	UpdateByFallbackKey(ctx context.Context, row map[string]any) (bool, error)
	LocalRemoteRefs(ctx context.Context) ([]RemoteRef, error)
	DeleteByLocalKeys(ctx context.Context, keys []string) (int64, error)
}

// RemoteRef pairs a local row's key with the remote id it mirrors.
type RemoteRef struct {
	LocalKey  string
	HubspotId string
}

// UnchangedDetail explains why one matched record was left alone.
type UnchangedDetail struct {
	HubspotId         string     `json:"hubspot_id"`
	RemoteUpdatedAt   *time.Time `json:"hs_lastmodifieddate"`
	RecordedUpdatedAt *time.Time `json:"db_lastmodifieddate"`
}

// Plan is the result of partitioning a window's fetch against local state.
type Plan struct {
	Since     time.Time
	Pages     int
	Total     int
	Mode      SyncMode
	ToInsert  []string
	ToUpdate  []string
	Unchanged []UnchangedDetail

	records map[string]RemoteRecord
}

// ApplyError records one failed record. The loop never aborts on a
// per-record failure.
type ApplyError struct {
	HubspotId string `json:"hubspot_id"`
	Action    string `json:"action"`
	Error     string `json:"error"`
}

// ApplyReport summarises what a non-dry-run actually wrote.
type ApplyReport struct {
	Inserted         int      `json:"inserted"`
	Updated          int      `json:"updated"`
	SkippedInserts   int      `json:"skipped_inserts"`
	SkippedInsertIds []string `json:"skipped_insert_ids,omitempty"`
	Errors           []ApplyError
}

// Partitions breaks the fetched total down by planned action.
type Partitions struct {
	ToInsert  int `json:"to_insert"`
	ToUpdate  int `json:"to_update"`
	Unchanged int `json:"unchanged"`
}

// SyncResponse is the full payload of one sync operation, dry-run or not.
type SyncResponse struct {
	Ok         bool              `json:"ok"`
	DryRun     bool              `json:"dryrun"`
	Mode       SyncMode          `json:"mode"`
	Since      time.Time         `json:"since"`
	Pages      int               `json:"pages"`
	Total      int               `json:"total"`
	Partitions Partitions        `json:"partitions"`
	ToInsert   []string          `json:"to_insert_ids"`
	ToUpdate   []string          `json:"to_update_ids"`
	Unchanged  []UnchangedDetail `json:"unchanged"`
	Applied    *ApplyReport      `json:"applied,omitempty"`
	Errors     []ApplyError      `json:"errors"`
}

// DeletionResult reports one deletion reconciliation pass.
type DeletionResult struct {
	Ok          bool     `json:"ok"`
	RemoteTotal int      `json:"remote_total"`
	LocalTotal  int      `json:"local_total"`
	Deleted     int64    `json:"deleted"`
	DeletedKeys []string `json:"deleted_ids"`
}
