package hubsync

import (
	"context"
	"time"

	"github.com/hellohearing/crm_backend/config"
	"github.com/hellohearing/crm_backend/models"
)

// SyncMode selects how matched records are treated. Incremental compares
// timestamps; force updates every matched record regardless.
type SyncMode string

const (
	ModeIncremental SyncMode = "incremental"
	ModeForce       SyncMode = "force"
)

// Options controls one sync operation end to end.
type Options struct {
	Fetch  FetchOptions
	DryRun bool
	Mode   SyncMode
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeIncremental
	}
	return o
}

// buildPlan fetches the window and partitions every record into exactly one
// of toInsert, toUpdate, or unchanged.
func buildPlan(ctx context.Context, ent Entity, opts Options) (*Plan, error) {
	opts = opts.withDefaults()

	fetched, err := ent.FetchRecent(ctx, opts.Fetch)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Since:   fetched.Since,
		Pages:   fetched.Pages,
		Total:   len(fetched.Records),
		Mode:    opts.Mode,
		records: make(map[string]RemoteRecord, len(fetched.Records)),
	}
	if len(fetched.Records) == 0 {
		return plan, nil
	}

	ids := make([]string, 0, len(fetched.Records))
	for _, rec := range fetched.Records {
		ids = append(ids, rec.ID)
		plan.records[rec.ID] = rec
	}

	states, err := ent.LocalSyncStates(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, rec := range fetched.Records {
		localTs, exists := states[rec.ID]
		if !exists {
			plan.ToInsert = append(plan.ToInsert, rec.ID)
			continue
		}
		remoteTs := ent.RemoteUpdatedAt(rec)
		if opts.Mode == ModeForce || shouldUpdate(remoteTs, localTs) {
			plan.ToUpdate = append(plan.ToUpdate, rec.ID)
			continue
		}
		plan.Unchanged = append(plan.Unchanged, UnchangedDetail{
			HubspotId:         rec.ID,
			RemoteUpdatedAt:   remoteTs,
			RecordedUpdatedAt: localTs,
		})
	}
	return plan, nil
}

// shouldUpdate is the incremental comparison. A matched row with no recorded
// timestamp always updates; a remote record with no timestamp never does;
// equal timestamps count as unchanged.
func shouldUpdate(remoteTs, localTs *time.Time) bool {
	if localTs == nil {
		return true
	}
	if remoteTs == nil {
		return false
	}
	return remoteTs.After(*localTs)
}

// applyPlan writes a plan: updates first, then inserts, so a record matched
// under one key cannot be re-inserted under another by a later page. Errors
// accumulate per record.
func applyPlan(ctx context.Context, ent Entity, plan *Plan) ApplyReport {
	logger := config.GetLogger()
	var report ApplyReport

	for _, id := range plan.ToUpdate {
		row := ent.MapRow(plan.records[id])
		if _, err := ent.UpdateByHubspotId(ctx, id, row); err != nil {
			config.LogError(logger, "hubsync", "applyPlan", "update "+ent.Type(), id, err)
			report.Errors = append(report.Errors, ApplyError{HubspotId: id, Action: "update", Error: err.Error()})
			continue
		}
		report.Updated++
	}

	for _, id := range plan.ToInsert {
		row := ent.MapRow(plan.records[id])
		if err := ent.ValidateInsert(row); err != nil {
			report.SkippedInserts++
			report.SkippedInsertIds = append(report.SkippedInsertIds, id)
			continue
		}

		err := ent.Insert(ctx, row)
		if err == nil {
			report.Inserted++
			continue
		}
		if !models.IsConflict(err) {
			config.LogError(logger, "hubsync", "applyPlan", "insert "+ent.Type(), id, err)
			report.Errors = append(report.Errors, ApplyError{HubspotId: id, Action: "insert", Error: err.Error()})
			continue
		}

		// Another writer got there first. Fall back to updating the
		// existing row instead of failing the record.
		if ok, uerr := ent.UpdateByHubspotId(ctx, id, row); uerr == nil && ok {
			report.Updated++
			continue
		}
		if ok, uerr := ent.UpdateByFallbackKey(ctx, row); uerr == nil && ok {
			report.Updated++
			continue
		}
		config.LogError(logger, "hubsync", "applyPlan", "conflict fallback "+ent.Type(), id, err)
		report.Errors = append(report.Errors, ApplyError{
			HubspotId: id,
			Action:    "update_after_duplicate",
			Error:     err.Error(),
		})
	}
	return report
}

// Sync runs one full sync operation: fetch, partition, and unless dry-run,
// apply. The response is identical in shape either way; dry-run simply
// leaves Applied nil.
func Sync(ctx context.Context, ent Entity, opts Options) (SyncResponse, error) {
	opts = opts.withDefaults()

	plan, err := buildPlan(ctx, ent, opts)
	if err != nil {
		return SyncResponse{}, err
	}

	resp := SyncResponse{
		Ok:     true,
		DryRun: opts.DryRun,
		Mode:   plan.Mode,
		Since:  plan.Since,
		Pages:  plan.Pages,
		Total:  plan.Total,
		Partitions: Partitions{
			ToInsert:  len(plan.ToInsert),
			ToUpdate:  len(plan.ToUpdate),
			Unchanged: len(plan.Unchanged),
		},
		ToInsert:  append([]string{}, plan.ToInsert...),
		ToUpdate:  append([]string{}, plan.ToUpdate...),
		Unchanged: plan.Unchanged,
		Errors:    []ApplyError{},
	}
	if resp.Unchanged == nil {
		resp.Unchanged = []UnchangedDetail{}
	}

	if opts.DryRun {
		return resp, nil
	}

	report := applyPlan(ctx, ent, plan)
	resp.Applied = &report
	if report.Errors != nil {
		resp.Errors = report.Errors
	}
	return resp, nil
}
