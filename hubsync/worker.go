package hubsync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hellohearing/crm_backend/config"
	"github.com/hellohearing/crm_backend/models"
	"github.com/hellohearing/crm_backend/utils"
)

// entityStats is the per-entity slice of a run's stats_json.
type entityStats struct {
	Total     int `json:"total"`
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
	Failed    bool `json:"failed,omitempty"`
}

// ProcessSyncRun executes one queued run: an incremental sync of contacts
// and deals, with outcomes written back to the run row. Already-finished
// runs are skipped so redelivered messages are harmless.
func ProcessSyncRun(ctx context.Context, runId uint) error {
	logger := config.GetLogger()
	db := config.GetDB()
	ctx = utils.SetSyncRunIdInContext(ctx, runId)

	run, err := models.GetSyncRun(ctx, db, runId)
	if err != nil {
		return err
	}
	switch run.Status {
	case models.SyncRunStatusSuccess, models.SyncRunStatusFailed, models.SyncRunStatusPartial:
		return nil
	}

	now := time.Now()
	startedAt := run.StartedAt
	if startedAt == nil {
		startedAt = &now
	}
	if err := models.UpdateSyncRun(ctx, db, runId, map[string]any{
		"status":     models.SyncRunStatusRunning,
		"started_at": startedAt,
	}); err != nil {
		return err
	}

	client, err := newHubspotClient()
	if err != nil {
		finishedAt := time.Now()
		_ = models.UpdateSyncRun(ctx, db, runId, map[string]any{
			"status":      models.SyncRunStatusFailed,
			"finished_at": finishedAt,
			"duration_ms": finishedAt.Sub(*startedAt).Milliseconds(),
			"error_count": 1,
		})
		_ = models.CreateSyncError(ctx, db, &models.CrmSyncError{
			SyncRunId: runId,
			Action:    "configure",
			Message:   err.Error(),
		})
		return err
	}

	entities := []Entity{
		NewContactEntity(db, client),
		NewDealEntity(db, client),
	}

	stats := make(map[string]entityStats, len(entities))
	recordsSynced := 0
	errorCount := 0
	failedEntities := 0

	for _, ent := range entities {
		resp, err := Sync(ctx, ent, Options{Mode: ModeIncremental})
		if err != nil {
			config.LogError(logger, "hubsync", "ProcessSyncRun", "sync "+ent.Type(), runId, err)
			stats[ent.Type()] = entityStats{Failed: true, Errors: 1}
			errorCount++
			failedEntities++
			_ = models.CreateSyncError(ctx, db, &models.CrmSyncError{
				SyncRunId:  runId,
				EntityType: ent.Type(),
				Action:     "fetch",
				Message:    err.Error(),
			})
			continue
		}

		es := entityStats{
			Total:     resp.Total,
			Unchanged: resp.Partitions.Unchanged,
		}
		if resp.Applied != nil {
			es.Inserted = resp.Applied.Inserted
			es.Updated = resp.Applied.Updated
			es.Skipped = resp.Applied.SkippedInserts
			es.Errors = len(resp.Applied.Errors)
		}
		stats[ent.Type()] = es
		recordsSynced += es.Inserted + es.Updated
		errorCount += es.Errors

		for _, applyErr := range resp.Errors {
			_ = models.CreateSyncError(ctx, db, &models.CrmSyncError{
				SyncRunId:  runId,
				EntityType: ent.Type(),
				HubspotId:  applyErr.HubspotId,
				Action:     applyErr.Action,
				Message:    applyErr.Error,
			})
		}
	}

	finishedAt := time.Now()
	status := models.SyncRunStatusSuccess
	if failedEntities == len(entities) {
		status = models.SyncRunStatusFailed
	} else if errorCount > 0 {
		status = models.SyncRunStatusPartial
	}

	statsJSON, _ := json.Marshal(stats)
	return models.UpdateSyncRun(ctx, db, runId, map[string]any{
		"status":         status,
		"finished_at":    finishedAt,
		"duration_ms":    finishedAt.Sub(*startedAt).Milliseconds(),
		"records_synced": recordsSynced,
		"error_count":    errorCount,
		"stats_json":     statsJSON,
	})
}
