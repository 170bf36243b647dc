package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const (
	SyncRunStatusQueued  = "queued"
	SyncRunStatusRunning = "running"
	SyncRunStatusSuccess = "success"
	SyncRunStatusFailed  = "failed"
	SyncRunStatusPartial = "partial"
)

const (
	SyncTriggeredManual = "manual"
	SyncTriggeredSystem = "system"
)

// CrmSyncRun records one scheduled or manually triggered reconciliation run
// across both entity types.
type CrmSyncRun struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Status        string     `gorm:"size:20;not null" json:"status"`
	TriggeredBy   string     `gorm:"size:20" json:"triggered_by"`
	StatsJSON     []byte     `gorm:"type:jsonb" json:"stats"`
	RecordsSynced int        `json:"records_synced"`
	ErrorCount    int        `json:"error_count"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	DurationMs    int64      `json:"duration_ms"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// CrmSyncError is a per-record apply failure captured during a run.
type CrmSyncError struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SyncRunId  uint      `gorm:"index;not null" json:"sync_run_id"`
	EntityType string    `gorm:"size:50" json:"entity_type"`
	HubspotId  string    `gorm:"size:128" json:"hubspot_id"`
	Action     string    `gorm:"size:64" json:"action"`
	Message    string    `gorm:"type:text" json:"message"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func CreateSyncRun(ctx context.Context, db *gorm.DB, run *CrmSyncRun) error {
	return translateError(db.WithContext(ctx).Create(run).Error)
}

func UpdateSyncRun(ctx context.Context, db *gorm.DB, runId uint, updates map[string]any) error {
	return translateError(db.WithContext(ctx).
		Model(&CrmSyncRun{}).
		Where("id = ?", runId).
		Updates(updates).Error)
}

func GetSyncRun(ctx context.Context, db *gorm.DB, runId uint) (*CrmSyncRun, error) {
	var run CrmSyncRun
	if err := db.WithContext(ctx).Where("id = ?", runId).Take(&run).Error; err != nil {
		return nil, translateError(err)
	}
	return &run, nil
}

func ListSyncRuns(ctx context.Context, db *gorm.DB, limit int) ([]CrmSyncRun, error) {
	var runs []CrmSyncRun
	err := db.WithContext(ctx).Order("id desc").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, translateError(err)
	}
	return runs, nil
}

func CreateSyncError(ctx context.Context, db *gorm.DB, rec *CrmSyncError) error {
	return translateError(db.WithContext(ctx).Create(rec).Error)
}

func ListSyncErrors(ctx context.Context, db *gorm.DB, runId uint) ([]CrmSyncError, error) {
	var errs []CrmSyncError
	err := db.WithContext(ctx).Where("sync_run_id = ?", runId).Order("id desc").Find(&errs).Error
	if err != nil {
		return nil, translateError(err)
	}
	return errs, nil
}
