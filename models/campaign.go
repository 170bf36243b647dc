package models

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Campaign struct {
	ID          int       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"column:name;type:text;uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"column:description;type:text" json:"description"`
	DealType    *string   `gorm:"column:deal_type;type:text" json:"deal_type"`
	UtmSource   string    `gorm:"column:utm_source;type:text;not null" json:"utm_source"`
	UtmCampaign string    `gorm:"column:utm_campaign;type:text;not null" json:"utm_campaign"`
	UtmMedium   string    `gorm:"column:utm_medium;type:text;not null" json:"utm_medium"`
	Variation   *string   `gorm:"column:variation;type:text" json:"variation"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// UpsertCampaign inserts or, when the name already exists, overwrites every
// non-key column of the existing row.
func UpsertCampaign(ctx context.Context, db *gorm.DB, campaign *Campaign) (*Campaign, error) {
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"description", "deal_type", "utm_source", "utm_campaign", "utm_medium", "variation", "updated_at",
			}),
		}).
		Create(campaign).Error
	if err != nil {
		return nil, translateError(err)
	}

	var saved Campaign
	if err := db.WithContext(ctx).Where("name = ?", campaign.Name).Take(&saved).Error; err != nil {
		return nil, translateError(err)
	}
	return &saved, nil
}

// DeleteCampaignByName reports whether a row was actually removed.
func DeleteCampaignByName(ctx context.Context, db *gorm.DB, name string) (bool, error) {
	tx := db.WithContext(ctx).Where("name = ?", name).Delete(&Campaign{})
	if tx.Error != nil {
		return false, translateError(tx.Error)
	}
	return tx.RowsAffected > 0, nil
}
