package models

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Appointment is a minimal mirror row. Appointments are written by another
// service; this one only reads them for the census diff report.
type Appointment struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	HubspotId *string   `gorm:"column:hubspot_id;type:text;uniqueIndex" json:"hubspot_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func AppointmentRemoteRefs(ctx context.Context, db *gorm.DB) ([]RemoteRef, error) {
	var rows []struct {
		ID        int     `gorm:"column:id"`
		HubspotId *string `gorm:"column:hubspot_id"`
	}
	err := db.WithContext(ctx).Model(&Appointment{}).
		Select("id", "hubspot_id").
		Where("hubspot_id IS NOT NULL").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	refs := make([]RemoteRef, 0, len(rows))
	for _, r := range rows {
		if r.HubspotId == nil {
			continue
		}
		refs = append(refs, RemoteRef{LocalKey: strconv.Itoa(r.ID), HubspotId: *r.HubspotId})
	}
	return refs, nil
}
