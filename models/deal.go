package models

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Deal mirrors one HubSpot deal. Unlike contacts, the primary key is a
// plain serial; hubspot_id is the canonical remote identifier.
type Deal struct {
	ID int `gorm:"column:id;primaryKey;autoIncrement" json:"id"`

	// Core deal
	Dealname       *string          `gorm:"column:dealname;type:text" json:"dealname"`
	Dealtype       *string          `gorm:"column:dealtype;type:text" json:"dealtype"`
	Dealstage      *string          `gorm:"column:dealstage;type:text" json:"dealstage"`
	ClosingReason  *string          `gorm:"column:closing_reason;type:text" json:"closing_reason"`
	Closedate      *time.Time       `gorm:"column:closedate;type:timestamptz" json:"closedate"`
	ExpectedRevenue *decimal.Decimal `gorm:"column:expected_revenue;type:numeric" json:"expected_revenue"`
	Notes          *string          `gorm:"column:notes;type:text" json:"notes"`

	// Marketing / source
	UtmCampaign *string `gorm:"column:utm_campaign;type:text" json:"utm_campaign"`
	UtmMedium   *string `gorm:"column:utm_medium;type:text" json:"utm_medium"`
	UtmSource   *string `gorm:"column:utm_source;type:text" json:"utm_source"`
	SourceId    *string `gorm:"column:source_id;type:text" json:"source_id"`

	// Links
	OwnerId     *int    `gorm:"column:owner_id;type:int" json:"owner_id"`
	ContactGcid *string `gorm:"column:contact_gcid;type:uuid" json:"contact_gcid"`
	FitterId    *int    `gorm:"column:fitter_id;type:int" json:"fitter_id"`

	// Hearing-aid details
	TypeOfFutureHearingAids    *string `gorm:"column:type_of_future_hearing_aids;type:text" json:"type_of_future_hearing_aids"`
	TechLevelFutureHearingAids *string `gorm:"column:tech_level_future_hearing_aids;type:text" json:"tech_level_future_hearing_aids"`
	BrandHearingAidFitted      *string `gorm:"column:brand_hearing_aid_fitted;type:text" json:"brand_hearing_aid_fitted"`
	TechLevelHearingAidFitted  *string `gorm:"column:tech_level_hearing_aid_fitted;type:text" json:"tech_level_hearing_aid_fitted"`
	StyleHearingAidFitted      *string `gorm:"column:style_hearing_aid_fitted;type:text" json:"style_hearing_aid_fitted"`
	CrossHearingAid            *string `gorm:"column:cross_hearing_aid;type:text" json:"cross_hearing_aid"`
	FullNameOfHearingAid       *string `gorm:"column:full_name_of_hearing_aid;type:text" json:"full_name_of_hearing_aid"`

	// Money & dates
	ListPrice        *decimal.Decimal `gorm:"column:list_price;type:numeric" json:"list_price"`
	FinalPrice       *decimal.Decimal `gorm:"column:final_price;type:numeric" json:"final_price"`
	BalancePaid      *bool            `gorm:"column:balance_paid;type:boolean" json:"balance_paid"`
	FinancingDetails *string          `gorm:"column:financing_details;type:text" json:"financing_details"`
	PurchaseDate     *time.Time       `gorm:"column:purchase_date;type:date" json:"purchase_date"`

	// Context
	WhyNow                    *string `gorm:"column:why_now;type:text" json:"why_now"`
	MainMotivation            *string `gorm:"column:main_motivation;type:text" json:"main_motivation"`
	CurrentlyUsingHearingAids *string `gorm:"column:currently_using_hearing_aids;type:text" json:"currently_using_hearing_aids"`
	HowSoon                   *string `gorm:"column:how_soon;type:text" json:"how_soon"`
	RecentHearingTest         *string `gorm:"column:recent_hearing_test;type:text" json:"recent_hearing_test"`

	// HubSpot sync
	HubspotId             *string    `gorm:"column:hubspot_id;type:text;uniqueIndex" json:"hubspot_id"`
	HubspotOwnerId        *string    `gorm:"column:hubspot_owner_id;type:text" json:"hubspot_owner_id"`
	HubspotCreatedAt      *time.Time `gorm:"column:hubspot_created_at;type:timestamptz" json:"hubspot_created_at"`
	HubspotUpdatedAt      *time.Time `gorm:"column:hubspot_updated_at;type:timestamptz;index" json:"hubspot_updated_at"`
	HubspotCreatedByUserId *string   `gorm:"column:hubspot_created_by_user_id;type:text" json:"hubspot_created_by_user_id"`
	HubspotUpdatedByUserId *string   `gorm:"column:hubspot_updated_by_user_id;type:text" json:"hubspot_updated_by_user_id"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

var dealCasts = map[string]ColumnType{
	"dealname":         ColString,
	"dealtype":         ColString,
	"dealstage":        ColString,
	"closing_reason":   ColString,
	"closedate":        ColTimestamp,
	"expected_revenue": ColNumeric,
	"notes":            ColString,

	"utm_campaign": ColString,
	"utm_medium":   ColString,
	"utm_source":   ColString,
	"source_id":    ColString,

	"owner_id":     ColInt,
	"contact_gcid": ColUUID,
	"fitter_id":    ColInt,

	"type_of_future_hearing_aids":    ColString,
	"tech_level_future_hearing_aids": ColString,
	"brand_hearing_aid_fitted":       ColString,
	"tech_level_hearing_aid_fitted":  ColString,
	"style_hearing_aid_fitted":       ColString,
	"cross_hearing_aid":              ColString,
	"full_name_of_hearing_aid":       ColString,

	"list_price":        ColNumeric,
	"final_price":       ColNumeric,
	"balance_paid":      ColBool,
	"financing_details": ColString,
	"purchase_date":     ColDate,

	"why_now":                      ColString,
	"main_motivation":              ColString,
	"currently_using_hearing_aids": ColString,
	"how_soon":                     ColString,
	"recent_hearing_test":          ColString,

	"hubspot_id":                 ColString,
	"hubspot_owner_id":           ColString,
	"hubspot_created_at":         ColTimestamp,
	"hubspot_updated_at":         ColTimestamp,
	"hubspot_created_by_user_id": ColString,
	"hubspot_updated_by_user_id": ColString,
}

func InsertDeal(ctx context.Context, db *gorm.DB, row map[string]any) error {
	values := normalizeRow(dealCasts, row)
	err := db.WithContext(ctx).Model(&Deal{}).Create(values).Error
	return translateError(err)
}

func UpdateDealByHubspotId(ctx context.Context, db *gorm.DB, hubspotId string, patch map[string]any) (bool, error) {
	values := normalizeRow(dealCasts, patch)
	tx := db.WithContext(ctx).Model(&Deal{}).
		Where("hubspot_id = ?", hubspotId).
		Updates(values)
	if tx.Error != nil {
		return false, translateError(tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

func GetDealByHubspotId(ctx context.Context, db *gorm.DB, hubspotId string) (*Deal, error) {
	var deal Deal
	if err := db.WithContext(ctx).Where("hubspot_id = ?", hubspotId).Take(&deal).Error; err != nil {
		return nil, translateError(err)
	}
	return &deal, nil
}

// ListDeals returns every mirrored deal, newest first.
func ListDeals(ctx context.Context, db *gorm.DB) ([]Deal, error) {
	var deals []Deal
	err := db.WithContext(ctx).Order("created_at DESC").Find(&deals).Error
	if err != nil {
		return nil, translateError(err)
	}
	return deals, nil
}

func DealSyncStates(ctx context.Context, db *gorm.DB, hubspotIds []string) ([]SyncState, error) {
	var states []SyncState
	err := db.WithContext(ctx).Model(&Deal{}).
		Select("hubspot_id", "hubspot_updated_at").
		Where("hubspot_id IN ?", hubspotIds).
		Find(&states).Error
	if err != nil {
		return nil, translateError(err)
	}
	return states, nil
}

func DealRemoteRefs(ctx context.Context, db *gorm.DB) ([]RemoteRef, error) {
	var rows []struct {
		ID        int     `gorm:"column:id"`
		HubspotId *string `gorm:"column:hubspot_id"`
	}
	err := db.WithContext(ctx).Model(&Deal{}).
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

func DeleteDealsByIds(ctx context.Context, db *gorm.DB, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := db.WithContext(ctx).Where("id IN ?", ids).Delete(&Deal{})
	if tx.Error != nil {
		return 0, translateError(tx.Error)
	}
	return tx.RowsAffected, nil
}
