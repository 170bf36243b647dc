package hubsync

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hellohearing/crm_backend/models"
)

// dealMappings binds deals columns to remote property names. Two columns
// carry a legacy alias: the renamed property is preferred, the old name is
// read when the new one is empty.
var dealMappings = []fieldMapping{
	{Column: "dealname", Sources: []string{"dealname"}},
	{Column: "dealtype", Sources: []string{"dealtype"}},
	{Column: "dealstage", Sources: []string{"dealstage"}},
	{Column: "closing_reason", Sources: []string{"closing_reason"}},
	{Column: "closedate", Sources: []string{"closedate"}},
	{Column: "expected_revenue", Sources: []string{"expected_revenue"}},
	{Column: "notes", Sources: []string{"notes"}},

	{Column: "utm_campaign", Sources: []string{"utm_campaign"}},
	{Column: "utm_medium", Sources: []string{"utm_medium"}},
	{Column: "utm_source", Sources: []string{"utm_source"}},
	{Column: "source_id", Sources: []string{"creation_source_id"}},

	{Column: "owner_id", Sources: []string{"owner_id"}},
	{Column: "contact_gcid", Sources: []string{"contact_gcid"}},
	{Column: "fitter_id", Sources: []string{"fitter_id"}},

	{Column: "type_of_future_hearing_aids", Sources: []string{"type_of_future_hearing_aids"}},
	{Column: "tech_level_future_hearing_aids", Sources: []string{"tech_level_future_hearing_aids", "tech_level_future_hearing_aid_fitted"}},
	{Column: "brand_hearing_aid_fitted", Sources: []string{"brand_hearing_aid_fitted"}},
	{Column: "tech_level_hearing_aid_fitted", Sources: []string{"tech_level_hearing_aid_fitted"}},
	{Column: "style_hearing_aid_fitted", Sources: []string{"style_hearing_aid_fitted"}},
	{Column: "cross_hearing_aid", Sources: []string{"cross_hearing_aid"}},
	{Column: "full_name_of_hearing_aid", Sources: []string{"full_name_of_hearing_aid"}},

	{Column: "list_price", Sources: []string{"list_price"}},
	{Column: "final_price", Sources: []string{"final_price"}},
	{Column: "balance_paid", Sources: []string{"balance_paid"}},
	{Column: "financing_details", Sources: []string{"financing_details"}},
	{Column: "purchase_date", Sources: []string{"purchase_date"}},

	{Column: "why_now", Sources: []string{"why_now"}},
	{Column: "main_motivation", Sources: []string{"main_motivation"}},
	{Column: "currently_using_hearing_aids", Sources: []string{"currently_using_hearing_aids"}},
	{Column: "how_soon", Sources: []string{"how_soon"}},
	{Column: "recent_hearing_test", Sources: []string{"recent_hearing_test", "recent_hearing_tes"}},

	{Column: "hubspot_owner_id", Sources: []string{"hubspot_owner_id"}},
	{Column: "hubspot_created_at", Sources: []string{"createdate"}},
	{Column: "hubspot_updated_at", Sources: []string{"hs_lastmodifieddate"}},
	{Column: "hubspot_created_by_user_id", Sources: []string{"hs_created_by_user_id"}},
	{Column: "hubspot_updated_by_user_id", Sources: []string{"hs_updated_by_user_id"}},
}

var dealFetchSpec = fetchSpec{
	objectType:       "deals",
	modifiedProperty: "hs_lastmodifieddate",
	sortProperty:     "hs_lastmodifieddate",
	sortDirection:    "ASCENDING",
	properties:       sourceProperties(dealMappings),
}

type dealEntity struct {
	db     *gorm.DB
	client *hubspotClient
}

// NewDealEntity wires the deals mirror to the remote deals object.
func NewDealEntity(db *gorm.DB, client *hubspotClient) Entity {
	return &dealEntity{db: db, client: client}
}

func (e *dealEntity) Type() string { return "deals" }

func (e *dealEntity) FetchRecent(ctx context.Context, opts FetchOptions) (FetchResult, error) {
	return e.client.fetchRecent(ctx, dealFetchSpec, opts)
}

func (e *dealEntity) RemoteUpdatedAt(rec RemoteRecord) *time.Time {
	return remoteTimestamp(rec, "hs_lastmodifieddate")
}

func (e *dealEntity) ListRemoteIds(ctx context.Context, pageSize int) (map[string]struct{}, error) {
	return e.client.listAllIds(ctx, "deals", pageSize)
}

func (e *dealEntity) LocalSyncStates(ctx context.Context, hubspotIds []string) (map[string]*time.Time, error) {
	states, err := models.DealSyncStates(ctx, e.db, hubspotIds)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*time.Time, len(states))
	for _, s := range states {
		out[s.HubspotId] = s.HubspotUpdatedAt
	}
	return out, nil
}

func (e *dealEntity) MapRow(rec RemoteRecord) map[string]any {
	return mapRecord(dealMappings, rec)
}

// ValidateInsert accepts every deal carrying its canonical id; a missing
// contact link is allowed and lands as NULL.
func (e *dealEntity) ValidateInsert(row map[string]any) error {
	return nil
}

func (e *dealEntity) Insert(ctx context.Context, row map[string]any) error {
	return models.InsertDeal(ctx, e.db, row)
}

func (e *dealEntity) UpdateByHubspotId(ctx context.Context, hubspotId string, row map[string]any) (bool, error) {
	return models.UpdateDealByHubspotId(ctx, e.db, hubspotId, row)
}

// Deals have no secondary sync key.
func (e *dealEntity) UpdateByFallbackKey(ctx context.Context, row map[string]any) (bool, error) {
	return false, nil
}

func (e *dealEntity) LocalRemoteRefs(ctx context.Context) ([]RemoteRef, error) {
	refs, err := models.DealRemoteRefs(ctx, e.db)
	if err != nil {
		return nil, err
	}
	out := make([]RemoteRef, len(refs))
	for i, r := range refs {
		out[i] = RemoteRef{LocalKey: r.LocalKey, HubspotId: r.HubspotId}
	}
	return out, nil
}

func (e *dealEntity) DeleteByLocalKeys(ctx context.Context, keys []string) (int64, error) {
	return models.DeleteDealsByIds(ctx, e.db, keys)
}
