package hubsync

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hellohearing/crm_backend/models"
)

// ErrNoReachableChannel marks a contact that cannot be inserted because it
// carries no phone number or email. Such records are skipped, not errored.
var ErrNoReachableChannel = errors.New("contact has no mobile, landline, or email")

// contactMappings binds contacts columns to remote property names. Most
// columns share their property name; the sync bookkeeping columns are
// renamed on the way in.
var contactMappings = []fieldMapping{
	{Column: "gcid", Sources: []string{"gcid"}},

	{Column: "firstname", Sources: []string{"firstname"}},
	{Column: "middlename", Sources: []string{"middlename"}},
	{Column: "lastname", Sources: []string{"lastname"}},
	{Column: "salutation", Sources: []string{"salutation"}},
	{Column: "title", Sources: []string{"title"}},
	{Column: "birthday", Sources: []string{"birthday"}},
	{Column: "age", Sources: []string{"age"}},
	{Column: "record_type", Sources: []string{"record_type"}},
	{Column: "preferred_language", Sources: []string{"preferred_language"}},
	{Column: "veteran", Sources: []string{"veteran"}},
	{Column: "patient_deceased", Sources: []string{"patient_deceased"}},
	{Column: "credit_score", Sources: []string{"credit_score"}},
	{Column: "employment_status", Sources: []string{"employment_status"}},

	{Column: "mobile", Sources: []string{"mobile"}},
	{Column: "landline", Sources: []string{"landline"}},
	{Column: "email", Sources: []string{"email"}},
	{Column: "timezone", Sources: []string{"timezone"}},

	{Column: "address_1", Sources: []string{"address_1"}},
	{Column: "address_2", Sources: []string{"address_2"}},
	{Column: "city", Sources: []string{"city"}},
	{Column: "zip", Sources: []string{"zip"}},
	{Column: "state", Sources: []string{"state"}},
	{Column: "country", Sources: []string{"country"}},

	{Column: "express_written_consent", Sources: []string{"express_written_consent"}},
	{Column: "express_written_consent_date", Sources: []string{"express_written_consent_date"}},
	{Column: "hipaa_consent", Sources: []string{"hipaa_consent"}},
	{Column: "hipaa_consent_date", Sources: []string{"hipaa_consent_date"}},
	{Column: "sms_opt_in", Sources: []string{"sms_opt_in"}},
	{Column: "email_opt_in", Sources: []string{"email_opt_in"}},

	{Column: "insurance_type", Sources: []string{"insurance_type"}},
	{Column: "insurance_company", Sources: []string{"insurance_company"}},
	{Column: "insurance_company_custom", Sources: []string{"insurance_company_custom"}},
	{Column: "insurance_member_id", Sources: []string{"insurance_member_id"}},
	{Column: "insurance_group_id", Sources: []string{"insurance_group_id"}},
	{Column: "insurance_benefit_administrator", Sources: []string{"insurance_benefit_administrator"}},
	{Column: "insurance_benefit", Sources: []string{"insurance_benefit"}},
	{Column: "insurance_benefit_renewal_time", Sources: []string{"insurance_benefit_renewal_time"}},
	{Column: "veteran_hearing_benefits", Sources: []string{"veteran_hearing_benefits"}},

	{Column: "a_b_testing", Sources: []string{"a_b_testing"}},
	{Column: "engagement_score", Sources: []string{"engagement_score"}},
	{Column: "engagement_score_label", Sources: []string{"engagement_score_label"}},
	{Column: "ip_address", Sources: []string{"ip_address"}},
	{Column: "phone_os", Sources: []string{"phone_os"}},
	{Column: "segment", Sources: []string{"segment"}},

	{Column: "patient_lifecycle_stage", Sources: []string{"patient_lifecycle_stage"}},
	{Column: "inquiry_for", Sources: []string{"inquiry_for"}},
	{Column: "hearing_aid_experience", Sources: []string{"hearing_aid_experience"}},
	{Column: "type_of_current_hearing_aids", Sources: []string{"type_of_current_hearing_aids"}},
	{Column: "brand_of_current_hearing_aids", Sources: []string{"brand_of_current_hearing_aids"}},
	{Column: "tech_level_of_current_hearing_aids", Sources: []string{"tech_level_of_current_hearing_aids"}},
	{Column: "model_of_current_hearing_aids", Sources: []string{"model_of_current_hearing_aids"}},
	{Column: "purchase_date_of_current_hearing_aids", Sources: []string{"purchase_date_of_current_hearing_aids"}},
	{Column: "wearing_time_of_current_hearing_aids", Sources: []string{"wearing_time_of_current_hearing_aids"}},
	{Column: "tinnitus", Sources: []string{"tinnitus"}},
	{Column: "main_motivation", Sources: []string{"main_motivation"}},
	{Column: "motivation_details", Sources: []string{"motivation_details"}},
	{Column: "right_loss", Sources: []string{"right_loss"}},
	{Column: "left_loss", Sources: []string{"left_loss"}},

	{Column: "test_flag", Sources: []string{"test_flag"}},
	{Column: "suno_id", Sources: []string{"suno_id"}},
	{Column: "sycle_id", Sources: []string{"sycle_id"}},

	{Column: "hubspot_created_at", Sources: []string{"createdate"}},
	{Column: "hubspot_updated_at", Sources: []string{"lastmodifieddate"}},
	{Column: "hubspot_created_by_user_id", Sources: []string{"hs_created_by_user_id"}},
	{Column: "hubspot_updated_by_user_id", Sources: []string{"hs_updated_by_user_id"}},
}

var contactFetchSpec = fetchSpec{
	objectType:       "contacts",
	modifiedProperty: "lastmodifieddate",
	sortProperty:     "createdate",
	sortDirection:    "ASCENDING",
	properties:       sourceProperties(contactMappings),
}

type contactEntity struct {
	db     *gorm.DB
	client *hubspotClient
}

// NewContactEntity wires the contacts mirror to the remote contacts object.
func NewContactEntity(db *gorm.DB, client *hubspotClient) Entity {
	return &contactEntity{db: db, client: client}
}

func (e *contactEntity) Type() string { return "contacts" }

func (e *contactEntity) FetchRecent(ctx context.Context, opts FetchOptions) (FetchResult, error) {
	return e.client.fetchRecent(ctx, contactFetchSpec, opts)
}

func (e *contactEntity) RemoteUpdatedAt(rec RemoteRecord) *time.Time {
	return remoteTimestamp(rec, "lastmodifieddate")
}

func (e *contactEntity) ListRemoteIds(ctx context.Context, pageSize int) (map[string]struct{}, error) {
	return e.client.listAllIds(ctx, "contacts", pageSize)
}

func (e *contactEntity) LocalSyncStates(ctx context.Context, hubspotIds []string) (map[string]*time.Time, error) {
	states, err := models.ContactSyncStates(ctx, e.db, hubspotIds)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*time.Time, len(states))
	for _, s := range states {
		out[s.HubspotId] = s.HubspotUpdatedAt
	}
	return out, nil
}

func (e *contactEntity) MapRow(rec RemoteRecord) map[string]any {
	return mapRecord(contactMappings, rec)
}

// ValidateInsert requires at least one reachable channel. Updates are never
// gated on this.
func (e *contactEntity) ValidateInsert(row map[string]any) error {
	if row["mobile"] == nil && row["landline"] == nil && row["email"] == nil {
		return ErrNoReachableChannel
	}
	return nil
}

func (e *contactEntity) Insert(ctx context.Context, row map[string]any) error {
	return models.InsertContact(ctx, e.db, row)
}

func (e *contactEntity) UpdateByHubspotId(ctx context.Context, hubspotId string, row map[string]any) (bool, error) {
	return models.UpdateContactByHubspotId(ctx, e.db, hubspotId, row)
}

// UpdateByFallbackKey retries by gcid: a conflicted insert may have collided
// on the gcid primary key rather than on hubspot_id.
func (e *contactEntity) UpdateByFallbackKey(ctx context.Context, row map[string]any) (bool, error) {
	gcid, ok := row["gcid"].(string)
	if !ok || gcid == "" {
		return false, nil
	}
	return models.UpdateContactByGcid(ctx, e.db, gcid, row)
}

func (e *contactEntity) LocalRemoteRefs(ctx context.Context) ([]RemoteRef, error) {
	refs, err := models.ContactRemoteRefs(ctx, e.db)
	if err != nil {
		return nil, err
	}
	out := make([]RemoteRef, len(refs))
	for i, r := range refs {
		out[i] = RemoteRef{LocalKey: r.LocalKey, HubspotId: r.HubspotId}
	}
	return out, nil
}

func (e *contactEntity) DeleteByLocalKeys(ctx context.Context, keys []string) (int64, error) {
	return models.DeleteContactsByGcids(ctx, e.db, keys)
}
