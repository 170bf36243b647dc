package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Contact mirrors one HubSpot contact. gcid is the internal primary key;
// hubspot_id is the canonical remote identifier and the sync join key.
// hubspot_updated_at exists purely for staleness comparison.
type Contact struct {
	Gcid string `gorm:"column:gcid;type:uuid;primaryKey" json:"gcid"`

	// Core identity
	Firstname         *string          `gorm:"column:firstname;type:text" json:"firstname"`
	Middlename        *string          `gorm:"column:middlename;type:text" json:"middlename"`
	Lastname          *string          `gorm:"column:lastname;type:text" json:"lastname"`
	Salutation        *string          `gorm:"column:salutation;type:text" json:"salutation"`
	Title             *string          `gorm:"column:title;type:text" json:"title"`
	Birthday          *time.Time       `gorm:"column:birthday;type:timestamptz" json:"birthday"`
	Age               *decimal.Decimal `gorm:"column:age;type:numeric" json:"age"`
	RecordType        *string          `gorm:"column:record_type;type:text" json:"record_type"`
	PreferredLanguage *string          `gorm:"column:preferred_language;type:text" json:"preferred_language"`
	Veteran           *bool            `gorm:"column:veteran;type:boolean" json:"veteran"`
	PatientDeceased   *bool            `gorm:"column:patient_deceased;type:boolean" json:"patient_deceased"`
	CreditScore       *decimal.Decimal `gorm:"column:credit_score;type:numeric" json:"credit_score"`
	EmploymentStatus  *string          `gorm:"column:employment_status;type:text" json:"employment_status"`

	// Contact info
	Mobile   *string `gorm:"column:mobile;type:text" json:"mobile"`
	Landline *string `gorm:"column:landline;type:text" json:"landline"`
	Email    *string `gorm:"column:email;type:text" json:"email"`
	Timezone *string `gorm:"column:timezone;type:text" json:"timezone"`

	// Address
	Address1 *string `gorm:"column:address_1;type:text" json:"address_1"`
	Address2 *string `gorm:"column:address_2;type:text" json:"address_2"`
	City     *string `gorm:"column:city;type:text" json:"city"`
	Zip      *string `gorm:"column:zip;type:text" json:"zip"`
	State    *string `gorm:"column:state;type:text" json:"state"`
	Country  *string `gorm:"column:country;type:text" json:"country"`

	// Consent
	ExpressWrittenConsent     *bool      `gorm:"column:express_written_consent;type:boolean" json:"express_written_consent"`
	ExpressWrittenConsentDate *time.Time `gorm:"column:express_written_consent_date;type:timestamptz" json:"express_written_consent_date"`
	HipaaConsent              *bool      `gorm:"column:hipaa_consent;type:boolean" json:"hipaa_consent"`
	HipaaConsentDate          *time.Time `gorm:"column:hipaa_consent_date;type:timestamptz" json:"hipaa_consent_date"`
	SmsOptIn                  *bool      `gorm:"column:sms_opt_in;type:boolean" json:"sms_opt_in"`
	EmailOptIn                *bool      `gorm:"column:email_opt_in;type:boolean" json:"email_opt_in"`

	// Insurance
	InsuranceType                *string    `gorm:"column:insurance_type;type:text" json:"insurance_type"`
	InsuranceCompany             *string    `gorm:"column:insurance_company;type:text" json:"insurance_company"`
	InsuranceCompanyCustom       *string    `gorm:"column:insurance_company_custom;type:text" json:"insurance_company_custom"`
	InsuranceMemberId            *string    `gorm:"column:insurance_member_id;type:text" json:"insurance_member_id"`
	InsuranceGroupId             *string    `gorm:"column:insurance_group_id;type:text" json:"insurance_group_id"`
	InsuranceBenefitAdministrator *string   `gorm:"column:insurance_benefit_administrator;type:text" json:"insurance_benefit_administrator"`
	InsuranceBenefit             *string    `gorm:"column:insurance_benefit;type:text" json:"insurance_benefit"`
	InsuranceBenefitRenewalTime  *time.Time `gorm:"column:insurance_benefit_renewal_time;type:timestamptz" json:"insurance_benefit_renewal_time"`
	VeteranHearingBenefits       *string    `gorm:"column:veteran_hearing_benefits;type:text" json:"veteran_hearing_benefits"`

	// Marketing
	ABTesting                *string          `gorm:"column:a_b_testing;type:text" json:"a_b_testing"`
	EngagementScore          *decimal.Decimal `gorm:"column:engagement_score;type:numeric" json:"engagement_score"`
	EngagementScoreLabel     *string          `gorm:"column:engagement_score_label;type:text" json:"engagement_score_label"`
	IpAddress                *string          `gorm:"column:ip_address;type:text" json:"ip_address"`
	PhoneOs                  *string          `gorm:"column:phone_os;type:text" json:"phone_os"`
	Segment                  *string          `gorm:"column:segment;type:text" json:"segment"`
	OverflowTimeout          *string          `gorm:"column:overflow_timeout;type:text" json:"overflow_timeout"`
	OverflowTimeoutTimestamp *time.Time       `gorm:"column:overflow_timeout_timestamp;type:timestamptz" json:"overflow_timeout_timestamp"`

	// Patient process
	PatientLifecycleStage            *string          `gorm:"column:patient_lifecycle_stage;type:text" json:"patient_lifecycle_stage"`
	InquiryFor                       *string          `gorm:"column:inquiry_for;type:text" json:"inquiry_for"`
	HearingAidExperience             *string          `gorm:"column:hearing_aid_experience;type:text" json:"hearing_aid_experience"`
	TypeOfCurrentHearingAids         *string          `gorm:"column:type_of_current_hearing_aids;type:text" json:"type_of_current_hearing_aids"`
	BrandOfCurrentHearingAids        *string          `gorm:"column:brand_of_current_hearing_aids;type:text" json:"brand_of_current_hearing_aids"`
	TechLevelOfCurrentHearingAids    *string          `gorm:"column:tech_level_of_current_hearing_aids;type:text" json:"tech_level_of_current_hearing_aids"`
	ModelOfCurrentHearingAids        *string          `gorm:"column:model_of_current_hearing_aids;type:text" json:"model_of_current_hearing_aids"`
	PurchaseDateOfCurrentHearingAids *time.Time       `gorm:"column:purchase_date_of_current_hearing_aids;type:timestamptz" json:"purchase_date_of_current_hearing_aids"`
	WearingTimeOfCurrentHearingAids  *decimal.Decimal `gorm:"column:wearing_time_of_current_hearing_aids;type:numeric" json:"wearing_time_of_current_hearing_aids"`
	Tinnitus                         *string          `gorm:"column:tinnitus;type:text" json:"tinnitus"`
	MainMotivation                   *string          `gorm:"column:main_motivation;type:text" json:"main_motivation"`
	MotivationDetails                *string          `gorm:"column:motivation_details;type:text" json:"motivation_details"`
	RightLoss                        *string          `gorm:"column:right_loss;type:text" json:"right_loss"`
	LeftLoss                         *string          `gorm:"column:left_loss;type:text" json:"left_loss"`

	// Tech
	TestFlag *bool   `gorm:"column:test_flag;type:boolean" json:"test_flag"`
	SunoId   *string `gorm:"column:suno_id;type:text" json:"suno_id"`
	SycleId  *string `gorm:"column:sycle_id;type:text" json:"sycle_id"`

	// HubSpot sync
	HubspotId             *string    `gorm:"column:hubspot_id;type:text;uniqueIndex" json:"hubspot_id"`
	HubspotCreatedAt      *time.Time `gorm:"column:hubspot_created_at;type:timestamptz" json:"hubspot_created_at"`
	HubspotUpdatedAt      *time.Time `gorm:"column:hubspot_updated_at;type:timestamptz;index" json:"hubspot_updated_at"`
	HubspotCreatedByUserId *string   `gorm:"column:hubspot_created_by_user_id;type:text" json:"hubspot_created_by_user_id"`
	HubspotUpdatedByUserId *string   `gorm:"column:hubspot_updated_by_user_id;type:text" json:"hubspot_updated_by_user_id"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// contactCasts enumerates every writable contacts column and its SQL cast.
// Columns absent here are never written by the sync path.
var contactCasts = map[string]ColumnType{
	"gcid": ColUUID,

	"firstname":          ColString,
	"middlename":         ColString,
	"lastname":           ColString,
	"salutation":         ColString,
	"title":              ColString,
	"birthday":           ColTimestamp,
	"age":                ColNumeric,
	"record_type":        ColString,
	"preferred_language": ColString,
	"veteran":            ColBool,
	"patient_deceased":   ColBool,
	"credit_score":       ColNumeric,
	"employment_status":  ColString,

	"mobile":   ColString,
	"landline": ColString,
	"email":    ColString,
	"timezone": ColString,

	"address_1": ColString,
	"address_2": ColString,
	"city":      ColString,
	"zip":       ColString,
	"state":     ColString,
	"country":   ColString,

	"express_written_consent":      ColBool,
	"express_written_consent_date": ColTimestamp,
	"hipaa_consent":                ColBool,
	"hipaa_consent_date":           ColTimestamp,
	"sms_opt_in":                   ColBool,
	"email_opt_in":                 ColBool,

	"insurance_type":                  ColString,
	"insurance_company":               ColString,
	"insurance_company_custom":        ColString,
	"insurance_member_id":             ColString,
	"insurance_group_id":              ColString,
	"insurance_benefit_administrator": ColString,
	"insurance_benefit":               ColString,
	"insurance_benefit_renewal_time":  ColTimestamp,
	"veteran_hearing_benefits":        ColString,

	"a_b_testing":                ColString,
	"engagement_score":           ColNumeric,
	"engagement_score_label":     ColString,
	"ip_address":                 ColString,
	"phone_os":                   ColString,
	"segment":                    ColString,
	"overflow_timeout":           ColString,
	"overflow_timeout_timestamp": ColTimestamp,

	"patient_lifecycle_stage":               ColString,
	"inquiry_for":                           ColString,
	"hearing_aid_experience":                ColString,
	"type_of_current_hearing_aids":          ColString,
	"brand_of_current_hearing_aids":         ColString,
	"tech_level_of_current_hearing_aids":    ColString,
	"model_of_current_hearing_aids":         ColString,
	"purchase_date_of_current_hearing_aids": ColTimestamp,
	"wearing_time_of_current_hearing_aids":  ColNumeric,
	"tinnitus":                              ColString,
	"main_motivation":                       ColString,
	"motivation_details":                    ColString,
	"right_loss":                            ColString,
	"left_loss":                             ColString,

	"test_flag": ColBool,
	"suno_id":   ColString,
	"sycle_id":  ColString,

	"hubspot_id":                 ColString,
	"hubspot_created_at":         ColTimestamp,
	"hubspot_updated_at":         ColTimestamp,
	"hubspot_created_by_user_id": ColString,
	"hubspot_updated_by_user_id": ColString,
}

// SyncState is a (canonical id, staleness timestamp) pair fetched for
// partitioning. The timestamp pointer is nil when the column is NULL.
type SyncState struct {
	HubspotId        string     `gorm:"column:hubspot_id"`
	HubspotUpdatedAt *time.Time `gorm:"column:hubspot_updated_at"`
}

// RemoteRef pairs a local row key with its remote identifier, for deletion
// reconciliation.
type RemoteRef struct {
	LocalKey  string
	HubspotId string
}

func InsertContact(ctx context.Context, db *gorm.DB, row map[string]any) error {
	values := normalizeRow(contactCasts, row)
	if values["gcid"] == nil {
		values["gcid"] = uuid.NewString()
	}
	err := db.WithContext(ctx).Model(&Contact{}).Create(values).Error
	return translateError(err)
}

func UpdateContactByHubspotId(ctx context.Context, db *gorm.DB, hubspotId string, patch map[string]any) (bool, error) {
	values := normalizeRow(contactCasts, patch)
	delete(values, "gcid")
	tx := db.WithContext(ctx).Model(&Contact{}).
		Where("hubspot_id = ?", hubspotId).
		Updates(values)
	if tx.Error != nil {
		return false, translateError(tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

func UpdateContactByGcid(ctx context.Context, db *gorm.DB, gcid string, patch map[string]any) (bool, error) {
	values := normalizeRow(contactCasts, patch)
	delete(values, "gcid")
	tx := db.WithContext(ctx).Model(&Contact{}).
		Where("gcid = ?", gcid).
		Updates(values)
	if tx.Error != nil {
		return false, translateError(tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

func GetContactByGcid(ctx context.Context, db *gorm.DB, gcid string) (*Contact, error) {
	var contact Contact
	if err := db.WithContext(ctx).Where("gcid = ?", gcid).Take(&contact).Error; err != nil {
		return nil, translateError(err)
	}
	return &contact, nil
}

func GetContactByHubspotId(ctx context.Context, db *gorm.DB, hubspotId string) (*Contact, error) {
	var contact Contact
	if err := db.WithContext(ctx).Where("hubspot_id = ?", hubspotId).Take(&contact).Error; err != nil {
		return nil, translateError(err)
	}
	return &contact, nil
}

// GetContactByEither resolves an id that is either an internal gcid (uuid)
// or a HubSpot id (numeric string).
func GetContactByEither(ctx context.Context, db *gorm.DB, id string) (*Contact, error) {
	if _, err := uuid.Parse(id); err == nil {
		return GetContactByGcid(ctx, db, id)
	}
	return GetContactByHubspotId(ctx, db, id)
}

// ContactSyncStates retrieves only (hubspot_id, hubspot_updated_at) for the
// given fetched id set.
func ContactSyncStates(ctx context.Context, db *gorm.DB, hubspotIds []string) ([]SyncState, error) {
	var states []SyncState
	err := db.WithContext(ctx).Model(&Contact{}).
		Select("hubspot_id", "hubspot_updated_at").
		Where("hubspot_id IN ?", hubspotIds).
		Find(&states).Error
	if err != nil {
		return nil, translateError(err)
	}
	return states, nil
}

// ContactRemoteRefs loads the full mirror: every row holding a remote id.
func ContactRemoteRefs(ctx context.Context, db *gorm.DB) ([]RemoteRef, error) {
	var rows []struct {
		Gcid      string  `gorm:"column:gcid"`
		HubspotId *string `gorm:"column:hubspot_id"`
	}
	err := db.WithContext(ctx).Model(&Contact{}).
		Select("gcid", "hubspot_id").
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
		refs = append(refs, RemoteRef{LocalKey: r.Gcid, HubspotId: *r.HubspotId})
	}
	return refs, nil
}

func DeleteContactsByGcids(ctx context.Context, db *gorm.DB, gcids []string) (int64, error) {
	if len(gcids) == 0 {
		return 0, nil
	}
	tx := db.WithContext(ctx).Where("gcid IN ?", gcids).Delete(&Contact{})
	if tx.Error != nil {
		return 0, translateError(tx.Error)
	}
	return tx.RowsAffected, nil
}
