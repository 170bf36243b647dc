package hubsync

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hellohearing/crm_backend/config"
	"github.com/hellohearing/crm_backend/models"
	"github.com/hellohearing/crm_backend/utils"
)

// parseSyncOptions reads the shared sync query parameters. Every parameter
// is optional; malformed numbers fall back to defaults rather than erroring.
func parseSyncOptions(c *gin.Context) Options {
	opts := Options{Mode: ModeIncremental}

	if v := strings.TrimSpace(c.Query("hours")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Fetch.WindowHours = n
		}
	}
	if v := strings.TrimSpace(c.Query("overlapMinutes")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Fetch.OverlapMinutes = n
		}
	}
	if v := strings.TrimSpace(c.Query("pageSize")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Fetch.PageSize = n
		}
	}
	if strings.EqualFold(strings.TrimSpace(c.Query("dryrun")), "true") {
		opts.DryRun = true
	}
	if strings.EqualFold(strings.TrimSpace(c.Query("mode")), string(ModeForce)) {
		opts.Mode = ModeForce
	}
	return opts
}

func respondSyncError(c *gin.Context, err error) {
	var remoteErr *RemoteError
	switch {
	case errors.Is(err, ErrMissingToken):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case errors.As(err, &remoteErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func buildEntity(c *gin.Context, entityType string) (Entity, bool) {
	client, err := newHubspotClient()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not ready"})
		return nil, false
	}
	if entityType == "contacts" {
		return NewContactEntity(db, client), true
	}
	return NewDealEntity(db, client), true
}

// SyncHandler runs one windowed reconciliation for the given entity type.
func SyncHandler(entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ent, ok := buildEntity(c, entityType)
		if !ok {
			return
		}

		resp, err := Sync(c.Request.Context(), ent, parseSyncOptions(c))
		if err != nil {
			respondSyncError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// DeleteMissingHandler removes local rows whose remote object is gone.
func DeleteMissingHandler(entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ent, ok := buildEntity(c, entityType)
		if !ok {
			return
		}

		result, err := ReconcileDeletions(c.Request.Context(), ent)
		if err != nil {
			respondSyncError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// GetContactHandler resolves a contact by gcid or by HubSpot id.
func GetContactHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Param("id"))
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing id"})
			return
		}

		db := config.GetDB()
		contact, err := models.GetContactByEither(c.Request.Context(), db, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, contact)
	}
}

// ListDealsHandler returns every mirrored deal, newest first.
func ListDealsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		db := config.GetDB()
		deals, err := models.ListDeals(c.Request.Context(), db)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(deals), "results": deals})
	}
}

type hubspotDealView struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
}

// DealsHubspotHandler previews the raw remote window, newest first, without
// touching the local store.
func DealsHubspotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		client, err := newHubspotClient()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		opts := parseSyncOptions(c)
		fetched, err := client.fetchRecent(c.Request.Context(), dealFetchSpec, opts.Fetch)
		if err != nil {
			respondSyncError(c, err)
			return
		}

		results := make([]hubspotDealView, len(fetched.Records))
		for i, rec := range fetched.Records {
			results[i] = hubspotDealView{ID: rec.ID, Properties: rec.Properties}
		}
		sortDealsByModifiedDesc(results)

		c.JSON(http.StatusOK, gin.H{
			"since":   fetched.Since,
			"pages":   fetched.Pages,
			"count":   len(results),
			"results": results,
		})
	}
}

func sortDealsByModifiedDesc(views []hubspotDealView) {
	ts := func(v hubspotDealView) int64 {
		t := remoteTimestamp(RemoteRecord{ID: v.ID, Properties: v.Properties}, "hs_lastmodifieddate")
		if t == nil {
			return 0
		}
		return t.UnixMilli()
	}
	sort.SliceStable(views, func(i, j int) bool {
		return ts(views[i]) > ts(views[j])
	})
}

// MissingAppointmentsHandler reports appointment rows whose remote object no
// longer exists. Report only, nothing is deleted.
func MissingAppointmentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		client, err := newHubspotClient()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		remote, err := client.listAllIds(c.Request.Context(), "APPOINTMENT", defaultPageSize)
		if err != nil {
			respondSyncError(c, err)
			return
		}

		db := config.GetDB()
		refs, err := models.AppointmentRemoteRefs(c.Request.Context(), db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		missing := make([]gin.H, 0)
		for _, ref := range refs {
			if _, ok := remote[ref.HubspotId]; !ok {
				missing = append(missing, gin.H{"id": ref.LocalKey, "hubspot_id": ref.HubspotId})
			}
		}
		c.JSON(http.StatusOK, missing)
	}
}

// SmsHistoryHandler returns a phone number's conversation, oldest first.
func SmsHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.Query("number"))
		if raw == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing number"})
			return
		}

		db := config.GetDB()
		rows, err := models.GetSmsHistory(c.Request.Context(), db, utils.NormalizePhone(raw))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// CampaignData is the payload of a campaign upsert.
type CampaignData struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	DealType    *string `json:"deal_type"`
	UtmSource   string  `json:"utm_source" binding:"required"`
	UtmCampaign string  `json:"utm_campaign" binding:"required"`
	UtmMedium   string  `json:"utm_medium" binding:"required"`
	Variation   *string `json:"variation"`
}

type campaignRequest struct {
	Data CampaignData `json:"data" binding:"required"`
}

// UpsertCampaignHandler creates or overwrites a campaign keyed on its name.
func UpsertCampaignHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req campaignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		data := req.Data
		campaign := &models.Campaign{
			Name:        strings.TrimSpace(data.Name),
			Description: data.Description,
			DealType:    data.DealType,
			UtmSource:   strings.TrimSpace(data.UtmSource),
			UtmCampaign: strings.TrimSpace(data.UtmCampaign),
			UtmMedium:   strings.TrimSpace(data.UtmMedium),
			Variation:   data.Variation,
		}
		if campaign.Name == "" || campaign.UtmSource == "" || campaign.UtmCampaign == "" || campaign.UtmMedium == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, utm_source, utm_campaign and utm_medium are required"})
			return
		}

		db := config.GetDB()
		saved, err := models.UpsertCampaign(c.Request.Context(), db, campaign)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"ok": true, "upserted": saved})
	}
}

// DeleteCampaignHandler removes a campaign by name.
func DeleteCampaignHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.Param("name"))
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing name in path"})
			return
		}

		db := config.GetDB()
		deleted, err := models.DeleteCampaignByName(c.Request.Context(), db, name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !deleted {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// TriggerSyncRunHandler queues a full contacts-and-deals run and publishes
// it for the worker to pick up.
func TriggerSyncRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		db := config.GetDB()
		run := &models.CrmSyncRun{
			Status:      models.SyncRunStatusQueued,
			TriggeredBy: models.SyncTriggeredManual,
		}
		if err := models.CreateSyncRun(c.Request.Context(), db, run); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if err := PublishSyncRun(c.Request.Context(), run.ID); err != nil {
			// The run stays queued; a later publish or manual retry can
			// still pick it up.
			logger := config.GetLogger()
			config.LogError(logger, "hubsync", "TriggerSyncRunHandler", "publish", run.ID, err)
		}

		c.JSON(http.StatusOK, gin.H{"id": run.ID})
	}
}

// ListSyncRunsHandler lists recent runs, newest first.
func ListSyncRunsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if v := strings.TrimSpace(c.Query("limit")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		db := config.GetDB()
		runs, err := models.ListSyncRuns(c.Request.Context(), db, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": runs})
	}
}

// SyncRunDetailHandler returns one run plus its per-record errors.
func SyncRunDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}

		db := config.GetDB()
		run, err := models.GetSyncRun(c.Request.Context(), db, uint(id))
		if err != nil {
			if errors.Is(err, models.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		errs, err := models.ListSyncErrors(c.Request.Context(), db, run.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"run": run, "errors": errs})
	}
}
