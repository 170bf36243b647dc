package hubsync

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func optionsForQuery(t *testing.T, query string) Options {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/deals/sync?"+query, nil)
	return parseSyncOptions(c)
}

func TestParseSyncOptions(t *testing.T) {
	opts := optionsForQuery(t, "hours=8&overlapMinutes=5&pageSize=50&dryrun=TRUE&mode=force")
	if opts.Fetch.WindowHours != 8 || opts.Fetch.OverlapMinutes != 5 || opts.Fetch.PageSize != 50 {
		t.Errorf("fetch options = %+v", opts.Fetch)
	}
	if !opts.DryRun {
		t.Error("dryrun=TRUE not honored")
	}
	if opts.Mode != ModeForce {
		t.Errorf("mode = %q, want force", opts.Mode)
	}
}

func TestParseSyncOptionsDefaults(t *testing.T) {
	opts := optionsForQuery(t, "")
	if opts.DryRun || opts.Mode != ModeIncremental {
		t.Errorf("opts = %+v, want incremental non-dry defaults", opts)
	}

	fetch := opts.Fetch.withDefaults()
	if fetch.WindowHours != 4 || fetch.OverlapMinutes != 10 || fetch.PageSize != 100 {
		t.Errorf("defaults = %+v, want 4h/10m/100", fetch)
	}
}

func TestParseSyncOptionsIgnoresGarbage(t *testing.T) {
	opts := optionsForQuery(t, "hours=abc&mode=sideways&dryrun=maybe")
	if opts.Fetch.WindowHours != 0 {
		t.Errorf("hours = %d, want default fallback", opts.Fetch.WindowHours)
	}
	if opts.Mode != ModeIncremental || opts.DryRun {
		t.Errorf("opts = %+v, want incremental non-dry", opts)
	}
}

func TestRespondSyncErrorMapsRemoteFailuresToBadGateway(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondSyncError(c, &RemoteError{Status: 429, Body: "slow down"})
	if w.Code != http.StatusBadGateway {
		t.Errorf("remote error status = %d, want 502", w.Code)
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	respondSyncError(c, ErrMissingToken)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("config error status = %d, want 500", w.Code)
	}
}
