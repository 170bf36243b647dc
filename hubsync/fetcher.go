package hubsync

import (
	"context"
	"time"
)

const (
	defaultWindowHours    = 4
	defaultOverlapMinutes = 10
	defaultPageSize       = 100
)

// FetchOptions controls the lookback window of an incremental fetch. Zero
// values fall back to the defaults, so an empty struct is a valid request.
type FetchOptions struct {
	WindowHours    int
	OverlapMinutes int
	PageSize       int
}

func (o FetchOptions) withDefaults() FetchOptions {
	if o.WindowHours <= 0 {
		o.WindowHours = defaultWindowHours
	}
	if o.OverlapMinutes <= 0 {
		o.OverlapMinutes = defaultOverlapMinutes
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	return o
}

// since is the window start: now minus windowHours plus overlapMinutes. The
// overlap re-reads the tail of the previous window so records modified around
// a run boundary are never missed.
func (o FetchOptions) since(now time.Time) time.Time {
	minutes := o.WindowHours*60 + o.OverlapMinutes
	return now.UTC().Add(-time.Duration(minutes) * time.Minute)
}

// RemoteRecord is one remote object: its string id plus the raw property map
// exactly as returned, no coercion applied.
type RemoteRecord struct {
	ID         string
	Properties map[string]any
}

// FetchResult is the full recently-modified set for one window.
type FetchResult struct {
	Since   time.Time
	Pages   int
	Records []RemoteRecord
}

// fetchSpec fixes the per-object-type search shape: which property gates the
// window filter, how pages are ordered, and which properties are requested.
type fetchSpec struct {
	objectType       string
	modifiedProperty string
	sortProperty     string
	sortDirection    string
	properties       []string
}

// fetchRecent pages through the search API collecting every record modified
// on or after the window start. Pagination follows the cursor until the
// response carries no next cursor.
func (c *hubspotClient) fetchRecent(ctx context.Context, spec fetchSpec, opts FetchOptions) (FetchResult, error) {
	opts = opts.withDefaults()
	since := opts.since(time.Now())

	req := searchRequest{
		FilterGroups: []searchFilterGroup{{
			Filters: []searchFilter{{
				PropertyName: spec.modifiedProperty,
				Operator:     "GTE",
				Value:        since.Format(time.RFC3339),
			}},
		}},
		Sorts: []searchSort{{
			PropertyName: spec.sortProperty,
			Direction:    spec.sortDirection,
		}},
		Properties: spec.properties,
		Limit:      opts.PageSize,
	}

	result := FetchResult{Since: since}
	for {
		page, err := c.searchPage(ctx, spec.objectType, req)
		if err != nil {
			return FetchResult{}, err
		}
		result.Pages++
		for _, obj := range page.Results {
			result.Records = append(result.Records, RemoteRecord{ID: obj.ID, Properties: obj.Properties})
		}
		req.After = page.nextAfter()
		if req.After == "" {
			return result, nil
		}
	}
}
