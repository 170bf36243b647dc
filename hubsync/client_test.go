package hubsync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(serverURL string) *hubspotClient {
	return &hubspotClient{
		baseURL: serverURL,
		token:   "test-token",
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func TestFetchRecentFollowsPagingCursor(t *testing.T) {
	var requests []searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crm/v3/objects/deals/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("auth header = %q", got)
		}

		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		requests = append(requests, req)

		if req.After == "" {
			json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{
					{"id": "1", "properties": map[string]any{"dealname": "first"}},
				},
				"paging": map[string]any{"next": map[string]any{"after": "cursor-2"}},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"id": "2", "properties": map[string]any{"dealname": "second"}},
			},
		})
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	result, err := client.fetchRecent(context.Background(), dealFetchSpec, FetchOptions{})
	if err != nil {
		t.Fatalf("fetchRecent: %v", err)
	}

	if result.Pages != 2 || len(result.Records) != 2 {
		t.Errorf("pages=%d records=%d, want 2/2", result.Pages, len(result.Records))
	}
	if result.Records[0].ID != "1" || result.Records[1].ID != "2" {
		t.Errorf("records = %+v", result.Records)
	}
	if len(requests) != 2 {
		t.Fatalf("made %d requests, want 2", len(requests))
	}
	if requests[1].After != "cursor-2" {
		t.Errorf("second request after = %q, want cursor-2", requests[1].After)
	}
	if requests[0].FilterGroups[0].Filters[0].PropertyName != "hs_lastmodifieddate" {
		t.Errorf("filter property = %q", requests[0].FilterGroups[0].Filters[0].PropertyName)
	}
}

func TestFetchRecentWindowStart(t *testing.T) {
	var captured searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	}))
	defer srv.Close()

	before := time.Now().UTC()
	client := testClient(srv.URL)
	result, err := client.fetchRecent(context.Background(), contactFetchSpec, FetchOptions{WindowHours: 2, OverlapMinutes: 30})
	if err != nil {
		t.Fatalf("fetchRecent: %v", err)
	}

	wantWindow := 150 * time.Minute
	gap := before.Sub(result.Since)
	if gap < wantWindow || gap > wantWindow+time.Minute {
		t.Errorf("since = %v, want about %v before now", result.Since, wantWindow)
	}
	filterValue := captured.FilterGroups[0].Filters[0].Value
	if filterValue != result.Since.Format(time.RFC3339) {
		t.Errorf("filter value %q does not match since %v", filterValue, result.Since)
	}
}

func TestFetchRecentRemoteErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	_, err := client.fetchRecent(context.Background(), contactFetchSpec, FetchOptions{})

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("err = %v, want RemoteError", err)
	}
	if remoteErr.Status != http.StatusTooManyRequests {
		t.Errorf("status = %d", remoteErr.Status)
	}
	if remoteErr.Body != `{"message":"rate limited"}` {
		t.Errorf("body = %q", remoteErr.Body)
	}
}

func TestListAllIdsExcludesArchivedAndPaginates(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s", r.Method)
		}
		queries = append(queries, r.URL.RawQuery)

		if r.URL.Query().Get("after") == "" {
			json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{{"id": "1"}, {"id": "2"}},
				"paging":  map[string]any{"next": map[string]any{"after": "p2"}},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"id": "3"}},
		})
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	ids, err := client.listAllIds(context.Background(), "contacts", 100)
	if err != nil {
		t.Fatalf("listAllIds: %v", err)
	}

	if len(ids) != 3 {
		t.Errorf("ids = %v, want 3", ids)
	}
	for _, q := range queries {
		if !strings.Contains(q, "archived=false") {
			t.Errorf("query %q missing archived=false", q)
		}
		if !strings.Contains(q, "limit=100") {
			t.Errorf("query %q missing limit", q)
		}
	}
	if len(queries) != 2 || !strings.Contains(queries[1], "after=p2") {
		t.Errorf("queries = %v, want cursor follow-up", queries)
	}
}
