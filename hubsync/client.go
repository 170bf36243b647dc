package hubsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingToken is a configuration failure: the whole request fails, no
// partial plan is produced.
var ErrMissingToken = errors.New("missing HUBSPOT_TOKEN")

// RemoteError carries the HTTP status and response body of a failed HubSpot
// call. Any non-2xx page aborts the entire fetch or census.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("hubspot %d: %s", e.Status, e.Body)
}

type hubspotClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newHubspotClient() (*hubspotClient, error) {
	token := strings.TrimSpace(os.Getenv("HUBSPOT_TOKEN"))
	if token == "" {
		return nil, ErrMissingToken
	}
	baseURL := strings.TrimSpace(os.Getenv("HUBSPOT_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.hubapi.com"
	}
	return &hubspotClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type searchFilter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type searchFilterGroup struct {
	Filters []searchFilter `json:"filters"`
}

type searchSort struct {
	PropertyName string `json:"propertyName"`
	Direction    string `json:"direction"`
}

type searchRequest struct {
	FilterGroups []searchFilterGroup `json:"filterGroups"`
	Sorts        []searchSort        `json:"sorts"`
	Properties   []string            `json:"properties"`
	Limit        int                 `json:"limit"`
	After        string              `json:"after,omitempty"`
}

type objectResult struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
}

type objectPage struct {
	Results []objectResult `json:"results"`
	Paging  *struct {
		Next *struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

func (p objectPage) nextAfter() string {
	if p.Paging == nil || p.Paging.Next == nil {
		return ""
	}
	return p.Paging.Next.After
}

// searchPage POSTs one page of the object-search API.
func (c *hubspotClient) searchPage(ctx context.Context, objectType string, req searchRequest) (objectPage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return objectPage{}, err
	}

	endpoint := fmt.Sprintf("%s/crm/v3/objects/%s/search", c.baseURL, objectType)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return objectPage{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq)
}

// listPage GETs one page of the plain object listing, archived objects
// excluded. Used only for the deletion census.
func (c *hubspotClient) listPage(ctx context.Context, objectType string, after string, limit int) (objectPage, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("archived", "false")
	if after != "" {
		params.Set("after", after)
	}

	endpoint := fmt.Sprintf("%s/crm/v3/objects/%s?%s", c.baseURL, objectType, params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return objectPage{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(httpReq)
}

func (c *hubspotClient) do(req *http.Request) (objectPage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return objectPage{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return objectPage{}, &RemoteError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var page objectPage
	if err := json.Unmarshal(body, &page); err != nil {
		return objectPage{}, err
	}
	return page, nil
}

// listAllIds walks the full listing and accumulates every object id: the
// complete current remote census for one object type.
func (c *hubspotClient) listAllIds(ctx context.Context, objectType string, pageSize int) (map[string]struct{}, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	ids := make(map[string]struct{})
	after := ""
	for {
		page, err := c.listPage(ctx, objectType, after, pageSize)
		if err != nil {
			return nil, err
		}
		for _, result := range page.Results {
			ids[result.ID] = struct{}{}
		}
		after = page.nextAfter()
		if after == "" {
			return ids, nil
		}
	}
}
