// Package daegufood is a client for the Daegu restaurant open-data API
// (daegufood.go.kr). One request returns every listed restaurant of a district.
package daegufood

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/juju/ratelimit"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

const (
	DefaultBaseURL = "https://www.daegufood.go.kr/kor/api/tasty.html"

	defaultTimeout = 30 * time.Second
	statusDone     = "DONE"
	maxErrorBody   = 512
)

// Regions are the districts and counties the API is queried with.
var Regions = []string{"동구", "서구", "남구", "북구", "수성구", "달서구", "중구", "달성군", "군위군"}

// Client interfaces with the Daegu food API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	bucket     *ratelimit.Bucket
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout sets the HTTP client timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the HTTP client, keeping its own timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit spaces requests to at most rps per second. rps <= 0 disables
// throttling.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.bucket = nil
			return
		}
		c.bucket = ratelimit.NewBucketWithRate(rps, 1)
	}
}

// NewClient creates a new Daegu food API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is the envelope returned by the API.
type Response struct {
	Status string `json:"status"`
	Total  string `json:"total"`
	Data   []Item `json:"data"`
}

// Item is one restaurant row as published upstream.
type Item struct {
	Count       string // cnt
	OpenDataID  string // OPENDATA_ID
	Address     string // GNG_CS
	Category    string // FD_CS
	Name        string // BZ_NM
	Phone       string // TLNO
	Hours       string // MBZ_HR
	SeatCount   string // SEAT_CNT
	Parking     string // PKPL
	Homepage    string // HP
	Foreign     string // PSB_FRN
	Booking     string // BKN_YN
	Facilities  string // INFN_FCL
	Breakfast   string // BRFT_YN
	Dessert     string // DSSRT_YN
	Menu        string // MNU
	Description string // SMPL_DESC
	Subway      string // SBW
	Bus         string // BUS
}

// UnmarshalJSON accepts numbers and nulls where strings are documented; the
// API is not consistent about it.
func (it *Item) UnmarshalJSON(b []byte) error {
	raw := map[string]any{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s := func(key string) string { return cast.ToString(raw[key]) }
	*it = Item{
		Count:       s("cnt"),
		OpenDataID:  s("OPENDATA_ID"),
		Address:     s("GNG_CS"),
		Category:    s("FD_CS"),
		Name:        s("BZ_NM"),
		Phone:       s("TLNO"),
		Hours:       s("MBZ_HR"),
		SeatCount:   s("SEAT_CNT"),
		Parking:     s("PKPL"),
		Homepage:    s("HP"),
		Foreign:     s("PSB_FRN"),
		Booking:     s("BKN_YN"),
		Facilities:  s("INFN_FCL"),
		Breakfast:   s("BRFT_YN"),
		Dessert:     s("DSSRT_YN"),
		Menu:        s("MNU"),
		Description: s("SMPL_DESC"),
		Subway:      s("SBW"),
		Bus:         s("BUS"),
	}
	return nil
}

// SearchByRegion fetches every restaurant listed for one region.
func (c *Client) SearchByRegion(ctx context.Context, region string) ([]Item, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse URL")
	}
	q := u.Query()
	q.Set("mode", "json")
	q.Set("addr", region)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request for %s failed", region)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrapf(err, "failed to decode response for %s", region)
	}
	if out.Status != statusDone {
		return nil, &StatusError{Status: out.Status}
	}
	return out.Data, nil
}

// wait blocks until the rate limiter admits one more request.
func (c *Client) wait(ctx context.Context) error {
	if c.bucket == nil {
		return nil
	}
	d := c.bucket.Take(1)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
