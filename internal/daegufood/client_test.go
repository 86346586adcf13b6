package daegufood

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "status": "DONE",
  "total": "2",
  "data": [
    {"cnt": "1", "OPENDATA_ID": "4521", "GNG_CS": "대구광역시 중구 동덕로 36-1 (대봉동)", "FD_CS": "한식",
     "BZ_NM": "동인동찜갈비", "TLNO": "053-424-2203", "MBZ_HR": "11:00 ~ 22:00", "SEAT_CNT": "80",
     "PKPL": "불가", "HP": "", "PSB_FRN": "", "BKN_YN": "가능", "INFN_FCL": "", "BRFT_YN": "", "DSSRT_YN": "",
     "MNU": "찜갈비 25,000원<br />육회 30,000원", "SMPL_DESC": "<p>매운 찜갈비</p>", "SBW": "", "BUS": ""},
    {"cnt": 2, "OPENDATA_ID": 4522, "GNG_CS": "대구 어딘가", "BZ_NM": "무명식당", "BKN_YN": "불가", "MNU": null}
  ]
}`

func newTestClient(server *httptest.Server, opts ...Option) *Client {
	opts = append([]Option{WithHTTPClient(server.Client()), WithBaseURL(server.URL)}, opts...)
	return NewClient(opts...)
}

func TestClient_SearchByRegion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("mode"))
		assert.Equal(t, "중구", r.URL.Query().Get("addr"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	items, err := newTestClient(server).SearchByRegion(context.Background(), "중구")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "4521", items[0].OpenDataID)
	assert.Equal(t, "동인동찜갈비", items[0].Name)
	assert.Equal(t, "가능", items[0].Booking)

	// numeric and null fields are tolerated
	assert.Equal(t, "4522", items[1].OpenDataID)
	assert.Equal(t, "2", items[1].Count)
	assert.Equal(t, "", items[1].Menu)
}

func TestClient_SearchByRegion_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   "boom",
			check: func(t *testing.T, err error) {
				var httpErr *HTTPError
				require.True(t, errors.As(err, &httpErr))
				assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
				assert.Equal(t, "boom", httpErr.Body)
			},
		},
		{
			name:   "non-DONE status",
			status: http.StatusOK,
			body:   `{"status":"ERROR","total":"0","data":[]}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotDone)
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, "ERROR", statusErr.Status)
			},
		},
		{
			name:   "malformed json",
			status: http.StatusOK,
			body:   `{"status":`,
			check: func(t *testing.T, err error) {
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrNotDone)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server).SearchByRegion(context.Background(), "동구")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"DONE","total":"0","data":[]}`))
	}))
	defer server.Close()

	// one request every 10s: the first passes, the second has to wait
	client := newTestClient(server, WithRateLimit(0.1))
	_, err := client.SearchByRegion(context.Background(), "동구")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.SearchByRegion(ctx, "서구")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClient_Options(t *testing.T) {
	c := NewClient()
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, defaultTimeout, c.httpClient.Timeout)
	assert.Nil(t, c.bucket)

	c = NewClient(WithTimeout(0), WithRateLimit(2))
	assert.Zero(t, c.httpClient.Timeout)
	assert.NotNil(t, c.bucket)
}
