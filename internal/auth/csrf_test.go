package auth

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCSRFServer(t *testing.T) *httptest.Server {
	t.Helper()
	key, _, err := DecodeSessionSecret("")
	require.NoError(t, err)

	router := gin.New()
	router.Use(CSRFMiddleware(key, false))
	router.GET("/token", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"csrf_token": GetCSRFToken(c)})
	})
	router.POST("/mutate", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestCSRFMiddleware(t *testing.T) {
	srv := newCSRFServer(t)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	post := func(header, value string) int {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/mutate", nil)
		require.NoError(t, err)
		if header != "" {
			req.Header.Set(header, value)
		}
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusForbidden, post("", ""))
	assert.Equal(t, http.StatusOK, post("Authorization", "Bearer some-id-token"), "bearer requests skip the check")

	resp, err := client.Get(srv.URL + "/token")
	require.NoError(t, err)
	var body struct {
		Token string `json:"csrf_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	require.NotEmpty(t, body.Token)

	assert.Equal(t, http.StatusOK, post(CSRFTokenHeader, body.Token))
	assert.Equal(t, http.StatusForbidden, post(CSRFTokenHeader, "tampered"))
}
