package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, StoreBackendSQLite, cfg.Store.Backend)
	assert.Equal(t, DefaultDaeguFoodBaseURL, cfg.DaeguFood.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.DaeguFood.Timeout)
	assert.Equal(t, AuthModeNone, cfg.Auth.Mode)
	assert.True(t, cfg.RestaurantSync.OnStartup)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, 90*24*time.Hour, cfg.Audit.Retention)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("AUTH_MODE", "firebase")
	t.Setenv("DAEGUFOOD_TIMEOUT", "0s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg := NewConfig()

	assert.Equal(t, StoreBackendMemory, cfg.Store.Backend)
	assert.Equal(t, AuthModeFirebase, cfg.Auth.Mode)
	assert.Equal(t, time.Duration(0), cfg.DaeguFood.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
