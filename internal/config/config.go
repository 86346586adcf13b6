package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone     AuthMode = "none"     // No authentication required (default)
	AuthModeLocal    AuthMode = "local"    // Local user database with sessions
	AuthModeFirebase AuthMode = "firebase" // Firebase ID tokens
)

type StoreBackend string

const (
	StoreBackendSQLite    StoreBackend = "sqlite"
	StoreBackendFirestore StoreBackend = "firestore"
	StoreBackendMemory    StoreBackend = "memory"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Store
		Firebase
		DaeguFood
		RestaurantSync
		Tasks
		Auth
		CORS
		Log
		Metrics
		Audit
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Store struct {
		Backend StoreBackend
	}
	Firebase struct {
		ProjectID         string
		CredentialsBase64 string // Service account JSON, base64 encoded
	}
	DaeguFood struct {
		BaseURL           string
		Timeout           time.Duration // 0 disables the client timeout
		RequestsPerSecond float64
	}
	RestaurantSync struct {
		Enabled   bool
		Schedule  string // Cron format: "0 4 * * *" = daily at 04:00
		OnStartup bool   // Run SyncIfNeeded once when the server starts
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Auth struct {
		Mode            AuthMode
		SessionSecret   string // CSRF key, hex or raw; generated per process if empty
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	CORS struct {
		AllowedOrigins []string
	}
	Log struct {
		Level       string
		Development bool
	}
	Metrics struct {
		Enabled bool
	}
	Audit struct {
		Enabled   bool
		Retention time.Duration // events older than this are pruned at startup; 0 keeps everything
	}
)

// NewConfig loads configuration from the environment. Values from a .env file
// in the working directory are applied first; real environment variables win.
func NewConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("store_backend", string(StoreBackendSQLite))

	v.SetDefault("firebase_project_id", "")
	v.SetDefault("firebase_credentials_base64", "")

	v.SetDefault("daegufood_base_url", DefaultDaeguFoodBaseURL)
	v.SetDefault("daegufood_timeout", "30s")
	v.SetDefault("daegufood_requests_per_second", 2.0)

	v.SetDefault("restaurant_sync_enabled", true)
	v.SetDefault("restaurant_sync_schedule", "0 4 * * *")
	v.SetDefault("restaurant_sync_on_startup", true)

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_session_secret", "")
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	v.SetDefault("cors_allowed_origins", "http://localhost:3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_development", false)
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("audit_enabled", true)
	v.SetDefault("audit_retention", "2160h")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_max_retries", 1)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "15m")
	v.SetDefault("task_release_after", "30m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Store: Store{
			Backend: StoreBackend(v.GetString("STORE_BACKEND")),
		},
		Firebase: Firebase{
			ProjectID:         v.GetString("FIREBASE_PROJECT_ID"),
			CredentialsBase64: v.GetString("FIREBASE_CREDENTIALS_BASE64"),
		},
		DaeguFood: DaeguFood{
			BaseURL:           v.GetString("DAEGUFOOD_BASE_URL"),
			Timeout:           v.GetDuration("DAEGUFOOD_TIMEOUT"),
			RequestsPerSecond: v.GetFloat64("DAEGUFOOD_REQUESTS_PER_SECOND"),
		},
		RestaurantSync: RestaurantSync{
			Enabled:   v.GetBool("RESTAURANT_SYNC_ENABLED"),
			Schedule:  v.GetString("RESTAURANT_SYNC_SCHEDULE"),
			OnStartup: v.GetBool("RESTAURANT_SYNC_ON_STARTUP"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		CORS: CORS{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Log: Log{
			Level:       v.GetString("LOG_LEVEL"),
			Development: v.GetBool("LOG_DEVELOPMENT"),
		},
		Metrics: Metrics{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
		Audit: Audit{
			Enabled:   v.GetBool("AUDIT_ENABLED"),
			Retention: v.GetDuration("AUDIT_RETENTION"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
