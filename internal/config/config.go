package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ノートの保存先
const (
	NotesBackendPostgres = "postgres"
	NotesBackendMongo    = "mongo"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Session
	SessionSecret          string
	SessionMaxAge          time.Duration
	SessionCleanupInterval time.Duration

	// Notes
	NotesBackend      string
	MongoURI          string
	MongoDatabase     string
	NotesFetchTimeout time.Duration

	// Dashboard
	DashboardRecentLimit int
	DashboardLocation    *time.Location

	// Rate Limit (リクエスト数/分)
	RateLimitGeneral   int
	RateLimitNoteWrite int

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	if cfg.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}

	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	if cfg.GoogleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}

	cfg.GoogleRedirectURL = os.Getenv("GOOGLE_REDIRECT_URL")
	if cfg.GoogleRedirectURL == "" {
		missing = append(missing, "GOOGLE_REDIRECT_URL")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvSeconds("SESSION_MAX_AGE", 24*time.Hour)
	cfg.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour)
	cfg.NotesBackend = strings.ToLower(getEnvString("NOTES_BACKEND", NotesBackendPostgres))
	cfg.MongoURI = getEnvString("MONGODB_URI", "")
	cfg.MongoDatabase = getEnvString("MONGODB_DATABASE", "foodjournal")
	cfg.NotesFetchTimeout = getEnvDuration("NOTES_FETCH_TIMEOUT", 5*time.Second)
	cfg.DashboardRecentLimit = getEnvInt("DASHBOARD_RECENT_LIMIT", 3)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitNoteWrite = getEnvInt("RATE_LIMIT_NOTE_WRITE", 30)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	loc, err := getEnvLocation("DASHBOARD_TIMEZONE", time.Local)
	if err != nil {
		return nil, err
	}
	cfg.DashboardLocation = loc

	switch cfg.NotesBackend {
	case NotesBackendPostgres:
	case NotesBackendMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGODB_URI is required when NOTES_BACKEND=%s", NotesBackendMongo)
		}
	default:
		return nil, fmt.Errorf("invalid NOTES_BACKEND %q: must be %s or %s",
			cfg.NotesBackend, NotesBackendPostgres, NotesBackendMongo)
	}

	return cfg, nil
}

// ClientConfig はターミナルクライアントの設定。
type ClientConfig struct {
	APIBaseURL       string
	SessionToken     string // ログイン後にブラウザで発行された署名済みセッションCookieの値
	AuthPollInterval time.Duration
	TUILogFile       string
}

// LoadClient はターミナルクライアント用の設定を環境変数から読み込む。
// 必須項目はない。セッションが未設定の場合は未ログインとして起動する。
func LoadClient() *ClientConfig {
	return &ClientConfig{
		APIBaseURL:       strings.TrimRight(getEnvString("API_BASE_URL", "http://localhost:8080"), "/"),
		SessionToken:     os.Getenv("FOODJOURNAL_SESSION"),
		AuthPollInterval: getEnvDuration("AUTH_POLL_INTERVAL", 30*time.Second),
		TUILogFile:       getEnvString("TUI_LOG_FILE", "foodjournal-tui.log"),
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvSeconds は秒数（"86400"）とDuration表記（"24h"）の両方を受け付ける。
func getEnvSeconds(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if i, err := strconv.Atoi(v); err == nil {
		if i <= 0 {
			return defaultVal
		}
		return time.Duration(i) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getEnvLocation(key string, defaultVal *time.Location) (*time.Location, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return loc, nil
}
