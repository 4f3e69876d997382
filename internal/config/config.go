package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// セッションストアの種別。
const (
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionStore       string        // "postgres" または "redis"
	RedisURL           string        // SessionStore=redis の場合に必須
	SessionKeyFile     string        // 署名鍵ファイルのパス。全インスタンスで共有すること
	SessionIdleTimeout time.Duration // アイドルタイムアウト（スライディング）

	// Password
	BcryptCost int

	// Rate Limit
	RateLimitGeneral int // API全般 req/min/user
	RateLimitLogin   int // ログイン・登録 req/min/IP

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

	cfg.SessionKeyFile = os.Getenv("SESSION_KEY_FILE")
	if cfg.SessionKeyFile == "" {
		missing = append(missing, "SESSION_KEY_FILE")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	cfg.SessionStore = getEnvString("SESSION_STORE", SessionStorePostgres)
	switch cfg.SessionStore {
	case SessionStorePostgres:
		// 追加設定は不要
	case SessionStoreRedis:
		cfg.RedisURL = os.Getenv("REDIS_URL")
		if cfg.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
	default:
		return nil, fmt.Errorf("invalid SESSION_STORE: %q (expected %q or %q)",
			cfg.SessionStore, SessionStorePostgres, SessionStoreRedis)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionIdleTimeout = getEnvDuration("SESSION_IDLE_TIMEOUT", 60*time.Minute)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:4200")

	return cfg, nil
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
