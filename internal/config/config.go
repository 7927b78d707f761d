// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// デフォルトの所属判定パターン。
// 生徒: 入学年度2桁で始まる機関アドレス（例: 27-tanaka@example.edu）。
// 教員: 通常の機関アドレス。
const (
	defaultStudentPattern    = `^(\d\d-).*@example\.edu$`
	defaultInstructorPattern = `^(\w+)@example\.edu$`
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

	// 所属判定（ロール分類）
	StudentPattern    *regexp.Regexp
	InstructorPattern *regexp.Regexp

	// Token
	TokenMaxIdle  time.Duration // 最終使用からの失効しきい値
	SweepInterval time.Duration // workerモードでのスイープ実行間隔
	StateTTL      time.Duration // stateエントリの有効期間

	// Rate Limit（req/min単位）
	RateLimitGeneral int
	RateLimitOAuth   int

	// Server
	ServerPort string
	WebappBase string // ログイン完了後のリダイレクト先のデフォルト

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string

	// 外部通信タイムアウト
	ProviderTimeout time.Duration
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

	cfg.WebappBase = os.Getenv("WEBAPP_BASE_URL")
	if cfg.WebappBase == "" {
		missing = append(missing, "WEBAPP_BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// ロール分類パターン。不正な正規表現は設定エラーとして起動を止める。
	var err error
	cfg.StudentPattern, err = regexp.Compile(getEnvString("STUDENT_EMAIL_PATTERN", defaultStudentPattern))
	if err != nil {
		return nil, fmt.Errorf("invalid STUDENT_EMAIL_PATTERN: %w", err)
	}
	cfg.InstructorPattern, err = regexp.Compile(getEnvString("INSTRUCTOR_EMAIL_PATTERN", defaultInstructorPattern))
	if err != nil {
		return nil, fmt.Errorf("invalid INSTRUCTOR_EMAIL_PATTERN: %w", err)
	}

	// Optional fields with defaults
	cfg.TokenMaxIdle = getEnvDuration("TOKEN_MAX_IDLE", 60*time.Minute)
	cfg.SweepInterval = getEnvDuration("SWEEP_INTERVAL", 10*time.Minute)
	cfg.StateTTL = getEnvDuration("STATE_TTL", 10*time.Minute)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitOAuth = getEnvInt("RATE_LIMIT_OAUTH", 20)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.WebappBase, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", cfg.WebappBase)
	cfg.ProviderTimeout = getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second)

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
