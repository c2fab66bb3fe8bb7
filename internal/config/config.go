package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	AppName    = "Touchline"
	AppVersion = "1.0.0"
)

// UserAgent identifies outbound AI requests.
var UserAgent = AppName + "/" + AppVersion

// AIConfig is the environment fallback used when the settings table has no AI provider.
type AIConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Proxy    string
}

type Config struct {
	Addr      string
	DBPath    string
	DataDir   string
	StaticDir string
	LogLevel  string

	JWTSecret string
	SiteName  string
	SiteURL   string

	TranslationDelay time.Duration
	AIRateLimit      int
	BackfillInterval time.Duration
	JobQueueSize     int
	SessionTTL       time.Duration
	SessionMax       int
	NodeID           int64

	AI AIConfig
}

func Load() Config {
	dataDir := getEnv("TOUCHLINE_DATA_DIR", "./data")
	path := getEnv("TOUCHLINE_DB_PATH", filepath.Join(dataDir, "touchline.db"))
	staticDir := os.Getenv("TOUCHLINE_STATIC_DIR")
	if staticDir == "" {
		staticDir = detectStaticDir()
	}

	return Config{
		Addr:      getEnv("TOUCHLINE_ADDR", ":8080"),
		DBPath:    filepath.Clean(path),
		DataDir:   filepath.Clean(dataDir),
		StaticDir: filepath.Clean(staticDir),
		LogLevel:  getEnv("TOUCHLINE_LOG_LEVEL", "info"),

		JWTSecret: os.Getenv("TOUCHLINE_AUTH_JWT_SECRET"),
		SiteName:  getEnv("TOUCHLINE_SITE_NAME", AppName),
		SiteURL:   os.Getenv("TOUCHLINE_SITE_URL"),

		TranslationDelay: getDuration("TOUCHLINE_TRANSLATION_DELAY", time.Second),
		AIRateLimit:      getInt("TOUCHLINE_AI_RATE_LIMIT", 10),
		BackfillInterval: getDuration("TOUCHLINE_BACKFILL_INTERVAL", 0),
		JobQueueSize:     getInt("TOUCHLINE_JOB_QUEUE_SIZE", 64),
		SessionTTL:       getDuration("TOUCHLINE_SESSION_TTL", 30*time.Minute),
		SessionMax:       getInt("TOUCHLINE_SESSION_MAX", 10000),
		NodeID:           int64(getInt("TOUCHLINE_NODE_ID", 1)),

		AI: AIConfig{
			Provider: os.Getenv("TOUCHLINE_AI_PROVIDER"),
			APIKey:   os.Getenv("TOUCHLINE_AI_API_KEY"),
			BaseURL:  os.Getenv("TOUCHLINE_AI_BASE_URL"),
			Model:    os.Getenv("TOUCHLINE_AI_MODEL"),
			Proxy:    os.Getenv("TOUCHLINE_AI_PROXY"),
		},
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getDuration accepts Go durations ("1500ms") or bare seconds ("2").
func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil && d >= 0 {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func detectStaticDir() string {
	candidates := []string{
		"./frontend/dist",
		"../frontend/dist",
	}
	for _, candidate := range candidates {
		indexPath := filepath.Join(candidate, "index.html")
		if info, err := os.Stat(indexPath); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return "./frontend/dist"
}
