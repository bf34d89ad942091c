package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	CORSOrigins []string

	HostawayBase      string
	HostawayAccountID string
	HostawayAPIKey    string
	HostawayScope     string
	HostawayRPS       int

	GoogleBase string
	GoogleKey  string

	UpstreamTimeout time.Duration

	StoreBackend string // file|mysql|memory
	SnapshotPath string
	MySQLDSN     string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	PlaceIDs        []string
	PrefetchWorkers int
}

// Load reads the environment, after merging an optional .env file.
func Load() Config {
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("invalid integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		CORSOrigins: list(env("CORS_ORIGINS", "http://*,https://*")),

		HostawayBase:      env("HOSTAWAY_BASE_URL", "https://api.hostaway.com/v1"),
		HostawayAccountID: env("HOSTAWAY_ACCOUNT_ID", ""),
		HostawayAPIKey:    env("HOSTAWAY_API_KEY", ""),
		HostawayScope:     env("HOSTAWAY_SCOPE", "general"),
		HostawayRPS:       atoi("HOSTAWAY_RPS", 5),

		GoogleBase: env("GOOGLE_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		GoogleKey:  env("GOOGLE_MAPS_API_KEY", ""),

		UpstreamTimeout: time.Duration(atoi("UPSTREAM_TIMEOUT_SECONDS", 10)) * time.Second,

		StoreBackend: strings.ToLower(env("STORE_BACKEND", "file")),
		SnapshotPath: env("SNAPSHOT_PATH", "data/mock-data.json"),
		MySQLDSN:     env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reviews?parseTime=true&charset=utf8mb4&loc=UTC"),

		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		PlaceIDs:        list(env("PLACE_IDS", "")),
		PrefetchWorkers: atoi("PREFETCH_WORKERS", 4),
	}
	if c.HostawayAccountID == "" || c.HostawayAPIKey == "" {
		log.Warn().Msg("HOSTAWAY_ACCOUNT_ID or HOSTAWAY_API_KEY is empty; reviews will come from the snapshot")
	}
	if c.GoogleKey == "" {
		log.Warn().Msg("GOOGLE_MAPS_API_KEY is empty; google reviews are disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func list(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
