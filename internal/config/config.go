package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Item cache backends.
const (
	StoreRedis  = "redis"
	StoreBadger = "badger"
	StoreMemory = "memory"
)

type Config struct {
	// Catalog
	BaseURL         string // ex: "https://www.tlamagames.com"
	PreferencesFile string // optional YAML override, empty = embedded defaults

	// Transport
	HTTPTimeout     time.Duration // per request timeout (default: 30s)
	RequestInterval time.Duration // politeness delay between requests (default: 500ms)
	UserAgent       string
	MaxPages        int    // listing page limit per crawl (default: 50)
	BrowserBin      string // optional, empty = let rod download/find a browser
	BrowserHeadless bool

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Item cache
	Store   string // "redis" | "badger" | "memory", empty = redis when an address is set, else badger
	DataDir string // badger directory (default: <user cache dir>/tlama)

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)

	// Serve mode
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	AllowedCIDRS    []string      // optional, restrict mutating routes (e.g. "10.0.0.0/8, 192.168.1.4")
	TrustProxy      bool          // true => trust X-Forwarded-For headers (e.g. cloudflared)
	RescoreInterval time.Duration // periodic rescoring of the cache (default: 24h)
	CrawlSchedule   string        // cron spec for the scheduled crawl, empty = disabled
	CrawlFilters    []string      // filter tokens used by the scheduled crawl
}

// Load reads the configuration from the environment. A .env file in the
// working directory, if present, is loaded first without overriding
// variables that are already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		BaseURL:         getenv("TLAMA_BASE_URL", "https://www.tlamagames.com"),
		PreferencesFile: getenv("TLAMA_PREFERENCES_FILE", ""),

		HTTPTimeout:     mustDuration("TLAMA_HTTP_TIMEOUT", 30*time.Second),
		RequestInterval: mustDuration("TLAMA_REQUEST_INTERVAL", 500*time.Millisecond),
		UserAgent:       getenv("TLAMA_USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"),
		MaxPages:        getenvInt("TLAMA_MAX_PAGES", 50),
		BrowserBin:      getenv("TLAMA_BROWSER_BIN", ""),
		BrowserHeadless: mustBool("TLAMA_BROWSER_HEADLESS", true),

		LogLevel:  getenv("TLAMA_LOG_LEVEL", "info"),
		PrettyLog: mustBool("TLAMA_PRETTY_LOG", true),

		Store:   strings.ToLower(getenv("TLAMA_STORE", "")),
		DataDir: getenv("TLAMA_DATA_DIR", defaultDataDir()),

		RedisAddr:           getenv("TLAMA_REDIS_ADDR", ""),
		RedisUser:           getenv("TLAMA_REDIS_USERNAME", ""),
		RedisPassword:       getenv("TLAMA_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("TLAMA_REDIS_DB", 0),
		RedisDT:             mustDuration("TLAMA_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("TLAMA_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("TLAMA_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("TLAMA_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("TLAMA_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("TLAMA_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("TLAMA_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("TLAMA_REDIS_RETRY_INTERVAL", 2*time.Second),

		ListenPort:      getenv("TLAMA_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("TLAMA_SHUTDOWN_TIMEOUT", 5*time.Second),
		AllowedCIDRS:    parseAllowedIPs(getenv("TLAMA_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("TLAMA_TRUST_PROXY", false),
		RescoreInterval: mustDuration("TLAMA_RESCORE_INTERVAL", 24*time.Hour),
		CrawlSchedule:   getenv("TLAMA_CRAWL_SCHEDULE", ""),
		CrawlFilters:    splitAndTrim(getenv("TLAMA_CRAWL_FILTERS", "")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("TLAMA_BASE_URL must be an http(s) url, got %q", c.BaseURL)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("TLAMA_MAX_PAGES must be >= 1, got %d", c.MaxPages)
	}
	if c.RescoreInterval <= 0 {
		return fmt.Errorf("TLAMA_RESCORE_INTERVAL must be positive, got %s", c.RescoreInterval)
	}
	if c.RedisPassword != "" && c.RedisAddr == "" {
		return errors.New("TLAMA_REDIS_PASSWORD is set but TLAMA_REDIS_ADDR is empty")
	}
	if c.Store != "" && !slices.Contains([]string{StoreRedis, StoreBadger, StoreMemory}, c.Store) {
		return fmt.Errorf("TLAMA_STORE must be redis, badger or memory, got %q", c.Store)
	}
	switch c.StoreBackend() {
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("TLAMA_STORE=redis needs TLAMA_REDIS_ADDR")
		}
	case StoreBadger:
		if c.DataDir == "" {
			return errors.New("TLAMA_DATA_DIR is empty and no user cache directory is available")
		}
	}
	return nil
}

// StoreBackend resolves the item cache backend. Without an explicit
// TLAMA_STORE, Redis wins when an address is set; otherwise items persist
// in a local badger database.
func (c *Config) StoreBackend() string {
	if c.Store != "" {
		return c.Store
	}
	if c.RedisAddr != "" {
		return StoreRedis
	}
	return StoreBadger
}

// Redacted returns a copy safe for logging.
func (c Config) Redacted() Config {
	if c.RedisPassword != "" {
		c.RedisPassword = "***REDACTED***"
	}
	if c.RedisUser != "" {
		c.RedisUser = "***REDACTED***"
	}
	return c
}

// helpers
func defaultDataDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tlama")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
