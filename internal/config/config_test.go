package config

import (
	"os"
	"testing"
	"time"
)

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{
			name:     "empty",
			value:    "",
			expected: nil,
		},
		{
			name:     "single value",
			value:    "discounted",
			expected: []string{"discounted"},
		},
		{
			name:     "spaces quotes and blanks",
			value:    ` discounted , "category:card_game",, 'easy' `,
			expected: []string{"discounted", "category:card_game", "easy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.value)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitAndTrim() = %v, want %v", result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndTrim()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"TLAMA_BASE_URL", "TLAMA_MAX_PAGES", "TLAMA_REDIS_ADDR", "TLAMA_REDIS_PASSWORD",
		"TLAMA_REQUEST_INTERVAL", "TLAMA_RESCORE_INTERVAL", "TLAMA_CRAWL_SCHEDULE", "TLAMA_CRAWL_FILTERS",
		"TLAMA_STORE",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("TLAMA_DATA_DIR", t.TempDir())

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.BaseURL != "https://www.tlamagames.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.MaxPages != 50 {
		t.Errorf("MaxPages = %d, want 50", cfg.MaxPages)
	}
	if cfg.RequestInterval != 500*time.Millisecond {
		t.Errorf("RequestInterval = %v, want 500ms", cfg.RequestInterval)
	}
	if cfg.RescoreInterval != 24*time.Hour {
		t.Errorf("RescoreInterval = %v, want 24h", cfg.RescoreInterval)
	}
	if got := cfg.StoreBackend(); got != StoreBadger {
		t.Errorf("StoreBackend() = %q without an address, want %q", got, StoreBadger)
	}
	if cfg.CrawlSchedule != "" || cfg.CrawlFilters != nil {
		t.Errorf("scheduled crawl should be disabled, got %q %v", cfg.CrawlSchedule, cfg.CrawlFilters)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("TLAMA_BASE_URL", "http://localhost:9000")
	t.Setenv("TLAMA_MAX_PAGES", "3")
	t.Setenv("TLAMA_REDIS_ADDR", "localhost:6379")
	t.Setenv("TLAMA_REDIS_PASSWORD", "secret")
	t.Setenv("TLAMA_CRAWL_SCHEDULE", "0 6 * * *")
	t.Setenv("TLAMA_CRAWL_FILTERS", "discounted, category:card_game")
	t.Setenv("TLAMA_ALLOWED_CIDRS", "10.0.0.0/8, 192.168.1.4")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.MaxPages != 3 {
		t.Errorf("MaxPages = %d, want 3", cfg.MaxPages)
	}
	if got := cfg.StoreBackend(); got != StoreRedis {
		t.Errorf("StoreBackend() = %q with an address, want %q", got, StoreRedis)
	}
	if len(cfg.CrawlFilters) != 2 || cfg.CrawlFilters[1] != "category:card_game" {
		t.Errorf("CrawlFilters = %v", cfg.CrawlFilters)
	}
	if len(cfg.AllowedCIDRS) != 2 {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}

	redacted := cfg.Redacted()
	if redacted.RedisPassword == "secret" {
		t.Error("Redacted() leaked the redis password")
	}
	if cfg.RedisPassword != "secret" {
		t.Error("Redacted() modified the original config")
	}
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "base url without scheme",
			env:  map[string]string{"TLAMA_BASE_URL": "www.tlamagames.com"},
		},
		{
			name: "zero max pages",
			env:  map[string]string{"TLAMA_MAX_PAGES": "0"},
		},
		{
			name: "negative rescore interval",
			env:  map[string]string{"TLAMA_RESCORE_INTERVAL": "-1h"},
		},
		{
			name: "password without redis",
			env:  map[string]string{"TLAMA_REDIS_ADDR": "", "TLAMA_REDIS_PASSWORD": "secret"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); err == nil {
				t.Error("FromEnv() error = nil, want error")
			}
		})
	}
}

func TestStoreBackend(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected string
		wantErr  bool
	}{
		{
			name:     "local database by default",
			env:      map[string]string{"TLAMA_DATA_DIR": "/tmp/tlama"},
			expected: StoreBadger,
		},
		{
			name:     "redis when an address is set",
			env:      map[string]string{"TLAMA_REDIS_ADDR": "localhost:6379"},
			expected: StoreRedis,
		},
		{
			name:     "explicit memory wins over redis",
			env:      map[string]string{"TLAMA_STORE": "Memory", "TLAMA_REDIS_ADDR": "localhost:6379"},
			expected: StoreMemory,
		},
		{
			name:    "redis without address",
			env:     map[string]string{"TLAMA_STORE": "redis"},
			wantErr: true,
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"TLAMA_STORE": "sqlite"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"TLAMA_STORE", "TLAMA_DATA_DIR", "TLAMA_REDIS_ADDR", "TLAMA_REDIS_PASSWORD"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := FromEnv()
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromEnv() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := cfg.StoreBackend(); got != tt.expected {
				t.Errorf("StoreBackend() = %q, want %q", got, tt.expected)
			}
		})
	}
}
