package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/MrSnakeDoc/tlama/internal/config"
	"github.com/MrSnakeDoc/tlama/internal/domain"
	"github.com/MrSnakeDoc/tlama/internal/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("TLAMA_REDIS_ADDR", "")
	t.Setenv("TLAMA_REDIS_PASSWORD", "")
	t.Setenv("TLAMA_PREFERENCES_FILE", "")
	t.Setenv("TLAMA_CRAWL_SCHEDULE", "")
	t.Setenv("TLAMA_STORE", "")
	t.Setenv("TLAMA_DATA_DIR", t.TempDir())

	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	cfg.ListenPort = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := a.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return a
}

func TestNewWithMemoryStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = config.StoreMemory

	a := newTestApp(t, cfg)

	if got := a.Store.Kind(); got != "memory" {
		t.Errorf("Store.Kind() = %q, want memory", got)
	}
	if a.Crawler == nil || a.Reconciler == nil {
		t.Fatal("pipeline not wired")
	}

	n, err := a.Reconciler.Count(context.Background())
	if err != nil || n != 0 {
		t.Errorf("Count() = %d, %v, want 0", n, err)
	}
}

func TestNewDefaultsToPersistentStore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	const url = "https://www.tlamagames.com/deskove-hry/a/"

	a, err := New(ctx, cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := a.Store.Kind(); got != "badger" {
		t.Errorf("Store.Kind() = %q, want badger", got)
	}
	if err := a.Store.Put(ctx, domain.Record{URL: url, Name: "A"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := a.Store.SetFlag(ctx, url, domain.FlagOwned, true); err != nil {
		t.Fatalf("SetFlag() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened := newTestApp(t, cfg)

	if n, err := reopened.Reconciler.Count(ctx); err != nil || n != 1 {
		t.Errorf("Count() after reopen = %d, %v, want 1", n, err)
	}
	rec, err := reopened.Store.Get(ctx, url)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if !rec.Owned {
		t.Error("owned annotation lost across runs")
	}
}

func TestNewWithRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.RedisAddr = mr.Addr()

	a := newTestApp(t, cfg)

	if got := a.Store.Kind(); got != "redis" {
		t.Errorf("Store.Kind() = %q, want redis", got)
	}
	if err := a.Store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestNewRejectsMissingPreferences(t *testing.T) {
	cfg := testConfig(t)
	cfg.PreferencesFile = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := New(context.Background(), cfg, logger.NewNop()); err == nil {
		t.Error("New() with a missing preferences file should fail")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.CrawlSchedule = "@daily"

	a := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServeRejectsBadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.CrawlSchedule = "whenever"

	a := newTestApp(t, cfg)

	if err := a.Serve(context.Background()); err == nil {
		t.Error("Serve() with a bad schedule should fail")
	}
}
