package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MrSnakeDoc/tlama/internal/domain"
	"github.com/MrSnakeDoc/tlama/internal/logger"
	"github.com/MrSnakeDoc/tlama/internal/pipeline"
)

// Searcher runs a filtered crawl.
type Searcher interface {
	Search(ctx context.Context, filters []string, observe pipeline.Observer) ([]*domain.Item, error)
}

// CrawlJob re-crawls a fixed filter set on a cron schedule. Runs never
// overlap: a tick that fires while a crawl is still going is skipped.
type CrawlJob struct {
	searcher Searcher
	filters  []string
	spec     string
	logger   logger.Logger
	cron     *cron.Cron

	mu       sync.Mutex
	cancel   context.CancelFunc
	lastRun  time.Time
	lastSeen int
}

// Standard 5-field specs plus descriptors such as @daily or @every 6h.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewCrawlJob validates spec and prepares the job. It does not start it.
func NewCrawlJob(searcher Searcher, spec string, filters []string, log logger.Logger) (*CrawlJob, error) {
	spec = strings.TrimSpace(spec)
	if _, err := cronParser.Parse(spec); err != nil {
		return nil, fmt.Errorf("invalid crawl schedule %q: %w", spec, err)
	}

	cl := cronLogger{log: log}
	return &CrawlJob{
		searcher: searcher,
		filters:  filters,
		spec:     spec,
		logger:   log,
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}, nil
}

// Start schedules the job. Crawls run with a context derived from ctx and
// are cancelled by Stop.
func (j *CrawlJob) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	if _, err := j.cron.AddFunc(j.spec, func() {
		if err := j.Run(runCtx); err != nil {
			j.logger.Error("scheduled crawl failed", logger.Error(err))
		}
	}); err != nil {
		cancel()
		return fmt.Errorf("schedule crawl: %w", err)
	}

	j.mu.Lock()
	j.cancel = cancel
	j.mu.Unlock()

	j.cron.Start()
	j.logger.Info("crawl job scheduled",
		logger.String("schedule", j.spec),
		logger.Strings("filters", j.filters))
	return nil
}

// Stop cancels a running crawl and waits for it to return.
func (j *CrawlJob) Stop() {
	j.mu.Lock()
	if j.cancel != nil {
		j.cancel()
	}
	j.mu.Unlock()

	<-j.cron.Stop().Done()
}

// Run crawls once with the configured filters.
func (j *CrawlJob) Run(ctx context.Context) error {
	start := time.Now()
	items, err := j.searcher.Search(ctx, j.filters, func(e pipeline.Event) {
		if e.Stage != pipeline.StageItems {
			j.logger.Debug(e.Message, logger.String("run_id", e.RunID))
		}
	})

	j.mu.Lock()
	j.lastRun = start
	j.lastSeen = len(items)
	j.mu.Unlock()

	if err != nil {
		return err
	}

	fields := []logger.Field{
		logger.Int("items", len(items)),
		logger.Duration("took", time.Since(start)),
	}
	if len(items) > 0 {
		fields = append(fields,
			logger.String("best", items[0].Name),
			logger.Int("best_score", items[0].Score))
	}
	j.logger.Info("scheduled crawl finished", fields...)
	return nil
}

// LastRun returns when the job last ran and how many items it kept.
func (j *CrawlJob) LastRun() (time.Time, int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRun, j.lastSeen
}

// cronLogger routes cron's key/value logging into our logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(keysAndValues []any) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1]))
	}
	return fields
}
