// Package cli implements the tlama command tree.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tlama/internal/app"
	"github.com/MrSnakeDoc/tlama/internal/config"
	"github.com/MrSnakeDoc/tlama/internal/logger"
)

type appFactory func(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.App, error)

// env is the state shared by every command of one invocation.
type env struct {
	stdout io.Writer
	stderr io.Writer
	newApp appFactory

	cfg *config.Config
	log logger.Logger
	app *app.App
}

// Execute runs the command tree. SIGINT and SIGTERM cancel the running
// command; a crawl then returns what it reconciled so far.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := &env{stdout: os.Stdout, stderr: os.Stderr, newApp: app.New}
	defer e.close()

	return newRootCommand(e).ExecuteContext(ctx)
}

func newRootCommand(e *env) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "tlama",
		Short:         "Find and rank board game deals on tlamagames.com",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			e.cfg = cfg
			e.log = logger.New(cfg.LogLevel, cfg.PrettyLog)
			if cfg.LogLevel == "debug" {
				e.log.Debugf("cfg: %+v", cfg.Redacted())
			}
			return nil
		},
	}
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override TLAMA_LOG_LEVEL (debug|info|warn|error)")

	root.AddCommand(
		newSearchCommand(e),
		newBestDealsCommand(e),
		newPromoCommand(e),
		newGameCommand(e),
		newFiltersCommand(e),
		newDBCommand(e),
		newRescoreCommand(e),
		newFlagCommand(e),
		newServeCommand(e),
		newVersionCommand(e),
	)
	return root
}

// application wires the pipeline on first use.
func (e *env) application(ctx context.Context) (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	if e.cfg == nil {
		return nil, errors.New("configuration not loaded")
	}

	a, err := e.newApp(ctx, e.cfg, e.log)
	if err != nil {
		return nil, err
	}
	e.app = a
	return a, nil
}

func (e *env) close() {
	if e.app != nil {
		if err := e.app.Close(); err != nil {
			e.log.Warn("failed to release resources", logger.Error(err))
		}
		e.app = nil
	}
	if e.log != nil {
		_ = e.log.Sync()
	}
}
