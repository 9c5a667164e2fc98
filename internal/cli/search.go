package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tlama/internal/preferences"
)

type crawlFlags struct {
	limit int
	quiet bool
}

func (f *crawlFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 30, "number of results to print (0 = all)")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "do not print crawl progress")
}

func newSearchCommand(e *env) *cobra.Command {
	var flags crawlFlags

	cmd := &cobra.Command{
		Use:   "search [filter...]",
		Short: "Crawl the catalog with the given filters and rank the results",
		Long: `Crawl every listing page matching the filters, refresh each game in the
cache and print the results ranked by score.

Run "tlama filters" for the available filter tokens.

Examples:
  tlama search
  tlama search discounted category:card_game
  tlama search for_one_player mechanic:cooperative -n 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, e, args, flags)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newBestDealsCommand(e *env) *cobra.Command {
	var flags crawlFlags

	cmd := &cobra.Command{
		Use:   "best-deals",
		Short: "Crawl discounted games and rank them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.application(cmd.Context())
			if err != nil {
				return err
			}
			filters, ok := a.Settings.Preset(preferences.PresetBestDeals)
			if !ok {
				return fmt.Errorf("preset %q is not defined in the preferences file", preferences.PresetBestDeals)
			}
			return runSearch(cmd, e, filters, flags)
		},
	}
	flags.bind(cmd)
	return cmd
}

func runSearch(cmd *cobra.Command, e *env, filters []string, flags crawlFlags) error {
	a, err := e.application(cmd.Context())
	if err != nil {
		return err
	}

	observe := progressPrinter(e.stderr)
	if flags.quiet {
		observe = nil
	}

	items, err := a.Crawler.Search(cmd.Context(), filters, observe)
	if len(items) > 0 {
		renderItems(e.stdout, items, flags.limit)
	}
	return err
}
