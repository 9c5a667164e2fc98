package cli

import (
	"github.com/spf13/cobra"
)

func newGameCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "game <url>",
		Short: "Refresh and score a single game",
		Long: `Fetch one product page, merge it into the cache and print it.
The URL may be absolute or relative to the shop, e.g. deskove-hry/kryci-jmena/.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.application(cmd.Context())
			if err != nil {
				return err
			}
			item, err := a.Crawler.Game(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderItem(e.stdout, item)
			return nil
		},
	}
}

func newPromoCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "promo",
		Short: "Refresh and score the game featured on the shop's home page",
		Long: `Load the home page in a headless browser, follow the featured product
and print it. Needs a Chromium browser; set TLAMA_BROWSER_BIN to use a local one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.application(cmd.Context())
			if err != nil {
				return err
			}
			item, err := a.Crawler.Promo(cmd.Context())
			if err != nil {
				return err
			}
			renderItem(e.stdout, item)
			return nil
		},
	}
}
