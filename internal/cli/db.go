package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newDBCommand(e *env) *cobra.Command {
	var limit int

	db := &cobra.Command{
		Use:   "db",
		Short: "Browse the item cache without crawling",
	}
	db.PersistentFlags().IntVarP(&limit, "limit", "n", 0, "number of results to print (0 = all)")

	db.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every cached game, ranked by score",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := e.application(cmd.Context())
				if err != nil {
					return err
				}
				items, err := a.Reconciler.LoadAll(cmd.Context())
				if err != nil {
					return err
				}
				renderItems(e.stdout, items, limit)
				return nil
			},
		},
		&cobra.Command{
			Use:   "search <name>",
			Short: "List cached games whose name contains the given text",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.application(cmd.Context())
				if err != nil {
					return err
				}
				items, err := a.Reconciler.Search(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				renderItems(e.stdout, items, limit)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <url>",
			Short: "Show one cached game",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.application(cmd.Context())
				if err != nil {
					return err
				}
				url, err := a.Site.ItemURL(args[0])
				if err != nil {
					return err
				}
				item, err := a.Reconciler.Load(cmd.Context(), url)
				if err != nil {
					return err
				}
				renderItem(e.stdout, item)
				return nil
			},
		},
		&cobra.Command{
			Use:   "count",
			Short: "Print the number of cached games",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := e.application(cmd.Context())
				if err != nil {
					return err
				}
				n, err := a.Reconciler.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(e.stdout, n)
				return nil
			},
		},
	)
	return db
}
