package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tlama/internal/version"
)

func newRescoreCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rescore",
		Short: "Recompute every cached score with the current preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.application(cmd.Context())
			if err != nil {
				return err
			}
			total, corrected, err := a.Reconciler.RescoreAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(e.stdout, "Rescored %d games, %d scores corrected\n", total, corrected)
			return nil
		},
	}
}

func newFlagCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "flag <url> <owned|flagged> <true|false>",
		Short: "Mark a cached game as owned or flagged",
		Long: `Set a user annotation on a cached game. Annotations survive re-crawls.
A flagged game always ranks last.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseBool(args[2])
			if err != nil {
				return fmt.Errorf("invalid value %q: want true or false", args[2])
			}

			a, err := e.application(cmd.Context())
			if err != nil {
				return err
			}
			url, err := a.Site.ItemURL(args[0])
			if err != nil {
				return err
			}
			item, err := a.Reconciler.SetFlag(cmd.Context(), url, args[1], value)
			if err != nil {
				return err
			}
			renderItem(e.stdout, item)
			return nil
		},
	}
}

func newServeCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with periodic rescoring and scheduled crawls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.application(cmd.Context())
			if err != nil {
				return err
			}
			return a.Serve(cmd.Context())
		},
	}
}

func newVersionCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(e.stdout, "tlama", version.String())
		},
	}
}
