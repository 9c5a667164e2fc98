package cli

import (
	"maps"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tlama/internal/domain"
	"github.com/MrSnakeDoc/tlama/internal/preferences"
)

func newFiltersCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List the filter tokens accepted by search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := preferences.Load(e.cfg.PreferencesFile)
			if err != nil {
				return err
			}
			v := settings.Vocabulary

			t := newTable(e.stdout)
			t.AppendHeader(table.Row{"Token", "Query", "Notes"})
			for _, token := range slices.Sorted(maps.Keys(v.Filters)) {
				note := ""
				if slices.Contains(v.Baseline, token) {
					note = "always applied"
				}
				t.AppendRow(table.Row{token, v.Filters[token], note})
			}
			for _, token := range slices.Sorted(maps.Keys(v.Categories)) {
				t.AppendRow(table.Row{domain.CategoryPrefix + token, v.CategoryParam + "=" + v.Categories[token], ""})
			}
			for _, token := range slices.Sorted(maps.Keys(v.Mechanics)) {
				t.AppendRow(table.Row{domain.MechanicPrefix + token, v.MechanicParam + "=" + v.Mechanics[token], ""})
			}
			for _, name := range slices.Sorted(maps.Keys(settings.Presets)) {
				preset, _ := settings.Preset(name)
				t.AppendRow(table.Row{name, strings.Join(preset, " "), "preset"})
			}
			t.Render()
			return nil
		},
	}
}
