package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/MrSnakeDoc/tlama/internal/domain"
	"github.com/MrSnakeDoc/tlama/internal/pipeline"
)

const (
	nameColumnWidth = 48
	urlColumnWidth  = 80
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// renderItems prints a ranked item list. limit <= 0 prints everything.
func renderItems(w io.Writer, items []*domain.Item, limit int) {
	t := newTable(w)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: nameColumnWidth},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 6, WidthMax: urlColumnWidth},
	})
	t.AppendHeader(table.Row{"#", "Name", "Price", "Score", "Flags", "URL"})

	shown := items
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for i, it := range shown {
		t.AppendRow(table.Row{i + 1, it.Name, formatPrice(it.Price), it.Score, formatFlags(it), it.URL})
	}

	footer := strconv.Itoa(len(items))
	if len(shown) < len(items) {
		footer = fmt.Sprintf("%d of %d", len(shown), len(items))
	}
	t.AppendFooter(table.Row{"", "Total", footer})
	t.Render()
}

// renderItem prints the details of one item.
func renderItem(w io.Writer, it *domain.Item) {
	t := newTable(w)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: urlColumnWidth}})

	rows := []struct {
		label string
		value string
	}{
		{"Name", it.Name},
		{"Score", strconv.Itoa(it.Score)},
		{"Price", formatPrice(it.Price)},
		{"Distributor", it.Distributor},
		{"Type", it.GameType},
		{"Players", formatRange(it.MinPlayers, it.MaxPlayers)},
		{"Play time", formatMinutes(it.PlayTimeMinutes)},
		{"Rating", formatDecimal(it.Rating)},
		{"Complexity", formatDecimal(it.Complexity)},
		{"Categories", strings.Join(it.Categories, ", ")},
		{"Mechanics", strings.Join(it.Mechanics, ", ")},
		{"Flags", formatFlags(it)},
		{"URL", it.URL},
		{"Image", it.ImageURL},
	}
	for _, r := range rows {
		if r.value == "" {
			continue
		}
		t.AppendRow(table.Row{r.label, r.value})
	}
	t.Render()
}

// progressPrinter writes crawl progress, one line per event.
func progressPrinter(w io.Writer) pipeline.Observer {
	return func(ev pipeline.Event) {
		switch ev.Stage {
		case pipeline.StageItems:
			fmt.Fprintf(w, "[%d/%d] %s\n", ev.Current, ev.Total, ev.Message)
		default:
			fmt.Fprintln(w, ev.Message)
		}
	}
}

func formatPrice(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%d Kč", *p)
}

func formatDecimal(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatMinutes(v *int) string {
	if v == nil {
		return ""
	}
	if *v == 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d min", *v)
}

func formatRange(lo, hi *int) string {
	switch {
	case lo == nil && hi == nil:
		return ""
	case hi == nil:
		return fmt.Sprintf("%d+", *lo)
	case lo == nil:
		return fmt.Sprintf("up to %d", *hi)
	case *lo == *hi:
		return strconv.Itoa(*lo)
	default:
		return fmt.Sprintf("%d-%d", *lo, *hi)
	}
}

func formatFlags(it *domain.Item) string {
	var flags []string
	if it.Owned {
		flags = append(flags, string(domain.FlagOwned))
	}
	if it.Flagged {
		flags = append(flags, string(domain.FlagFlagged))
	}
	return strings.Join(flags, ",")
}
