package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/google/price-visibility-booster/pkg/feeds"
)

// DefaultPreviewRows caps how many rows of each table the console shows.
const DefaultPreviewRows = 20

// ConsoleSink renders a preview of each table to a writer. It is wired in
// for dry runs, where the other destinations are skipped.
type ConsoleSink struct {
	out      io.Writer
	maxRows  int
	currency string
	printer  *message.Printer
}

// NewConsoleSink creates a console sink. currencyCode formats the price
// columns of the detail table; pass the run's offer currency.
func NewConsoleSink(out io.Writer, currencyCode string) *ConsoleSink {
	return &ConsoleSink{
		out:      out,
		maxRows:  DefaultPreviewRows,
		currency: currencyCode,
		printer:  message.NewPrinter(language.English),
	}
}

// Name implements Destination.
func (s *ConsoleSink) Name() string { return "console" }

// Write implements Destination. The console has nothing to clear; each call
// simply prints the new tables.
func (s *ConsoleSink) Write(_ context.Context, set feeds.TableSet) error {
	for _, table := range tables(set) {
		if err := s.render(table); err != nil {
			return err
		}
	}
	return nil
}

// moneyColumns marks the detail columns carrying currency amounts.
var moneyColumns = map[string]bool{"price": true, "benchmark_price": true}

func (s *ConsoleSink) render(table feeds.Table) error {
	fmt.Fprintf(s.out, "\n%s (%d rows, updated %s)\n", table.Name, len(table.Rows), table.LastUpdated())

	t := tablewriter.NewTable(s.out)
	headers := make([]any, len(table.Headers))
	for i, h := range table.Headers {
		headers[i] = h
	}
	t.Header(headers...)

	shown := table.Rows
	if len(shown) > s.maxRows {
		shown = shown[:s.maxRows]
	}
	for _, row := range shown {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = s.formatPreviewCell(table.Headers[i], cell)
		}
		if err := t.Append(cells...); err != nil {
			return fmt.Errorf("render %s: %w", table.Name, err)
		}
	}
	if err := t.Render(); err != nil {
		return fmt.Errorf("render %s: %w", table.Name, err)
	}

	if hidden := len(table.Rows) - len(shown); hidden > 0 {
		fmt.Fprintf(s.out, "... and %d more rows\n", hidden)
	}
	return nil
}

// formatPreviewCell renders amounts with the run currency and two decimals;
// everything else falls through to the plain cell format.
func (s *ConsoleSink) formatPreviewCell(header string, cell any) string {
	if amount, ok := cell.(float64); ok && moneyColumns[header] {
		return s.printer.Sprintf("%s %v", s.currency,
			number.Decimal(amount, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	}
	return formatCell(cell)
}
