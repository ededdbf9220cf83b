package feeds

import (
	"fmt"

	"github.com/agentstation/utc"
)

// TimestampLayout is the fixed format for the last-updated field written
// alongside each table.
const TimestampLayout = "2006-01-02 15:04:05"

// Table is a uniform tabular projection: an ordered header row plus data
// rows whose cells follow the header's column order and length.
type Table struct {
	Name        string
	Headers     []string
	Rows        [][]any
	GeneratedAt utc.Time
}

// LastUpdated renders the table's generation time in the fixed
// yyyy-MM-dd HH:mm:ss format destinations write next to each table.
func (t Table) LastUpdated() string {
	return t.GeneratedAt.Format(TimestampLayout)
}

// TableSet is the output of one run. Detail is always present; Supplemental
// is nil when label export is disabled by configuration.
type TableSet struct {
	Detail       Table
	Supplemental *Table
}

// ProjectOptions shape the two output tables.
type ProjectOptions struct {
	// StockEnabled appends the stock quantity column to the detail table.
	StockEnabled bool

	// LabelExportEnabled controls whether the supplemental table is built.
	LabelExportEnabled bool

	// CustomLabelIndex names the supplemental label column custom_label_<N>.
	CustomLabelIndex int
}

// Table names used by destinations.
const (
	DetailTableName       = "benchmark_detail"
	SupplementalTableName = "supplemental_feed"
)

// detailHeaders builds the detail table header, conditionally including the
// stock column.
func detailHeaders(stockEnabled bool) []string {
	headers := []string{
		"offer_id", "title", "brand", "price", "currency", "country",
		"benchmark_price", "price_difference", "label", "impressions", "clicks",
	}
	if stockEnabled {
		headers = append(headers, "stock_quantity")
	}
	return headers
}

// Project converts the reconciled rows into the run's TableSet. Rows keep
// their reconciliation order; nothing is deduplicated or resorted.
func Project(detail []DetailRow, supplemental []SupplementalRow, opts ProjectOptions) TableSet {
	now := utc.Now()

	detailTable := Table{
		Name:        DetailTableName,
		Headers:     detailHeaders(opts.StockEnabled),
		Rows:        make([][]any, 0, len(detail)),
		GeneratedAt: now,
	}
	for _, row := range detail {
		cells := []any{
			row.OfferID, row.Title, row.Brand, row.Price, row.CurrencyCode,
			row.CountryCode, row.BenchmarkPrice, row.RelativePrice, row.Label,
			row.Impressions, row.Clicks,
		}
		if opts.StockEnabled {
			cells = append(cells, row.StockQuantity)
		}
		detailTable.Rows = append(detailTable.Rows, cells)
	}

	set := TableSet{Detail: detailTable}

	if opts.LabelExportEnabled {
		supplementalTable := Table{
			Name:        SupplementalTableName,
			Headers:     []string{"id", fmt.Sprintf("custom_label_%d", opts.CustomLabelIndex)},
			Rows:        make([][]any, 0, len(supplemental)),
			GeneratedAt: now,
		}
		for _, row := range supplemental {
			supplementalTable.Rows = append(supplementalTable.Rows, []any{row.OfferID, row.Label})
		}
		set.Supplemental = &supplementalTable
	}

	return set
}
