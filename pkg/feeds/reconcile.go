package feeds

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/price-visibility-booster/pkg/labels"
	"github.com/google/price-visibility-booster/pkg/logging"
)

// Policy is the immutable reconciliation policy for a run, built once from
// the loaded feed rules and passed in explicitly.
type Policy struct {
	// Thresholds are the classifier band edges.
	Thresholds labels.Thresholds

	// Names maps bands onto merchant-facing label text.
	Names labels.Names

	// AllowedLabels is the export allow-list of label names.
	AllowedLabels []string

	// StockEnabled turns the stock-quantity filter on. When off the filter
	// always passes and detail rows carry no stock quantity.
	StockEnabled bool

	// StockThreshold is the minimum stock quantity for export.
	StockThreshold float64
}

// allowed reports whether a label name is exportable. The empty label never is.
func (p Policy) allowed(label string) bool {
	if label == "" {
		return false
	}
	for _, name := range p.AllowedLabels {
		if name == label {
			return true
		}
	}
	return false
}

// Reconciler joins the three record sets and applies the eligibility filters.
type Reconciler struct {
	policy Policy
}

// NewReconciler creates a Reconciler with the given policy.
func NewReconciler(policy Policy) *Reconciler {
	return &Reconciler{policy: policy}
}

// Reconcile walks the benchmark records in fetch order and emits one detail
// row and one supplemental row per exportable record.
//
// A record is skipped when its benchmark price is not positive, when no
// product record exists for its product id, when its computed label is not
// on the allow-list, when the product is not literally "in stock", or when
// the stock policy fails. Stats are joined by offer id and default to zero
// when absent.
//
// An empty benchmark set produces empty outputs and is not an error.
func (r *Reconciler) Reconcile(
	ctx context.Context,
	benchmarks []BenchmarkRecord,
	products map[string]ProductRecord,
	stats map[string]StatRecord,
) ([]DetailRow, []SupplementalRow) {
	log := logging.Ctx(ctx)

	detail := make([]DetailRow, 0, len(benchmarks))
	supplemental := make([]SupplementalRow, 0, len(benchmarks))

	if len(benchmarks) == 0 {
		log.Info().Msg("No benchmark records to reconcile")
		return detail, supplemental
	}

	skipped := 0
	for _, record := range benchmarks {
		if record.BenchmarkPriceMicros <= 0 {
			skipped++
			continue
		}
		product, ok := products[record.ProductID]
		if !ok {
			skipped++
			continue
		}

		relative := float64(record.PriceMicros)/float64(record.BenchmarkPriceMicros) - 1
		band := labels.Classify(relative, r.policy.Thresholds)
		label := r.policy.Names.For(band)

		if !r.policy.allowed(label) {
			skipped++
			continue
		}
		if product.Availability != AvailabilityInStock {
			skipped++
			continue
		}
		if !r.stockOK(product) {
			skipped++
			continue
		}

		stat := stats[record.OfferID] // zero value when the offer has no stats

		row := DetailRow{
			OfferID:        record.OfferID,
			Title:          record.Title,
			Brand:          record.Brand,
			Price:          float64(record.PriceMicros) / 1e6,
			CurrencyCode:   record.CurrencyCode,
			CountryCode:    record.CountryCode,
			BenchmarkPrice: float64(record.BenchmarkPriceMicros) / 1e6,
			RelativePrice:  relative,
			Label:          label,
			Impressions:    stat.Impressions,
			Clicks:         stat.Clicks,
		}
		if r.policy.StockEnabled {
			row.StockQuantity = product.StockQuantity
		}

		detail = append(detail, row)
		supplemental = append(supplemental, SupplementalRow{OfferID: record.OfferID, Label: label})
	}

	log.Info().
		Int("benchmarks", len(benchmarks)).
		Int("exported", len(detail)).
		Int("skipped", skipped).
		Msg("Reconciliation complete")

	return detail, supplemental
}

// stockOK applies the stock policy. With tracking disabled every product
// passes; otherwise the raw stock attribute is parsed as a number, with
// empty or non-numeric values counting as zero.
func (r *Reconciler) stockOK(product ProductRecord) bool {
	if !r.policy.StockEnabled {
		return true
	}
	return parseStock(product.StockQuantity) >= r.policy.StockThreshold
}

func parseStock(raw string) float64 {
	quantity, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return quantity
}
