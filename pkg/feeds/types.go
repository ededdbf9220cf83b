// Package feeds reconciles the three fetched record sets — price benchmarks,
// product stock/availability, and performance metrics — into the labeled
// supplemental feed and the benchmark detail report.
//
// The three sets join on two distinct keys: products are keyed by product id,
// performance stats by offer id. The keys are not interchangeable.
package feeds

// AvailabilityInStock is the literal availability value a product must carry
// to be eligible for export.
const AvailabilityInStock = "in stock"

// BenchmarkRecord is one row of the price-competitiveness report.
// Immutable once fetched; monetary amounts are in currency micro-units
// (minor unit x 1e6).
type BenchmarkRecord struct {
	ProductID             string
	OfferID               string
	Title                 string
	Brand                 string
	PriceMicros           int64
	CurrencyCode          string
	BenchmarkPriceMicros  int64
	BenchmarkCurrencyCode string
	CountryCode           string
}

// ProductRecord is the stock/availability state of one product, keyed by
// product id in the lookup map. StockQuantity is kept as the raw attribute
// string; a value that does not parse as a number counts as zero stock.
type ProductRecord struct {
	Availability  string
	StockQuantity string
}

// StatRecord is the performance of one offer, keyed by offer id.
type StatRecord struct {
	Impressions int64
	Clicks      int64
}

// DetailRow is one reconciled row of the benchmark detail report.
// Prices are converted to major currency units.
type DetailRow struct {
	OfferID        string
	Title          string
	Brand          string
	Price          float64
	CurrencyCode   string
	CountryCode    string
	BenchmarkPrice float64
	RelativePrice  float64
	Label          string
	Impressions    int64
	Clicks         int64

	// StockQuantity is populated only when stock tracking is enabled.
	StockQuantity string
}

// SupplementalRow is one row of the supplemental feed: the offer and the
// custom label to attach to it.
type SupplementalRow struct {
	OfferID string
	Label   string
}
