// Package pipeline orchestrates one reconciliation run: fetch the three
// feeds, reconcile them into exportable rows, project the output tables,
// and hand them to the configured destinations.
package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/google/price-visibility-booster/internal/config"
	"github.com/google/price-visibility-booster/internal/sink"
	"github.com/google/price-visibility-booster/pkg/feeds"
	"github.com/google/price-visibility-booster/pkg/logging"
)

// ReportSource fetches the two report-backed feeds.
type ReportSource interface {
	FetchBenchmarks(ctx context.Context, rules *config.Rules) ([]feeds.BenchmarkRecord, error)
	FetchStats(ctx context.Context) (map[string]feeds.StatRecord, error)
}

// ProductSource enumerates products and resolves their stock records.
type ProductSource interface {
	ListProductIDs(ctx context.Context) ([]string, error)
	BatchGetProducts(ctx context.Context, productIDs []string, stockAttribute string) (map[string]feeds.ProductRecord, error)
}

// Pipeline is one run's wiring: rules, sources, destinations.
type Pipeline struct {
	rules        *config.Rules
	reports      ReportSource
	products     ProductSource
	destinations []sink.Destination
}

// New assembles a pipeline.
func New(rules *config.Rules, reports ReportSource, products ProductSource, destinations ...sink.Destination) *Pipeline {
	return &Pipeline{
		rules:        rules,
		reports:      reports,
		products:     products,
		destinations: destinations,
	}
}

// Run executes the full pipeline. Any fatal fetch error aborts the run
// before anything is written; the destinations only see a complete table
// set.
func (p *Pipeline) Run(ctx context.Context) (feeds.TableSet, error) {
	ctx = logging.WithRunID(ctx, uuid.NewString())
	log := logging.Ctx(ctx)
	log.Info().Str("country", p.rules.CountryCode).
		Str("currency", p.rules.CurrencyCode).Msg("Run started")

	benchmarks, err := p.reports.FetchBenchmarks(ctx, p.rules)
	if err != nil {
		return feeds.TableSet{}, err
	}

	productIDs, err := p.products.ListProductIDs(ctx)
	if err != nil {
		return feeds.TableSet{}, err
	}
	products, err := p.products.BatchGetProducts(ctx, productIDs, p.rules.Stock.AttributeName)
	if err != nil {
		return feeds.TableSet{}, err
	}

	stats, err := p.reports.FetchStats(ctx)
	if err != nil {
		return feeds.TableSet{}, err
	}

	reconciler := feeds.NewReconciler(feeds.Policy{
		Thresholds:     p.rules.BandThresholds(),
		Names:          p.rules.BandNames(),
		AllowedLabels:  p.rules.ExportLabels,
		StockEnabled:   p.rules.Stock.Enabled,
		StockThreshold: p.rules.Stock.Threshold,
	})
	detail, supplemental := reconciler.Reconcile(ctx, benchmarks, products, stats)

	set := feeds.Project(detail, supplemental, feeds.ProjectOptions{
		StockEnabled:       p.rules.Stock.Enabled,
		LabelExportEnabled: p.rules.LabelExportEnabled,
		CustomLabelIndex:   p.rules.CustomLabelIndex,
	})

	if err := sink.WriteAll(ctx, set, p.destinations...); err != nil {
		return feeds.TableSet{}, err
	}

	log.Info().Int("detail_rows", len(set.Detail.Rows)).Msg("Run complete")
	return set, nil
}
