package merchant

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/price-visibility-booster/internal/config"
	"github.com/google/price-visibility-booster/internal/transport"
	"github.com/google/price-visibility-booster/pkg/feeds"
	"github.com/google/price-visibility-booster/pkg/flatten"
	"github.com/google/price-visibility-booster/pkg/logging"
)

// DefaultReportPageSize is the page size requested from the report endpoint.
const DefaultReportPageSize = 1000

// searchRequest is the report search request body.
type searchRequest struct {
	Query                   string `json:"query"`
	PageSize                int    `json:"pageSize"`
	PageToken               string `json:"pageToken,omitempty"`
	ReturnTotalResultsCount bool   `json:"returnTotalResultsCount,omitempty"`
}

// searchResponse is the report search response body. Result rows stay
// untyped here; they are flattened and mapped onto typed records immediately
// below, so the untyped shape never leaves this package. The total count is
// untyped too: the endpoint serializes it sometimes as a JSON number and
// sometimes as a quoted 64-bit string, and both must decode.
type searchResponse struct {
	Results           []map[string]any `json:"results"`
	NextPageToken     string           `json:"nextPageToken"`
	TotalResultsCount any              `json:"totalResultsCount,omitempty"`
	Error             *apiErrorBody    `json:"error,omitempty"`
}

// ReportsClient fetches report rows from the merchant report search endpoint.
type ReportsClient struct {
	transport  *transport.Client
	baseURL    string
	merchantID string
	pageSize   int
	policy     RetryPolicy
}

// NewReportsClient creates a report client for one merchant account.
func NewReportsClient(t *transport.Client, baseURL, merchantID string) *ReportsClient {
	return &ReportsClient{
		transport:  t,
		baseURL:    baseURL,
		merchantID: merchantID,
		pageSize:   DefaultReportPageSize,
		policy:     ReportRetryPolicy,
	}
}

// searchURL is the report search endpoint for this merchant.
func (c *ReportsClient) searchURL() string {
	return fmt.Sprintf("%s/%s/reports/search", c.baseURL, c.merchantID)
}

// Search runs a report query to completion through the pagination loop.
// With countOnly set only the first page is fetched alongside the declared
// total result count.
func (c *ReportsClient) Search(ctx context.Context, query string, countOnly bool) (*Result[map[string]any], error) {
	ctx = logging.WithEndpoint(ctx, "reports.search")

	return paginate(ctx, "reports.search", c.policy, countOnly, func(ctx context.Context, cursor string) (page[map[string]any], error) {
		req := searchRequest{
			Query:                   query,
			PageSize:                c.pageSize,
			PageToken:               cursor,
			ReturnTotalResultsCount: countOnly,
		}

		resp, err := c.transport.PostJSON(ctx, c.searchURL(), req)
		if err != nil {
			return page[map[string]any]{}, err
		}

		var body searchResponse
		if err := transport.DecodeResponse(ctx, resp, &body); err != nil {
			return page[map[string]any]{}, err
		}

		return page[map[string]any]{
			items:      body.Results,
			nextCursor: body.NextPageToken,
			totalCount: asInt64(body.TotalResultsCount),
			apiErr:     body.Error,
		}, nil
	})
}

// benchmarkQuery builds the price-competitiveness report query, filtered to
// the configured reporting country and offer currency.
func benchmarkQuery(rules *config.Rules) string {
	return fmt.Sprintf(
		"SELECT product_view.id, product_view.offer_id, product_view.title, "+
			"product_view.brand, product_view.price_micros, product_view.currency_code, "+
			"price_competitiveness.country_code, price_competitiveness.benchmark_price_micros, "+
			"price_competitiveness.benchmark_price_currency_code "+
			"FROM PriceCompetitivenessProductView "+
			"WHERE price_competitiveness.country_code = '%s' "+
			"AND product_view.currency_code = '%s'",
		rules.CountryCode, rules.CurrencyCode)
}

// statsQuery builds the offer performance report query.
func statsQuery() string {
	return "SELECT segments.offer_id, metrics.impressions, metrics.clicks " +
		"FROM ProductPerformanceView"
}

// FetchBenchmarks downloads the full price-competitiveness report and maps
// its nested rows onto typed benchmark records, in arrival order.
func (c *ReportsClient) FetchBenchmarks(ctx context.Context, rules *config.Rules) ([]feeds.BenchmarkRecord, error) {
	result, err := c.Search(ctx, benchmarkQuery(rules), false)
	if err != nil {
		return nil, err
	}

	records := make([]feeds.BenchmarkRecord, 0, len(result.Records))
	for _, row := range result.Records {
		records = append(records, benchmarkFromRow(flatten.Map(row)))
	}

	logging.Ctx(ctx).Info().Int("records", len(records)).Msg("Benchmark report downloaded")
	return records, nil
}

// CountBenchmarks fetches only the first report page and returns the
// endpoint-declared total for the configured filters.
func (c *ReportsClient) CountBenchmarks(ctx context.Context, rules *config.Rules) (int64, error) {
	result, err := c.Search(ctx, benchmarkQuery(rules), true)
	if err != nil {
		return 0, err
	}
	return result.TotalCount, nil
}

// FetchStats downloads the offer performance report keyed by offer id.
func (c *ReportsClient) FetchStats(ctx context.Context) (map[string]feeds.StatRecord, error) {
	result, err := c.Search(ctx, statsQuery(), false)
	if err != nil {
		return nil, err
	}

	stats := make(map[string]feeds.StatRecord, len(result.Records))
	for _, row := range result.Records {
		flat := flatten.Map(row)
		offerID := asString(flat["segments.offerId"])
		if offerID == "" {
			continue
		}
		stats[offerID] = feeds.StatRecord{
			Impressions: asInt64(flat["metrics.impressions"]),
			Clicks:      asInt64(flat["metrics.clicks"]),
		}
	}

	logging.Ctx(ctx).Info().Int("offers", len(stats)).Msg("Performance report downloaded")
	return stats, nil
}

// benchmarkFromRow maps a flattened report row onto a typed record.
func benchmarkFromRow(flat map[string]any) feeds.BenchmarkRecord {
	return feeds.BenchmarkRecord{
		ProductID:             asString(flat["productView.id"]),
		OfferID:               asString(flat["productView.offerId"]),
		Title:                 asString(flat["productView.title"]),
		Brand:                 asString(flat["productView.brand"]),
		PriceMicros:           asInt64(flat["productView.priceMicros"]),
		CurrencyCode:          asString(flat["productView.currencyCode"]),
		BenchmarkPriceMicros:  asInt64(flat["priceCompetitiveness.benchmarkPriceMicros"]),
		BenchmarkCurrencyCode: asString(flat["priceCompetitiveness.benchmarkPriceCurrencyCode"]),
		CountryCode:           asString(flat["priceCompetitiveness.countryCode"]),
	}
}

// asString reads a scalar as a string, tolerating absent values.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt64 reads a numeric report value. The endpoints serialize 64-bit
// counters and micro-amounts as JSON strings; smaller numbers arrive as
// JSON numbers.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
