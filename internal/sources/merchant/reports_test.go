package merchant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/price-visibility-booster/internal/config"
	"github.com/google/price-visibility-booster/internal/transport"
	"github.com/google/price-visibility-booster/pkg/errors"
	"github.com/google/price-visibility-booster/pkg/feeds"
)

func benchmarkRow(id, offerID string, priceMicros, benchmarkMicros string) map[string]any {
	return map[string]any{
		"productView": map[string]any{
			"id":           id,
			"offerId":      offerID,
			"title":        "Title " + offerID,
			"brand":        "Brand",
			"priceMicros":  priceMicros,
			"currencyCode": "USD",
		},
		"priceCompetitiveness": map[string]any{
			"countryCode":                "US",
			"benchmarkPriceMicros":       benchmarkMicros,
			"benchmarkPriceCurrencyCode": "USD",
		},
	}
}

func testRules() *config.Rules {
	return &config.Rules{CountryCode: "US", CurrencyCode: "USD"}
}

func TestFetchBenchmarksPaginates(t *testing.T) {
	var requests []searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/merchants/12345/reports/search", r.URL.Path)

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		var body map[string]any
		if req.PageToken == "" {
			body = map[string]any{
				"results": []any{
					benchmarkRow("online:en:US:1", "O1", "1100000", "1000000"),
					benchmarkRow("online:en:US:2", "O2", "900000", "1000000"),
				},
				"nextPageToken": "page-2",
			}
		} else {
			body = map[string]any{
				"results": []any{
					benchmarkRow("online:en:US:3", "O3", "1000000", "0"),
				},
			}
		}
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	defer server.Close()

	client := NewReportsClient(transport.New(&transport.NoAuth{}), server.URL+"/merchants", "12345")

	records, err := client.FetchBenchmarks(context.Background(), testRules())
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, feeds.BenchmarkRecord{
		ProductID:             "online:en:US:1",
		OfferID:               "O1",
		Title:                 "Title O1",
		Brand:                 "Brand",
		PriceMicros:           1100000,
		CurrencyCode:          "USD",
		BenchmarkPriceMicros:  1000000,
		BenchmarkCurrencyCode: "USD",
		CountryCode:           "US",
	}, records[0])
	assert.Equal(t, "O3", records[2].OfferID, "arrival order preserved across pages")

	require.Len(t, requests, 2)
	assert.Contains(t, requests[0].Query, "FROM PriceCompetitivenessProductView")
	assert.Contains(t, requests[0].Query, "price_competitiveness.country_code = 'US'")
	assert.Contains(t, requests[0].Query, "product_view.currency_code = 'USD'")
	assert.Equal(t, "page-2", requests[1].PageToken)
}

func TestFetchBenchmarksRetryExhaustion(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend error"}}`))
	}))
	defer server.Close()

	client := NewReportsClient(transport.New(&transport.NoAuth{}), server.URL, "12345")

	_, err := client.FetchBenchmarks(context.Background(), testRules())
	require.Error(t, err)
	assert.True(t, errors.IsRetryExhausted(err))
	assert.Equal(t, 4, calls, "initial attempt plus three retries")
}

func TestFetchBenchmarksRetriesServerErrorStatus(t *testing.T) {
	// The endpoint pairs its error envelope with the matching HTTP status;
	// a 500 must still reach the retry policy rather than abort the run.
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend error"}}`))
			return
		}
		body := map[string]any{
			"results": []any{benchmarkRow("online:en:US:1", "O1", "1100000", "1000000")},
		}
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	defer server.Close()

	client := NewReportsClient(transport.New(&transport.NoAuth{}), server.URL, "12345")

	records, err := client.FetchBenchmarks(context.Background(), testRules())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 3, calls, "two transient failures then success")
}

func TestFetchBenchmarksPermanentErrorReturnsAccumulated(t *testing.T) {
	page := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		page++
		if page == 1 {
			body := map[string]any{
				"results":       []any{benchmarkRow("online:en:US:1", "O1", "1100000", "1000000")},
				"nextPageToken": "page-2",
			}
			require.NoError(t, json.NewEncoder(w).Encode(body))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
	}))
	defer server.Close()

	client := NewReportsClient(transport.New(&transport.NoAuth{}), server.URL, "12345")

	records, err := client.FetchBenchmarks(context.Background(), testRules())
	require.NoError(t, err, "report path swallows permanent errors")
	assert.Len(t, records, 1)
}

func TestSearchCountOnly(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.ReturnTotalResultsCount)

		body := map[string]any{
			"results":           []any{benchmarkRow("online:en:US:1", "O1", "1100000", "1000000")},
			"nextPageToken":     "page-2",
			"totalResultsCount": "321",
		}
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	defer server.Close()

	client := NewReportsClient(transport.New(&transport.NoAuth{}), server.URL, "12345")

	result, err := client.Search(context.Background(), statsQuery(), true)
	require.NoError(t, err)

	assert.Equal(t, int64(321), result.TotalCount)
	assert.Len(t, result.Records, 1)
	assert.Equal(t, 1, calls, "count-only never requests a second page")
}

func TestCountBenchmarksUnquotedTotal(t *testing.T) {
	// The endpoint serializes the total sometimes as a JSON number and
	// sometimes as a quoted string; both must decode.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[],"totalResultsCount":321}`))
	}))
	defer server.Close()

	client := NewReportsClient(transport.New(&transport.NoAuth{}), server.URL, "12345")

	total, err := client.CountBenchmarks(context.Background(), testRules())
	require.NoError(t, err)
	assert.Equal(t, int64(321), total)
}

func TestFetchStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{
			"results": []any{
				map[string]any{
					"segments": map[string]any{"offerId": "O1"},
					"metrics":  map[string]any{"impressions": "10", "clicks": "2"},
				},
				map[string]any{
					"segments": map[string]any{"offerId": "O2"},
					"metrics":  map[string]any{"impressions": 7.0, "clicks": 0.0},
				},
				map[string]any{
					// No offer id: skipped.
					"metrics": map[string]any{"impressions": "99"},
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	defer server.Close()

	client := NewReportsClient(transport.New(&transport.NoAuth{}), server.URL, "12345")

	stats, err := client.FetchStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]feeds.StatRecord{
		"O1": {Impressions: 10, Clicks: 2},
		"O2": {Impressions: 7, Clicks: 0},
	}, stats)
}

func TestFetchBenchmarksHTMLInterstitial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<!DOCTYPE html><html><body>Sign in</body></html>"))
	}))
	defer server.Close()

	client := NewReportsClient(transport.New(&transport.NoAuth{}), server.URL, "12345")

	// The interstitial decodes as an empty page: no results, no next
	// cursor, loop ends cleanly.
	records, err := client.FetchBenchmarks(context.Background(), testRules())
	require.NoError(t, err)
	assert.Empty(t, records)
}
