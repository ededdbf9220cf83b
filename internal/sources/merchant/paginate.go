// Package merchant implements the clients for the three merchant endpoints:
// the report search endpoint (price benchmarks and offer performance), the
// product listing endpoint, and the batch product lookup endpoint. All three
// share one cursor-driven pagination loop with a per-endpoint retry policy.
package merchant

import (
	"context"

	"github.com/google/price-visibility-booster/pkg/errors"
	"github.com/google/price-visibility-booster/pkg/logging"
)

// RetryPolicy governs how a pagination loop reacts to endpoint-reported
// errors. An error whose code is in RetryableCodes is retried on the same
// cursor, immediately and without backoff, up to MaxRetries times across the
// whole fetch; exhausting the budget aborts the run. Any other reported
// error stops the loop silently and the caller receives whatever was
// accumulated.
type RetryPolicy struct {
	MaxRetries     int
	RetryableCodes []int
}

// retryable reports whether an error code is in the policy's retryable set.
func (p RetryPolicy) retryable(code int) bool {
	for _, c := range p.RetryableCodes {
		if c == code {
			return true
		}
	}
	return false
}

// ReportRetryPolicy is the policy for the report search endpoint: internal
// server errors are retried up to three times.
var ReportRetryPolicy = RetryPolicy{MaxRetries: 3, RetryableCodes: []int{500}}

// ListingRetryPolicy is the policy for the product listing and batch lookup
// endpoints: no retries, any reported error stops the loop.
var ListingRetryPolicy = RetryPolicy{}

// apiErrorBody is the error object endpoints report in place of results.
type apiErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// page is the outcome of a single round trip. Exactly one of apiErr or the
// data fields is meaningful. An empty nextCursor terminates the loop.
type page[T any] struct {
	items      []T
	nextCursor string
	totalCount int64
	apiErr     *apiErrorBody
}

// fetchPage performs one round trip for the given cursor. The initial cursor
// is the empty string. Transport-level failures are returned as errors and
// abort the run; endpoint-reported errors travel in page.apiErr so the retry
// policy can act on them.
type fetchPage[T any] func(ctx context.Context, cursor string) (page[T], error)

// Result accumulates all pages of a fetch in arrival order.
type Result[T any] struct {
	Records []T

	// TotalCount is the endpoint-declared total, when the endpoint
	// declares one. Zero otherwise.
	TotalCount int64

	// RetryAttempts counts the transient-error retries spent on this fetch.
	RetryAttempts int
}

// paginate drives a cursor loop to completion.
//
// With countOnly set the loop stops after the first successful page and
// returns that page plus the endpoint-declared total; further pages are
// never requested.
func paginate[T any](ctx context.Context, endpoint string, policy RetryPolicy, countOnly bool, fetch fetchPage[T]) (*Result[T], error) {
	log := logging.Ctx(ctx)

	out := &Result[T]{}
	cursor := ""
	pages := 0

	for {
		pg, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}

		if pg.apiErr != nil {
			apiErr := errors.NewAPIError(endpoint, pg.apiErr.Code, pg.apiErr.Message)

			if policy.retryable(pg.apiErr.Code) {
				if out.RetryAttempts < policy.MaxRetries {
					out.RetryAttempts++
					log.Warn().Int("code", pg.apiErr.Code).
						Int("attempt", out.RetryAttempts).
						Msg("Transient endpoint error, retrying same cursor")
					continue
				}
				return nil, &errors.RetryExhaustedError{
					Endpoint:     endpoint,
					Attempts:     out.RetryAttempts,
					PartialCount: len(out.Records),
					Err:          apiErr,
				}
			}

			// Non-retryable: stop here and hand back what we have.
			log.Warn().Err(apiErr).Int("records", len(out.Records)).
				Msg("Endpoint reported a permanent error, stopping pagination")
			return out, nil
		}

		pages++
		out.Records = append(out.Records, pg.items...)
		if pg.totalCount > 0 {
			out.TotalCount = pg.totalCount
		}

		if countOnly {
			log.Debug().Int64("total", out.TotalCount).
				Msg("Count-only fetch, stopping after first page")
			return out, nil
		}

		if pg.nextCursor == "" {
			log.Debug().Int("pages", pages).Int("records", len(out.Records)).
				Msg("Pagination complete")
			return out, nil
		}
		cursor = pg.nextCursor
	}
}
