package merchant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/price-visibility-booster/pkg/errors"
)

// scriptedPage is one canned round-trip outcome for a fake endpoint.
type scriptedPage struct {
	items  []string
	next   string
	total  int64
	errObj *apiErrorBody
}

// scripted returns a fetchPage that replays the given outcomes in order.
// Calls record the cursor they were invoked with.
func scripted(t *testing.T, script []scriptedPage, cursors *[]string) fetchPage[string] {
	t.Helper()
	call := 0
	return func(_ context.Context, cursor string) (page[string], error) {
		require.Less(t, call, len(script), "fetch called more often than scripted")
		*cursors = append(*cursors, cursor)
		s := script[call]
		call++
		return page[string]{items: s.items, nextCursor: s.next, totalCount: s.total, apiErr: s.errObj}, nil
	}
}

func TestPaginateAccumulatesPagesInOrder(t *testing.T) {
	var cursors []string
	fetch := scripted(t, []scriptedPage{
		{items: []string{"a", "b"}, next: "p2"},
		{items: []string{"c"}, next: "p3"},
		{items: []string{"d"}},
	}, &cursors)

	result, err := paginate(context.Background(), "test", ReportRetryPolicy, false, fetch)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, result.Records)
	assert.Equal(t, []string{"", "p2", "p3"}, cursors)
	assert.Zero(t, result.RetryAttempts)
}

func TestPaginateRetriesSameCursorThenSucceeds(t *testing.T) {
	serverError := &apiErrorBody{Code: 500, Message: "backend error"}

	var cursors []string
	fetch := scripted(t, []scriptedPage{
		{items: []string{"a"}, next: "p2"},
		{errObj: serverError},
		{errObj: serverError},
		{errObj: serverError},
		{items: []string{"b"}},
	}, &cursors)

	result, err := paginate(context.Background(), "test", ReportRetryPolicy, false, fetch)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, result.Records)
	assert.Equal(t, 3, result.RetryAttempts)
	// Every retry re-sends the cursor that failed.
	assert.Equal(t, []string{"", "p2", "p2", "p2", "p2"}, cursors)
}

func TestPaginateRetryExhaustionIsFatal(t *testing.T) {
	serverError := &apiErrorBody{Code: 500, Message: "backend error"}

	var cursors []string
	fetch := scripted(t, []scriptedPage{
		{items: []string{"a", "b"}, next: "p2"},
		{errObj: serverError},
		{errObj: serverError},
		{errObj: serverError},
		{errObj: serverError}, // fourth consecutive transient error
	}, &cursors)

	result, err := paginate(context.Background(), "test", ReportRetryPolicy, false, fetch)
	require.Error(t, err)
	assert.Nil(t, result, "no partial results on a fatal error")

	var exhausted *errors.RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, 2, exhausted.PartialCount, "partial count carried for diagnostics")
}

func TestPaginateNonRetryableStopsSilently(t *testing.T) {
	var cursors []string
	fetch := scripted(t, []scriptedPage{
		{items: []string{"a"}, next: "p2"},
		{errObj: &apiErrorBody{Code: 403, Message: "denied"}},
	}, &cursors)

	result, err := paginate(context.Background(), "test", ReportRetryPolicy, false, fetch)
	require.NoError(t, err, "permanent errors on the report path do not propagate")
	assert.Equal(t, []string{"a"}, result.Records)
}

func TestPaginateZeroRetryPolicyStopsOnTransientCode(t *testing.T) {
	// The listing policy has no retryable codes, so even a 500 stops the
	// loop silently instead of being retried.
	var cursors []string
	fetch := scripted(t, []scriptedPage{
		{items: []string{"a"}, next: "p2"},
		{errObj: &apiErrorBody{Code: 500, Message: "backend error"}},
	}, &cursors)

	result, err := paginate(context.Background(), "test", ListingRetryPolicy, false, fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, result.Records)
	assert.Zero(t, result.RetryAttempts)
}

func TestPaginateCountOnlyStopsAfterFirstPage(t *testing.T) {
	var cursors []string
	fetch := scripted(t, []scriptedPage{
		{items: []string{"a", "b"}, next: "p2", total: 1234},
		// Never requested: count-only stops after page one.
		{items: []string{"c"}},
	}, &cursors)

	result, err := paginate(context.Background(), "test", ReportRetryPolicy, true, fetch)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, result.Records)
	assert.Equal(t, int64(1234), result.TotalCount)
	assert.Equal(t, []string{""}, cursors, "only the first page is requested")
}

func TestPaginateTransportErrorPropagates(t *testing.T) {
	fetch := func(_ context.Context, _ string) (page[string], error) {
		return page[string]{}, errors.New("connection reset")
	}

	_, err := paginate(context.Background(), "test", ReportRetryPolicy, false, fetch)
	require.Error(t, err)
	assert.EqualError(t, err, "connection reset")
}
