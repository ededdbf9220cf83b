package errors_test

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/price-visibility-booster/pkg/errors"
)

func TestRetryExhaustedErrorIs(t *testing.T) {
	err := &errors.RetryExhaustedError{
		Endpoint:     "reports.search",
		Attempts:     3,
		PartialCount: 120,
		Err:          errors.NewAPIError("reports.search", 500, "backend error"),
	}

	if !stderrors.Is(err, errors.ErrRetryExhausted) {
		t.Error("RetryExhaustedError should match ErrRetryExhausted")
	}
	if !errors.IsRetryExhausted(err) {
		t.Error("IsRetryExhausted should report true")
	}

	var apiErr *errors.APIError
	if !stderrors.As(err, &apiErr) {
		t.Fatal("should unwrap to APIError")
	}
	if apiErr.Code != 500 {
		t.Errorf("expected code 500, got %d", apiErr.Code)
	}

	if !strings.Contains(err.Error(), "120 rows accumulated") {
		t.Errorf("error message should carry partial count: %s", err.Error())
	}
}

func TestEmptyInputErrorIs(t *testing.T) {
	err := &errors.EmptyInputError{Stage: "batch lookup"}

	if !errors.IsEmptyInput(err) {
		t.Error("EmptyInputError should match ErrEmptyInput")
	}
	if got := err.Error(); got != "batch lookup: no input records" {
		t.Errorf("unexpected message: %s", got)
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := errors.NewAPIError("products.list", 403, "quota exceeded")
	want := "API error from products.list (code 403): quota exceeded"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestValidationErrorIs(t *testing.T) {
	err := errors.NewValidationError("thresholds.below", 0.1, "must not be positive")
	if !errors.IsValidationError(err) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
}
