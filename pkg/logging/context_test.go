package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/price-visibility-booster/pkg/logging"
)

func TestWithRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf)

	ctx := logging.WithLogger(context.Background(), &logger)
	ctx = logging.WithRunID(ctx, "run-123")

	if got := logging.RunID(ctx); got != "run-123" {
		t.Errorf("RunID = %q, want run-123", got)
	}

	logging.Ctx(ctx).Info().Msg("fetch started")
	if !strings.Contains(buf.String(), `"run_id":"run-123"`) {
		t.Errorf("log event missing run_id field: %s", buf.String())
	}
}

func TestWithEndpoint(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf)

	ctx := logging.WithLogger(context.Background(), &logger)
	ctx = logging.WithEndpoint(ctx, "reports.search")

	logging.Ctx(ctx).Info().Msg("page fetched")
	if !strings.Contains(buf.String(), `"endpoint":"reports.search"`) {
		t.Errorf("log event missing endpoint field: %s", buf.String())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if logging.FromContext(context.Background()) == nil {
		t.Error("FromContext should never return nil")
	}
	if logging.FromContext(nil) == nil { //nolint:staticcheck // nil context fallback is part of the contract
		t.Error("FromContext(nil) should return the default logger")
	}
}
