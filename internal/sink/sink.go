// Package sink persists the projected tables of a run. Every destination
// follows clear-then-write semantics: the previous contents of a table are
// removed before the new rows land, so a run that produces fewer rows never
// leaves stale ones behind.
package sink

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/price-visibility-booster/pkg/feeds"
)

// Destination writes a run's table set to one backing store.
type Destination interface {
	// Name identifies the destination in logs.
	Name() string

	// Write replaces the destination's previous contents with the given
	// tables.
	Write(ctx context.Context, set feeds.TableSet) error
}

// WriteAll writes the table set to each destination in order, stopping at
// the first failure.
func WriteAll(ctx context.Context, set feeds.TableSet, destinations ...Destination) error {
	for _, d := range destinations {
		if err := d.Write(ctx, set); err != nil {
			return fmt.Errorf("sink %s: %w", d.Name(), err)
		}
	}
	return nil
}

// formatCell renders one table cell as text. Floats keep their shortest
// round-trip form so 1.1 never becomes 1.100000.
func formatCell(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(c, 10)
	case int:
		return strconv.Itoa(c)
	default:
		return fmt.Sprint(c)
	}
}

// tables lists the set's present tables in write order.
func tables(set feeds.TableSet) []feeds.Table {
	out := []feeds.Table{set.Detail}
	if set.Supplemental != nil {
		out = append(out, *set.Supplemental)
	}
	return out
}
