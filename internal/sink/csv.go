package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/google/price-visibility-booster/pkg/errors"
	"github.com/google/price-visibility-booster/pkg/feeds"
	"github.com/google/price-visibility-booster/pkg/logging"
)

// metadataFile records each table's last-updated timestamp next to the data
// files.
const metadataFile = "metadata.csv"

// CSVSink writes each table as <name>.csv in a directory, plus a metadata
// file carrying the last-updated timestamp per table. Files are truncated
// before writing.
type CSVSink struct {
	dir string
}

// NewCSVSink creates a CSV sink rooted at dir, creating it if needed.
func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapIO("create output directory", dir, err)
	}
	return &CSVSink{dir: dir}, nil
}

// Name implements Destination.
func (s *CSVSink) Name() string { return "csv" }

// Write implements Destination.
func (s *CSVSink) Write(ctx context.Context, set feeds.TableSet) error {
	for _, table := range tables(set) {
		tableCtx := logging.WithTable(ctx, table.Name)
		path := filepath.Join(s.dir, table.Name+".csv")
		if err := s.writeTable(path, table); err != nil {
			return err
		}
		logging.Ctx(tableCtx).Info().Str("path", path).
			Int("rows", len(table.Rows)).Msg("Table written")
	}

	return s.writeMetadata(set)
}

// writeTable writes one table: header row first, then the data rows in
// order. os.Create truncates, which is what clears the previous run.
func (s *CSVSink) writeTable(path string, table feeds.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Headers); err != nil {
		return errors.WrapIO("write header", path, err)
	}
	record := make([]string, len(table.Headers))
	for _, row := range table.Rows {
		for i, cell := range row {
			record[i] = formatCell(cell)
		}
		if err := w.Write(record); err != nil {
			return errors.WrapIO("write row", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.WrapIO("flush", path, err)
	}
	return f.Close()
}

// writeMetadata rewrites the metadata file with one line per table.
func (s *CSVSink) writeMetadata(set feeds.TableSet) error {
	path := filepath.Join(s.dir, metadataFile)
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"table", "last_updated"}); err != nil {
		return errors.WrapIO("write header", path, err)
	}
	for _, table := range tables(set) {
		if err := w.Write([]string{table.Name, table.LastUpdated()}); err != nil {
			return errors.WrapIO("write row", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.WrapIO("flush", path, err)
	}
	return f.Close()
}
