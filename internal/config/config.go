// Package config loads and validates the feed rules that drive a run:
// report filters, pricing band thresholds, label names, the export
// allow-list, and the stock policy. Rules are loaded once at process start
// into an immutable value that is passed explicitly to the fetcher,
// classifier, and reconciler; nothing reads them through globals.
package config

import (
	"math"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/google/price-visibility-booster/pkg/errors"
	"github.com/google/price-visibility-booster/pkg/labels"
)

// Rules is the full per-run feed configuration.
type Rules struct {
	// CountryCode filters the benchmark report to one reporting country.
	CountryCode string `yaml:"country_code"`

	// CurrencyCode filters the benchmark report to offers priced in one currency.
	CurrencyCode string `yaml:"currency_code"`

	// CustomLabelIndex selects which custom_label_<N> feed column receives
	// the pricing label. Merchant feeds expose indexes 0 through 4.
	CustomLabelIndex int `yaml:"custom_label_index"`

	// Thresholds are the three pricing band edges.
	Thresholds ThresholdConfig `yaml:"thresholds"`

	// LabelNames is the merchant-facing text written per band.
	LabelNames LabelNameConfig `yaml:"label_names"`

	// ExportLabels is the allow-list of label names eligible for export.
	ExportLabels []string `yaml:"export_labels"`

	// Stock is the stock-tracking policy.
	Stock StockPolicy `yaml:"stock"`

	// LabelExportEnabled controls whether the supplemental feed table is
	// emitted at all. The detail table is always emitted.
	LabelExportEnabled bool `yaml:"label_export_enabled"`
}

// ThresholdConfig mirrors labels.Thresholds in the rules file.
type ThresholdConfig struct {
	Below float64 `yaml:"below"`
	At    float64 `yaml:"at"`
	Above float64 `yaml:"above"`
}

// LabelNameConfig mirrors labels.Names in the rules file.
type LabelNameConfig struct {
	Below string `yaml:"below"`
	At    string `yaml:"at"`
	Above string `yaml:"above"`
}

// StockPolicy controls the availability/stock eligibility filter.
type StockPolicy struct {
	// Enabled turns stock tracking on. When off the stock filter always
	// passes and the detail table carries no stock column.
	Enabled bool `yaml:"enabled"`

	// AttributeName is the product custom attribute holding the stock count.
	AttributeName string `yaml:"attribute_name"`

	// Threshold is the minimum stock quantity for export.
	Threshold float64 `yaml:"threshold"`
}

// Load reads, validates, and normalizes a rules file.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied rules path
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}

	rules.normalize()
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}

// normalize coerces threshold signs so the classifier's comparison contract
// holds: the below edge is never positive, the at and above edges never
// negative.
func (r *Rules) normalize() {
	r.Thresholds.Below = -math.Abs(r.Thresholds.Below)
	r.Thresholds.At = math.Abs(r.Thresholds.At)
	r.Thresholds.Above = math.Abs(r.Thresholds.Above)
}

// Validate checks the rules for internally consistent values.
func (r *Rules) Validate() error {
	if r.CountryCode == "" {
		return errors.NewValidationError("country_code", r.CountryCode, "must be set")
	}
	if r.CurrencyCode == "" {
		return errors.NewValidationError("currency_code", r.CurrencyCode, "must be set")
	}
	if r.CustomLabelIndex < 0 || r.CustomLabelIndex > 4 {
		return errors.NewValidationError("custom_label_index", r.CustomLabelIndex, "must be between 0 and 4")
	}
	if r.Stock.Enabled && r.Stock.AttributeName == "" {
		return errors.NewValidationError("stock.attribute_name", "", "required when stock tracking is enabled")
	}

	known := map[string]bool{
		r.LabelNames.Below: true,
		r.LabelNames.At:    true,
		r.LabelNames.Above: true,
	}
	for _, name := range r.ExportLabels {
		if !known[name] {
			return errors.NewValidationError("export_labels", name, "not one of the configured label names")
		}
	}
	return nil
}

// BandThresholds returns the normalized classifier thresholds.
func (r *Rules) BandThresholds() labels.Thresholds {
	return labels.Thresholds{
		Below: r.Thresholds.Below,
		At:    r.Thresholds.At,
		Above: r.Thresholds.Above,
	}
}

// BandNames returns the configured label names.
func (r *Rules) BandNames() labels.Names {
	return labels.Names{
		Below: r.LabelNames.Below,
		At:    r.LabelNames.At,
		Above: r.LabelNames.Above,
	}
}
