package app

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/google/price-visibility-booster/internal/config"
	"github.com/google/price-visibility-booster/internal/pipeline"
	"github.com/google/price-visibility-booster/internal/sink"
	"github.com/google/price-visibility-booster/internal/sources/merchant"
	"github.com/google/price-visibility-booster/internal/transport"
	"github.com/google/price-visibility-booster/pkg/errors"
	"github.com/google/price-visibility-booster/pkg/logging"
)

// CreateRunCommand creates the run command: one full reconciliation pass.
func (a *App) CreateRunCommand() *cobra.Command {
	var (
		rulesFile string
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, reconcile, and write the feed tables",
		Long: `Run fetches the price-benchmark report, the product stock data, and the
offer performance metrics, reconciles them under the configured rules,
and writes the benchmark detail and supplemental feed tables.

With --dry-run the tables are previewed on the console and no
destination is touched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, clients, err := a.prepare(rulesFile)
			if err != nil {
				return err
			}

			destinations, closeSinks, err := a.buildDestinations(rules, dryRun)
			if err != nil {
				return err
			}
			defer closeSinks()

			p := pipeline.New(rules, clients.reports, clients.products, destinations...)

			ctx := logging.WithLogger(cmd.Context(), a.logger)
			_, err = p.Run(ctx)
			return err
		},
	}

	cmd.Flags().StringVar(&rulesFile, "rules", "", "feed rules file (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview the tables without writing any destination")

	return cmd
}

// CreateCountCommand creates the count command: report the benchmark total
// without downloading the full report.
func (a *App) CreateCountCommand() *cobra.Command {
	var rulesFile string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Show how many benchmark records the report declares",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, clients, err := a.prepare(rulesFile)
			if err != nil {
				return err
			}

			ctx := logging.WithLogger(cmd.Context(), a.logger)
			total, err := clients.reports.CountBenchmarks(ctx, rules)
			if err != nil {
				return err
			}

			cmd.Printf("%d benchmark records for %s/%s\n", total, rules.CountryCode, rules.CurrencyCode)
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesFile, "rules", "", "feed rules file (default from config)")

	return cmd
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("pricebooster %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}

// merchantClients bundles the two endpoint clients a run needs.
type merchantClients struct {
	reports  *merchant.ReportsClient
	products *merchant.ProductsClient
}

// prepare loads the rules and builds the authenticated merchant clients.
func (a *App) prepare(rulesFile string) (*config.Rules, *merchantClients, error) {
	if a.config.MerchantID == "" {
		return nil, nil, errors.NewConfigError("merchant_id",
			"must be set via --merchant, MERCHANT_ID, or the config file", nil)
	}

	if rulesFile == "" {
		rulesFile = a.config.RulesFile
	}
	rules, err := config.Load(rulesFile)
	if err != nil {
		return nil, nil, err
	}

	authenticator, err := a.Authenticator()
	if err != nil {
		return nil, nil, err
	}
	client := transport.New(authenticator)

	return rules, &merchantClients{
		reports:  merchant.NewReportsClient(client, a.config.APIBaseURL, a.config.MerchantID),
		products: merchant.NewProductsClient(client, a.config.APIBaseURL, a.config.MerchantID),
	}, nil
}

// buildDestinations assembles the sink list for a run. Dry runs preview on
// the console only; real runs write CSV and SQLite.
func (a *App) buildDestinations(rules *config.Rules, dryRun bool) ([]sink.Destination, func(), error) {
	if dryRun {
		return []sink.Destination{sink.NewConsoleSink(os.Stdout, rules.CurrencyCode)}, func() {}, nil
	}

	csvSink, err := sink.NewCSVSink(a.config.OutputDir)
	if err != nil {
		return nil, nil, err
	}
	sqliteSink, err := sink.NewSQLiteSink(a.config.DatabasePath)
	if err != nil {
		return nil, nil, err
	}

	closeSinks := func() {
		if err := sqliteSink.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close database")
		}
	}
	return []sink.Destination{csvSink, sqliteSink}, closeSinks, nil
}
