package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/infrastructure/database"
	"github.com/davidleathers/aire-backend/internal/infrastructure/repository"
	"github.com/davidleathers/aire-backend/internal/infrastructure/telemetry"
	"github.com/davidleathers/aire-backend/internal/service/collection"
	"github.com/davidleathers/aire-backend/internal/service/pipeline"
	"github.com/davidleathers/aire-backend/internal/service/scoring"
)

var errUnhealthy = errors.New("database is unhealthy")

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "aire",
		Short: "Collect, score and query AI, bio and loss-of-control risk evidence",
		Long: `aire ingests risk incidents, benchmarks and evaluations across three domains,
scores incident severity and stores everything in Postgres for querying.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML configuration file")

	root.AddCommand(
		newIngestCmd(opts),
		newSummaryCmd(opts),
		newQueryCmd(opts),
		newHealthCmd(opts),
	)
	return root
}

// withApp builds the app for one invocation, runs fn and tears it down.
func withApp(opts *rootOptions, name string, fn func(ctx context.Context, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		start := time.Now()
		ctx := cmd.Context()

		a, err := newApp(ctx, opts.configPath, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close(context.Background())
		defer func() { observeCommand(name, start, err) }()

		return fn(ctx, a)
	}
}

type ingestFlags struct {
	dryRun      bool
	showRecords bool
	domains     []string
	kinds       []string
}

type ingestOutput struct {
	*pipeline.RunReport
	Records map[string][]risk.Record `json:"records,omitempty"`
}

func newIngestCmd(opts *rootOptions) *cobra.Command {
	f := &ingestFlags{}
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Collect, process, score and store records",
		Long: `Runs every collector (or the selected ones), validates and normalizes the
records, scores incidents and inserts the result. With --dry-run nothing is
stored and no database is needed.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "skip the store stage")
	cmd.Flags().BoolVar(&f.showRecords, "show-records", false, "include processed records in the output")
	cmd.Flags().StringSliceVar(&f.domains, "domain", nil, "restrict to domains (ai, bio, loss_of_control)")
	cmd.Flags().StringSliceVar(&f.kinds, "kind", nil, "restrict to kinds (incidents, benchmarks, evaluations)")

	cmd.RunE = withApp(opts, "ingest", func(ctx context.Context, a *app) error {
		return runIngest(ctx, a, f)
	})
	return cmd
}

func runIngest(ctx context.Context, a *app, f *ingestFlags) error {
	keys, err := selectKeys(f.domains, f.kinds)
	if err != nil {
		return err
	}

	popts := []pipeline.Option{
		pipeline.WithMetrics(a.metrics),
		pipeline.WithTracer(telemetry.Tracer(instrumentationName)),
	}
	if !f.dryRun {
		store, err := a.store(ctx)
		if err != nil {
			return err
		}
		popts = append(popts, pipeline.WithWriter(store))
		if sc := a.summaryCache(ctx); sc != nil {
			popts = append(popts, pipeline.WithSummaryInvalidator(sc))
		}
	}

	p := pipeline.New(a.cfg.Sources, scoring.NewModel(a.cfg.Scoring), a.logger, popts...)
	report, runErr := p.Run(ctx, pipeline.RunOptions{Keys: keys, DryRun: f.dryRun})
	if report == nil {
		return runErr
	}

	collected, processed, stored := report.Totals()
	observeIngest(collected, processed, stored, report.Fallbacks())

	out := ingestOutput{RunReport: report}
	if f.showRecords {
		out.Records = make(map[string][]risk.Record, len(report.Keys))
		for _, k := range report.Keys {
			out.Records[k.Key.String()] = risk.JSONSafeAll(k.Records)
		}
	}
	if err := a.writeJSON(out); err != nil {
		return err
	}
	return runErr
}

// selectKeys expands domain and kind filters into collector keys. No filters
// selects every key.
func selectKeys(domains, kinds []string) ([]collection.Key, error) {
	if len(domains) == 0 && len(kinds) == 0 {
		return nil, nil
	}

	ds := risk.Domains()
	if len(domains) > 0 {
		ds = ds[:0:0]
		for _, s := range domains {
			d, err := risk.ParseDomain(s)
			if err != nil {
				return nil, err
			}
			ds = append(ds, d)
		}
	}

	ks := risk.Kinds()
	if len(kinds) > 0 {
		ks = ks[:0:0]
		for _, s := range kinds {
			k, err := risk.ParseKind(s)
			if err != nil {
				return nil, err
			}
			if !collectable(k) {
				return nil, fmt.Errorf("kind %s has no collector", k)
			}
			ks = append(ks, k)
		}
	}

	keys := make([]collection.Key, 0, len(ds)*len(ks))
	for _, d := range ds {
		for _, k := range ks {
			keys = append(keys, collection.Key{Domain: d, Kind: k})
		}
	}
	return keys, nil
}

func collectable(k risk.Kind) bool {
	for _, c := range risk.Kinds() {
		if c == k {
			return true
		}
	}
	return false
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print record totals and the most recent records per collection",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().IntVar(&recent, "recent", 5, "recent records per collection")

	cmd.RunE = withApp(opts, "summary", func(ctx context.Context, a *app) error {
		da, err := a.dataAccessor(ctx)
		if err != nil {
			return err
		}
		s, err := da.Summary(ctx, recent)
		if err != nil {
			return err
		}
		return a.writeJSON(s.JSONSafe())
	})
	return cmd
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database connectivity, pool saturation and collection tables",
		Long: `Connects to Postgres and reports pool counters, long running queries and
per-table statistics for every collection. Exits non-zero when unhealthy.`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, "health", func(ctx context.Context, a *app) error {
			if _, err := a.store(ctx); err != nil {
				return err
			}

			tables := make([]string, 0, len(repository.Collections()))
			for _, c := range repository.Collections() {
				tables = append(tables, c.String())
			}

			report := database.NewMonitor(a.pool, a.logger, nil).RunHealthCheck(ctx, tables)
			if report.Connections != nil {
				a.metrics.SetDBPoolAcquired(int64(report.Connections.PoolAcquired))
			}
			if err := a.writeJSON(report); err != nil {
				return err
			}
			if !report.Healthy {
				return errUnhealthy
			}
			return nil
		}),
	}
}
