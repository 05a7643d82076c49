package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/service/accessor"
)

func newQueryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read stored records",
	}
	cmd.AddCommand(
		newQueryIncidentsCmd(opts),
		newQueryBenchmarksCmd(opts),
		newQueryEvaluationsCmd(opts),
		newQueryVersionsCmd(opts),
		newQueryCatalogCmd(opts),
	)
	return cmd
}

// queryCommand wires a query subcommand to the data accessor.
func queryCommand(opts *rootOptions, use, short string, run func(ctx context.Context, cmd *cobra.Command, a *app, da *accessor.DataAccessor) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(opts, "query_"+use, func(ctx context.Context, a *app) error {
		da, err := a.dataAccessor(ctx)
		if err != nil {
			return err
		}
		return run(ctx, cmd, a, da)
	})
	return cmd
}

// writeOne prints a single record, or null when it is absent.
func (a *app) writeOne(r risk.Record, ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return a.writeJSON(nil)
	}
	return a.writeJSON(r.JSONSafe())
}

func (a *app) writeMany(records []risk.Record, err error) error {
	if err != nil {
		return err
	}
	return a.writeJSON(risk.JSONSafeAll(records))
}

func newQueryIncidentsCmd(opts *rootOptions) *cobra.Command {
	var id, category, quarter, origin, keyword string
	var recent, limit int

	cmd := queryCommand(opts, "incidents", "Query incidents", func(ctx context.Context, cmd *cobra.Command, a *app, da *accessor.DataAccessor) error {
		inc := da.Incidents
		switch {
		case id != "":
			return a.writeOne(inc.GetByID(ctx, id))
		case category != "":
			return a.writeMany(inc.GetByRiskCategory(ctx, category, limit))
		case quarter != "":
			return a.writeMany(inc.GetByQuarter(ctx, quarter))
		case origin != "":
			return a.writeMany(inc.GetByActorOrigin(ctx, origin))
		case keyword != "":
			return a.writeMany(inc.SearchByKeyword(ctx, keyword))
		case cmd.Flags().Changed("recent"):
			return a.writeMany(inc.GetRecent(ctx, recent))
		default:
			return a.writeMany(inc.GetAll(ctx, limit))
		}
	})

	fs := cmd.Flags()
	fs.StringVar(&id, "id", "", "incident id")
	fs.StringVar(&category, "risk-category", "", "risk category tag")
	fs.StringVar(&quarter, "quarter", "", `quarter label, e.g. "Q3 2025"`)
	fs.StringVar(&origin, "actor-origin", "", "actor origin country")
	fs.StringVar(&keyword, "keyword", "", "search headline and description")
	fs.IntVar(&recent, "recent", accessor.DefaultRecentLimit, "latest incidents by reporting date")
	fs.IntVar(&limit, "limit", 0, "maximum rows for list queries")
	cmd.MarkFlagsMutuallyExclusive("id", "risk-category", "quarter", "actor-origin", "keyword", "recent")
	return cmd
}

func newQueryBenchmarksCmd(opts *rootOptions) *cobra.Command {
	var id, name, category string
	var openSource bool
	var recent, limit int

	cmd := queryCommand(opts, "benchmarks", "Query benchmarks", func(ctx context.Context, cmd *cobra.Command, a *app, da *accessor.DataAccessor) error {
		b := da.Benchmarks
		switch {
		case id != "":
			return a.writeOne(b.GetByID(ctx, id))
		case name != "":
			return a.writeOne(b.GetByName(ctx, name))
		case category != "":
			return a.writeMany(b.GetByRiskCategory(ctx, category))
		case openSource:
			return a.writeMany(b.GetOpenSource(ctx))
		case cmd.Flags().Changed("recent"):
			return a.writeMany(b.GetRecent(ctx, recent))
		default:
			return a.writeMany(b.GetAll(ctx, limit))
		}
	})

	fs := cmd.Flags()
	fs.StringVar(&id, "id", "", "benchmark id")
	fs.StringVar(&name, "name", "", "benchmark name")
	fs.StringVar(&category, "risk-category", "", "risk category tag")
	fs.BoolVar(&openSource, "open-source", false, "only openly available benchmarks")
	fs.IntVar(&recent, "recent", accessor.DefaultRecentLimit, "latest benchmarks by date")
	fs.IntVar(&limit, "limit", 0, "maximum rows for list queries")
	cmd.MarkFlagsMutuallyExclusive("id", "name", "risk-category", "open-source", "recent")
	return cmd
}

func newQueryEvaluationsCmd(opts *rootOptions) *cobra.Command {
	var id, publicID, org, model, category string
	var reviewed bool
	var recent, limit int

	cmd := queryCommand(opts, "evaluations", "Query evaluations", func(ctx context.Context, cmd *cobra.Command, a *app, da *accessor.DataAccessor) error {
		e := da.Evaluations
		switch {
		case id != "":
			return a.writeOne(e.GetByID(ctx, id))
		case publicID != "":
			return a.writeOne(e.GetByPublicID(ctx, publicID))
		case org != "":
			return a.writeMany(e.GetByOrganization(ctx, org))
		case model != "":
			return a.writeMany(e.GetByModel(ctx, model))
		case category != "":
			return a.writeMany(e.GetByRiskCategory(ctx, category))
		case reviewed:
			return a.writeMany(e.GetReviewed(ctx))
		case cmd.Flags().Changed("recent"):
			return a.writeMany(e.GetRecent(ctx, recent))
		default:
			return a.writeMany(e.GetAll(ctx, limit))
		}
	})

	fs := cmd.Flags()
	fs.StringVar(&id, "id", "", "evaluation id")
	fs.StringVar(&publicID, "public-id", "", "published evaluation identifier")
	fs.StringVar(&org, "organization", "", "evaluating organization")
	fs.StringVar(&model, "model", "", "evaluated model")
	fs.StringVar(&category, "risk-category", "", "risk category tag")
	fs.BoolVar(&reviewed, "reviewed", false, "only reviewed evaluations")
	fs.IntVar(&recent, "recent", accessor.DefaultRecentLimit, "latest evaluations by release date")
	fs.IntVar(&limit, "limit", 0, "maximum rows for list queries")
	cmd.MarkFlagsMutuallyExclusive("id", "public-id", "organization", "model", "risk-category", "reviewed", "recent")
	return cmd
}

func newQueryVersionsCmd(opts *rootOptions) *cobra.Command {
	var id, name, search string

	cmd := queryCommand(opts, "versions", "Query model versions", func(ctx context.Context, _ *cobra.Command, a *app, da *accessor.DataAccessor) error {
		v := da.Versions
		switch {
		case id != "":
			return a.writeOne(v.GetByID(ctx, id))
		case name != "":
			return a.writeOne(v.GetByName(ctx, name))
		case search != "":
			return a.writeMany(v.SearchByName(ctx, search))
		default:
			return a.writeMany(v.GetAll(ctx))
		}
	})

	fs := cmd.Flags()
	fs.StringVar(&id, "id", "", "version id")
	fs.StringVar(&name, "name", "", "exact version name")
	fs.StringVar(&search, "search", "", "substring of the version name")
	cmd.MarkFlagsMutuallyExclusive("id", "name", "search")
	return cmd
}

func newQueryCatalogCmd(opts *rootOptions) *cobra.Command {
	var id string
	var limit int

	cmd := queryCommand(opts, "catalog", "Query the model catalog", func(ctx context.Context, _ *cobra.Command, a *app, da *accessor.DataAccessor) error {
		if id != "" {
			return a.writeOne(da.Catalog.GetByID(ctx, id))
		}
		return a.writeMany(da.Catalog.GetAll(ctx, limit))
	})

	cmd.Flags().StringVar(&id, "id", "", "catalog entry id")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows")
	return cmd
}
