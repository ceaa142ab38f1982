package app

import (
	"context"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/agentstation/utc"
	"github.com/spf13/cobra"

	"github.com/agentstation/periodmap/internal/cmd/output"
	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/discovery"
	"github.com/agentstation/periodmap/pkg/errors"
	"github.com/agentstation/periodmap/pkg/export"
	"github.com/agentstation/periodmap/pkg/gaps"
	"github.com/agentstation/periodmap/pkg/knownperiods"
	"github.com/agentstation/periodmap/pkg/logging"
	"github.com/agentstation/periodmap/pkg/period"
	"github.com/agentstation/periodmap/pkg/reconciler"
	"github.com/agentstation/periodmap/pkg/sources"
)

// discoverView is the raw output of the discover command.
type discoverView struct {
	PassID      string                    `json:"pass_id" yaml:"pass_id"`
	Location    string                    `json:"location" yaml:"location"`
	FetchedAt   utc.Time                  `json:"fetched_at" yaml:"fetched_at"`
	Diagnostics discovery.Diagnostics     `json:"diagnostics" yaml:"diagnostics"`
	Links       []catalogs.DiscoveredLink `json:"links" yaml:"links"`
}

// format returns the validated output format.
func (a *App) format() (output.Format, error) {
	if _, err := output.ParseFormat(a.config.Output); err != nil {
		return "", err
	}
	return output.DetectFormat(a.config.Output), nil
}

// parseCategory accepts a tag in any case; "" and "all" select every category.
func parseCategory(s string) (catalogs.Category, error) {
	if s == "" || s == "all" {
		return "", nil
	}
	return catalogs.ParseCategory(s)
}

// parsePeriod accepts YYYY-MM or a bare year, which leaves the month open.
func parsePeriod(flag, s string) (period.Period, error) {
	if s == "" {
		return period.Period{}, nil
	}
	if len(s) == 4 {
		year, err := strconv.Atoi(s)
		if err != nil {
			return period.Period{}, errors.NewValidationError(flag, s, "must be YYYY or YYYY-MM")
		}
		return period.Period{Year: year}, nil
	}
	p, err := period.Parse(s)
	if err != nil {
		return period.Period{}, errors.NewValidationError(flag, s, "must be YYYY or YYYY-MM")
	}
	return p, nil
}

// requestFlags are the flags shared by the reconciliation commands.
type requestFlags struct {
	category   string
	start      string
	end        string
	preferLive bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "category tag (PMC, PMVG, PF); empty for all")
	cmd.Flags().StringVar(&f.start, "start", "", "first period, YYYY-MM or YYYY (default start year)")
	cmd.Flags().StringVar(&f.end, "end", "", "last period, YYYY-MM or YYYY (default current month)")
	cmd.Flags().BoolVar(&f.preferLive, "prefer-live", false, "crawl the live page for every year")
}

func (f *requestFlags) request() (reconciler.Request, error) {
	category, err := parseCategory(f.category)
	if err != nil {
		return reconciler.Request{}, err
	}
	start, err := parsePeriod("start", f.start)
	if err != nil {
		return reconciler.Request{}, err
	}
	end, err := parsePeriod("end", f.end)
	if err != nil {
		return reconciler.Request{}, err
	}
	return reconciler.Request{Category: category, Start: start, End: end, PreferLive: f.preferLive}, nil
}

// reconcile runs the request for one category or, when none is set, all.
func (a *App) reconcile(ctx context.Context, f *requestFlags) ([]*reconciler.Result, error) {
	req, err := f.request()
	if err != nil {
		return nil, err
	}
	c, err := a.Client()
	if err != nil {
		return nil, err
	}

	var results []*reconciler.Result
	if req.Category == "" {
		results, err = c.LinksAll(ctx, req)
	} else {
		var r *reconciler.Result
		r, err = c.Links(ctx, req)
		results = []*reconciler.Result{r}
	}
	if err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx)
	for _, r := range results {
		for _, w := range r.Warnings {
			logger.Warn().Str("category", r.Request.Category.String()).Msg(w)
		}
		logger.Debug().Msg(r.Summary())
	}
	return results, nil
}

func coverageReports(results []*reconciler.Result) []gaps.CoverageReport {
	reports := make([]gaps.CoverageReport, 0, len(results))
	for _, r := range results {
		reports = append(reports, r.Coverage)
	}
	return reports
}

// NewDiscoverCommand creates the discover command.
func (a *App) NewDiscoverCommand() *cobra.Command {
	var category string
	var diagnostics bool

	cmd := &cobra.Command{
		Use:     "discover",
		GroupID: "discovery",
		Short:   "Crawl the listing page once and print every document link",
		Example: `  periodmap discover
  periodmap discover --category pmvg --diagnostics
  periodmap discover -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := parseCategory(category)
			if err != nil {
				return err
			}
			format, err := a.format()
			if err != nil {
				return err
			}
			c, err := a.Client()
			if err != nil {
				return err
			}

			res, err := c.Discover(cmd.Context(), sources.WithCategory(cat))
			if err != nil {
				return err
			}

			view := discoverView{
				PassID:      res.PassID,
				Location:    res.Location,
				FetchedAt:   res.FetchedAt,
				Diagnostics: res.Diagnostics,
				Links:       res.Catalog.Links(),
			}
			table := output.LinksToTableData(view.Links, format == output.FormatWide)
			if diagnostics {
				table = output.DiagnosticsToTableData(res.Diagnostics)
			}
			return output.Print(cmd.OutOrStdout(), format, table, view)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only keep links of this category")
	cmd.Flags().BoolVar(&diagnostics, "diagnostics", false, "print anchor and drop counters instead of links")
	return cmd
}

// NewNewCommand creates the new command.
func (a *App) NewNewCommand() *cobra.Command {
	var category string
	var dryRun bool

	cmd := &cobra.Command{
		Use:     "new",
		GroupID: "discovery",
		Short:   "Print links whose period is not yet known and mark them known",
		Long: `New crawls the listing page, compares the result with the known periods
cache and prints only the periods seen for the first time. Those periods
are then recorded in the cache, so a second run prints nothing.`,
		Example: `  periodmap new --category pmc
  periodmap new --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := parseCategory(category)
			if err != nil {
				return err
			}
			format, err := a.format()
			if err != nil {
				return err
			}
			c, err := a.Client()
			if err != nil {
				return err
			}

			var fresh *catalogs.Catalog
			if dryRun {
				res, err := c.Discover(cmd.Context(), sources.WithCategory(cat))
				if err != nil {
					return err
				}
				fresh = knownperiods.DiffNew(c.KnownPeriods(), cat, res.Catalog)
			} else {
				fresh, err = c.NewSince(cmd.Context(), cat)
				if err != nil {
					return err
				}
			}

			links := fresh.Links()
			return output.Print(cmd.OutOrStdout(), format,
				output.LinksToTableData(links, format == output.FormatWide), links)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category tag (PMC, PMVG, PF); empty for all")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print new links without updating the cache")
	return cmd
}

// NewKnownCommand creates the known command.
func (a *App) NewKnownCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "known",
		GroupID: "discovery",
		Short:   "Summarize the known periods cache",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := a.format()
			if err != nil {
				return err
			}
			c, err := a.Client()
			if err != nil {
				return err
			}
			known := c.KnownPeriods()
			return output.Print(cmd.OutOrStdout(), format, output.KnownToTableData(known), known)
		},
	}
}

// NewLinksCommand creates the links command.
func (a *App) NewLinksCommand() *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:     "links",
		GroupID: "reconcile",
		Short:   "Print the reconciled links of static captures and the live page",
		Example: `  periodmap links --category pmc --start 2022 --end 2024-06
  periodmap links --prefer-live -o wide`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := a.format()
			if err != nil {
				return err
			}
			results, err := a.reconcile(cmd.Context(), flags)
			if err != nil {
				return err
			}
			var links []catalogs.DiscoveredLink
			for _, r := range results {
				links = append(links, r.Catalog.Links()...)
			}
			return output.Print(cmd.OutOrStdout(), format,
				output.LinksToTableData(links, format == output.FormatWide), links)
		},
	}
	flags.register(cmd)
	return cmd
}

// NewCoverageCommand creates the coverage command.
func (a *App) NewCoverageCommand() *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:     "coverage",
		GroupID: "reconcile",
		Short:   "Report how many expected periods were found, per category",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := a.format()
			if err != nil {
				return err
			}
			results, err := a.reconcile(cmd.Context(), flags)
			if err != nil {
				return err
			}
			reports := coverageReports(results)
			return output.Print(cmd.OutOrStdout(), format, output.CoverageToTableData(reports), reports)
		},
	}
	flags.register(cmd)
	return cmd
}

// NewGapsCommand creates the gaps command.
func (a *App) NewGapsCommand() *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:     "gaps",
		GroupID: "reconcile",
		Short:   "List the expected periods no source provides",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := a.format()
			if err != nil {
				return err
			}
			results, err := a.reconcile(cmd.Context(), flags)
			if err != nil {
				return err
			}
			reports := coverageReports(results)
			raw := make(map[catalogs.Category][]period.Period, len(reports))
			for _, r := range reports {
				raw[r.Category] = r.Gaps
			}
			return output.Print(cmd.OutOrStdout(), format, output.GapsToTableData(reports), raw)
		},
	}
	flags.register(cmd)
	return cmd
}

// NewExportCommand creates the export command.
func (a *App) NewExportCommand() *cobra.Command {
	flags := &requestFlags{}
	var file, delimiter string
	var bom bool

	cmd := &cobra.Command{
		Use:     "export",
		GroupID: "reconcile",
		Short:   "Write the reconciled catalog as delimiter-separated text",
		Example: `  periodmap export --file catalog.csv --bom
  periodmap export --category pf --delimiter ,`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			if utf8.RuneCountInString(delimiter) != 1 {
				return errors.NewValidationError("delimiter", delimiter, "must be a single character")
			}
			d, _ := utf8.DecodeRuneInString(delimiter)
			opts := []export.Option{export.WithDelimiter(d), export.WithBOM(bom)}

			c, err := a.Client()
			if err != nil {
				return err
			}
			if file == "" {
				_, err = c.Export(cmd.Context(), cmd.OutOrStdout(), req, opts...)
				return err
			}
			catalog, err := c.ExportFile(cmd.Context(), file, req, opts...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d links to %s\n", catalog.Len(), file)
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "output file (default stdout)")
	cmd.Flags().StringVar(&delimiter, "delimiter", ";", "column delimiter")
	cmd.Flags().BoolVar(&bom, "bom", false, "prefix a UTF-8 byte order mark")
	return cmd
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "periodmap %s (commit %s, built %s by %s)\n",
				a.version, a.commit, a.date, a.builtBy)
			return err
		},
	}
}
