package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gostatlab/adapters/excel"
	"gostatlab/adapters/infoclimat"
	"gostatlab/adapters/postgres"
	"gostatlab/app"
	"gostatlab/domain/distributions"
	"gostatlab/domain/sampling"
	"gostatlab/internal/config"
	"gostatlab/internal/errors"
	"gostatlab/internal/report"
	"gostatlab/ports"

	"github.com/spf13/cobra"
)

func newProportionsCmd() *cobra.Command {
	var categories string
	var counts []int64
	var precision int

	cmd := &cobra.Command{
		Use:   "proportions",
		Short: "Compute the observed proportions of one sample",
		Long: `Compute count/n for every category of a sample.

Example: gostatlab proportions --categories Pour,Contre,"Sans opinion" --counts 40,45,15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sample, err := sampling.NewSample(splitList(categories), counts)
			if err != nil {
				return err
			}
			props, err := sampling.ComputeProportion(sample, precision)
			if err != nil {
				return err
			}
			for _, p := range props {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%g\n", p.Category, p.Value)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&categories, "categories", "", "Comma-separated category names")
	cmd.Flags().Int64SliceVar(&counts, "counts", nil, "Comma-separated counts, one per category")
	cmd.Flags().IntVar(&precision, "precision", 2, "Decimals kept in proportions")
	_ = cmd.MarkFlagRequired("categories")
	_ = cmd.MarkFlagRequired("counts")

	return cmd
}

func newIntervalCmd() *cobra.Command {
	var p, z, reference float64
	var n int64
	var policy string

	cmd := &cobra.Command{
		Use:   "interval",
		Short: "Compute a confidence or fluctuation interval",
		Long: `Compute p ± z·sqrt(p(1-p)/n) and optionally test a reference against it.

Example: gostatlab interval --p 0.4 --n 100 --reference 0.39`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pol, err := sampling.ParsePolicy(policy)
			if err != nil {
				return err
			}
			iv, err := sampling.ComputeInterval(p, n, z, pol)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s interval: %s\n", pol, iv)
			if cmd.Flags().Changed("reference") {
				c, err := sampling.ClassifyContainment(reference, iv)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "reference %g: %s\n", reference, c)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&p, "p", 0, "Observed or reference proportion")
	cmd.Flags().Int64Var(&n, "n", 0, "Sample size")
	cmd.Flags().Float64Var(&z, "z", sampling.DefaultZ, "Normal quantile")
	cmd.Flags().StringVar(&policy, "policy", string(sampling.PolicyConfidence), "confidence or fluctuation")
	cmd.Flags().Float64Var(&reference, "reference", 0, "Reference proportion to test")
	_ = cmd.MarkFlagRequired("p")
	_ = cmd.MarkFlagRequired("n")

	return cmd
}

func newEstimateCmd() *cobra.Command {
	var columns, sep, format, label, output string
	var referenceCounts []int64
	var sample int
	var persist bool

	cmd := &cobra.Command{
		Use:   "estimate [samples-file]",
		Short: "Run fluctuation, confidence and batch estimation over a samples table",
		Long: `Each row of the samples file is one sample; each column is a category.

Reference counts give the known population (e.g. 852,911,422) in category order.

Example: gostatlab estimate Echantillonnage-100-Echantillons.csv --reference-counts 852,911,422 --format markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			table, err := readTable(args[0], sep)
			if err != nil {
				return err
			}

			var repo ports.ReportRepository
			if persist {
				if !cfg.Database.Enabled() {
					return errors.ConfigInvalid("--persist requires DATABASE_URL")
				}
				db, err := postgres.Connect(cmd.Context(), cfg.Database)
				if err != nil {
					return err
				}
				defer db.Close()
				repo = postgres.NewReportRepository(db)
			}
			svc := app.NewEstimationService(estimationOptions(cfg), repo)

			cats := splitList(columns)
			if len(cats) == 0 {
				cats = table.Headers
			}
			var refs sampling.Proportions
			if len(referenceCounts) > 0 {
				if refs, err = svc.ReferenceFromCounts(cats, referenceCounts); err != nil {
					return errors.Wrap(err, "invalid reference counts")
				}
			}

			if label == "" {
				label = filepath.Base(args[0])
			}
			result, err := svc.Estimate(cmd.Context(), app.EstimateRequest{
				Label:      label,
				Table:      table,
				Columns:    splitList(columns),
				References: refs,
				Sample:     sample,
				Persist:    persist,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			switch format {
			case "json":
				return printJSON(out, result)
			case "markdown", "md":
				_, err = fmt.Fprint(out, report.Markdown(result))
			case "html":
				_, err = out.Write(report.HTML(result))
			default:
				return errors.InvalidInput(fmt.Sprintf("unknown format %q", format))
			}
			return err
		},
	}

	cmd.Flags().StringVar(&columns, "columns", "", "Comma-separated category columns (default: all)")
	cmd.Flags().Int64SliceVar(&referenceCounts, "reference-counts", nil, "Population counts per category")
	cmd.Flags().IntVar(&sample, "sample", 0, "Row used for the confidence step")
	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: json, markdown or html")
	cmd.Flags().StringVar(&label, "label", "", "Report label (default: file name)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to a file")
	cmd.Flags().BoolVar(&persist, "persist", false, "Store the report in DATABASE_URL")
	cmd.Flags().StringVar(&sep, "sep", "", "CSV field separator")

	return cmd
}

func newDescribeCmd() *cobra.Command {
	var column, sep string

	cmd := &cobra.Command{
		Use:   "describe [file]",
		Short: "Summarize numeric columns (central tendency, dispersion, box plot)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readTable(args[0], sep)
			if err != nil {
				return err
			}
			svc := app.NewDescriptiveService()
			if column == "" {
				reports, err := svc.DescribeTable(table)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), reports)
			}
			values, err := table.NumericColumn(column)
			if err != nil {
				return err
			}
			result, err := svc.DescribeValues(column, values)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Single column to describe (default: every numeric column)")
	cmd.Flags().StringVar(&sep, "sep", "", "CSV field separator")

	return cmd
}

func newHistogramCmd() *cobra.Command {
	var column, sep string
	var bins int
	var density bool

	cmd := &cobra.Command{
		Use:   "histogram [file]",
		Short: "Bin a numeric column into equal-width bins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readTable(args[0], sep)
			if err != nil {
				return err
			}
			h, err := app.NewDescriptiveService().Histogram(table, column, bins, density)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), h)
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Numeric column")
	cmd.Flags().IntVar(&bins, "bins", 10, "Number of bins")
	cmd.Flags().BoolVar(&density, "density", false, "Normalize counts to a density")
	cmd.Flags().StringVar(&sep, "sep", "", "CSV field separator")
	_ = cmd.MarkFlagRequired("column")

	return cmd
}

func newBinsCmd() *cobra.Command {
	var column, sep string

	cmd := &cobra.Command{
		Use:   "bins [file]",
		Short: "Count islands per surface category (km²)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readTable(args[0], sep)
			if err != nil {
				return err
			}
			result, err := app.NewDescriptiveService().SurfaceBins(table, column)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, b := range result.Bins {
				fmt.Fprintf(out, "%s\t%d\n", b.Label, b.Count)
			}
			if result.Unbinned > 0 {
				fmt.Fprintf(out, "unbinned\t%d\n", result.Unbinned)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&column, "column", "Surface (km²)", "Surface column")
	cmd.Flags().StringVar(&sep, "sep", "", "CSV field separator")

	return cmd
}

func newNormalityCmd() *cobra.Command {
	var column, sep string
	var alpha float64

	cmd := &cobra.Command{
		Use:   "normality [file]",
		Short: "Run a Shapiro-Wilk normality test on a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readTable(args[0], sep)
			if err != nil {
				return err
			}
			values, err := table.NumericColumn(column)
			if err != nil {
				return err
			}
			result, err := app.NewDescriptiveService().Normality(column, values, alpha)
			if err != nil {
				return err
			}
			verdict := "not rejected"
			if !result.Normal {
				verdict = "rejected"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "W=%.4f p=%.4f n=%d: normality %s at alpha=%g\n",
				result.Result.W, result.Result.PValue, result.Result.N, verdict, result.Alpha)
			return nil
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Numeric column")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "Significance level")
	cmd.Flags().StringVar(&sep, "sep", "", "CSV field separator")
	_ = cmd.MarkFlagRequired("column")

	return cmd
}

func newDistributionCmd() *cobra.Command {
	var raw map[string]string

	cmd := &cobra.Command{
		Use:   "distribution [name]",
		Short: "Evaluate a probability law over its grid (no name lists laws)",
		Long: `Evaluate a discrete or continuous law.

Example: gostatlab distribution binomial --param n=20 --param p=0.4`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, name := range distributions.Names() {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			params := distributions.Params{}
			for k, v := range raw {
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return errors.InvalidInput(fmt.Sprintf("parameter %s must be a number, got %q", k, v))
				}
				params[k] = f
			}
			result, err := app.NewDescriptiveService().Distribution(args[0], params)
			if err != nil {
				return err
			}
			return printJSON(out, result)
		},
	}

	cmd.Flags().StringToStringVar(&raw, "param", nil, "Law parameter as key=value, repeatable")

	return cmd
}

func newElectionsCmd() *cobra.Command {
	var sep string

	cmd := &cobra.Command{
		Use:   "elections [results-file]",
		Short: "Analyze presidential election results per department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readTable(args[0], sep)
			if err != nil {
				return err
			}
			summary, err := app.NewElectionService().Analyze(table)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().StringVar(&sep, "sep", ";", "CSV field separator")

	return cmd
}

func newWeatherCmd() *cobra.Command {
	var station, start, end, outDir, format string

	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Download a station export from Infoclimat",
		Long: `Download observations for one station and write them under the data directory:
<station>_data.xlsx holds the observations, <station>_metadata.csv the header comments.

INFOCLIMAT_TOKEN must be set.

Example: gostatlab weather --station ME099 --start 2025-10-01 --end 2025-10-30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Weather.Token == "" {
				return errors.ConfigInvalid("INFOCLIMAT_TOKEN is required")
			}
			if outDir == "" {
				outDir = cfg.Data.Dir
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			client := infoclimat.NewClient(infoclimat.Config{
				BaseURL: cfg.Weather.BaseURL,
				Token:   cfg.Weather.Token,
				Timeout: cfg.Weather.Timeout,
			})
			return downloadWeather(cmd, client, infoclimat.Query{Station: station, Start: start, End: end}, outDir, format)
		},
	}

	cmd.Flags().StringVar(&station, "station", "", "Station identifier")
	cmd.Flags().StringVar(&start, "start", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory (default: DATA_DIR)")
	cmd.Flags().StringVar(&format, "format", infoclimat.FormatCSV, "Export format: csv or json")
	_ = cmd.MarkFlagRequired("station")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func downloadWeather(cmd *cobra.Command, client *infoclimat.Client, q infoclimat.Query, outDir, format string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	dataPath := filepath.Join(outDir, q.Station+"_data.xlsx")

	switch format {
	case infoclimat.FormatJSON:
		table, err := client.FetchJSON(ctx, q)
		if err != nil {
			return err
		}
		if err := excel.WriteXLSX(dataPath, table); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(table.Rows), dataPath)
		return nil
	case infoclimat.FormatCSV:
	default:
		return errors.InvalidInput(fmt.Sprintf("unknown format %q", format))
	}

	sections, err := client.FetchCSV(ctx, q)
	if err != nil {
		return err
	}
	data, err := sections.DataTable()
	if err != nil {
		return err
	}
	if err := excel.WriteXLSX(dataPath, data); err != nil {
		return err
	}
	meta, err := sections.MetadataTable()
	if err != nil {
		return err
	}
	metaPath := filepath.Join(outDir, q.Station+"_metadata.csv")
	if err := excel.WriteCSV(metaPath, meta, ';'); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s and %d metadata lines to %s\n",
		len(data.Rows), dataPath, len(meta.Rows), metaPath)
	return nil
}
