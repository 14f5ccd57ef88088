package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"gostatlab/adapters/excel"
	"gostatlab/app"
	"gostatlab/domain/dataset"
	"gostatlab/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gostatlab",
		Short:         "Interval estimation and descriptive statistics on categorical samples",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newProportionsCmd(),
		newIntervalCmd(),
		newEstimateCmd(),
		newDescribeCmd(),
		newHistogramCmd(),
		newBinsCmd(),
		newNormalityCmd(),
		newDistributionCmd(),
		newElectionsCmd(),
		newWeatherCmd(),
	)
	return rootCmd
}

// estimationOptions builds service options from the environment.
func estimationOptions(cfg *config.Config) app.EstimationOptions {
	return app.EstimationOptions{
		Z:            cfg.Estimation.Z,
		Precision:    cfg.Estimation.ProportionPrecision,
		BatchLimit:   cfg.Estimation.BatchLimit,
		BatchWorkers: cfg.Estimation.BatchWorkers,
	}
}

// readTable loads a CSV or xlsx file. sep is only used for CSV.
func readTable(path, sep string) (*dataset.Table, error) {
	var opts []excel.ReaderOption
	if sep != "" {
		r, size := utf8.DecodeRuneInString(sep)
		if size != len(sep) {
			return nil, fmt.Errorf("separator must be a single character, got %q", sep)
		}
		opts = append(opts, excel.WithSeparator(r))
	}
	return excel.NewDataReader(path, opts...).ReadTable()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
