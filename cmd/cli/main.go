package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"pairstat/adapters/datareadiness/coercer"
	"pairstat/adapters/tabular"
	"pairstat/app"
	"pairstat/domain/dataset"
	"pairstat/internal"
	"pairstat/internal/cleaning"
	"pairstat/internal/config"
	"pairstat/internal/errors"
	"pairstat/internal/report"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func main() {
	// Load environment variables from .env file
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", errors.GetCode(err), err)
		os.Exit(1)
	}
}

// cliEnv carries what PersistentPreRunE loads for the subcommands
type cliEnv struct {
	cfg    *config.Config
	logger *internal.Logger
}

func newRootCmd() *cobra.Command {
	env := &cliEnv{}

	rootCmd := &cobra.Command{
		Use:           "pairstat",
		Short:         "Correlation, ratio and regression analysis of two columns of a table",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			env.cfg = cfg
			env.logger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
			return nil
		},
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(env),
		newColumnsCmd(env),
		newSweepCmd(env),
	)
	return rootCmd
}

type analyzeOptions struct {
	x, y          string
	category      string
	categoryValue string
	export        string
	sheet         string
	predict       []float64
	keepZeroX     bool
	markdown      bool
	noInput       bool
	interactive   bool
}

func newAnalyzeCmd(env *cliEnv) *cobra.Command {
	opts := analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze the relationship between two numeric columns",
		Long: `Load a CSV, XLSX or JSON file, clean the selected columns and report
descriptive statistics, Pearson correlation, the ratio k = y/x and the
linear and log-log regression fits.

Columns and the category filter are asked for interactively when the
flags are missing and stdin is a terminal.

Example: pairstat analyze houses.xlsx --x Area --y Price --category-value "Jane Doe" --export cleaned.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("category") {
				opts.category = env.cfg.Analysis.CategoryColumn
			}
			return runAnalyze(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), env, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.x, "x", "", "Column used as X")
	cmd.Flags().StringVar(&opts.y, "y", "", "Column used as Y")
	cmd.Flags().StringVar(&opts.category, "category", "", "Category column to filter on (default from CATEGORY_COLUMN)")
	cmd.Flags().StringVar(&opts.categoryValue, "category-value", "", "Keep only rows whose category equals this value")
	cmd.Flags().StringVar(&opts.export, "export", "", "Write the cleaned data with the k column to a .csv or .xlsx file")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "XLSX worksheet (default: first sheet)")
	cmd.Flags().Float64SliceVar(&opts.predict, "predict", nil, "X values to predict with both models")
	cmd.Flags().BoolVar(&opts.keepZeroX, "keep-zero-x", false, "Keep rows where X is 0")
	cmd.Flags().BoolVar(&opts.markdown, "markdown", false, "Print the report as markdown")
	cmd.Flags().BoolVar(&opts.noInput, "no-input", false, "Never prompt; fail when --x or --y is missing")
	cmd.Flags().BoolVar(&opts.interactive, "interactive", false, "Prompt even when stdin is not a terminal")

	return cmd
}

func runAnalyze(ctx context.Context, in io.Reader, out io.Writer, env *cliEnv, path string, opts analyzeOptions) error {
	ds, err := loadDataset(ctx, env, path, opts.sheet)
	if err != nil {
		return err
	}

	interactive := !opts.noInput && (opts.interactive || stdinIsTerminal())
	prompter := NewPrompter(in, out)

	if opts.x == "" || opts.y == "" {
		if !interactive {
			return errors.InvalidInput("--x and --y are required when not prompting")
		}
		if opts.x == "" {
			if opts.x, err = prompter.ChooseColumn("X", ds.Columns()); err != nil {
				return err
			}
		}
		if opts.y == "" {
			if opts.y, err = prompter.ChooseColumn("Y", ds.Columns()); err != nil {
				return err
			}
		}
	}

	if opts.categoryValue == "" && interactive && ds.Has(opts.category) {
		if opts.categoryValue, err = prompter.ChooseCategory(opts.category, cleaning.Categories(ds, opts.category)); err != nil {
			return err
		}
	}

	svc := app.NewAnalysisService(env.cfg.Analysis, env.logger)
	rep, err := svc.Analyze(ctx, ds, app.Request{
		Selection:      dataset.Selection{X: opts.x, Y: opts.y},
		CategoryColumn: opts.category,
		CategoryValue:  opts.categoryValue,
		KeepZeroX:      opts.keepZeroX,
		Predict:        opts.predict,
		Source:         filepath.Base(path),
	})
	if err != nil {
		return err
	}

	if opts.markdown {
		fmt.Fprint(out, report.Markdown(rep))
	} else {
		fmt.Fprint(out, report.Text(rep))
	}

	if opts.export != "" {
		if err := exportReport(svc, rep, opts.export); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nExported %d rows to %s\n", rep.Cleaning.RowsOut, opts.export)
	}
	return nil
}

func exportReport(svc *app.AnalysisService, rep *app.Report, path string) error {
	format, err := tabular.DetectFormat(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := svc.Export(f, rep, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newColumnsCmd(env *cliEnv) *cobra.Command {
	var sheet string

	cmd := &cobra.Command{
		Use:   "columns [file]",
		Short: "List the columns of a file with their numeric share",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadDataset(cmd.Context(), env, args[0], sheet)
			if err != nil {
				return err
			}
			writeColumns(cmd.OutOrStdout(), ds, env.cfg.Analysis)
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "XLSX worksheet (default: first sheet)")
	return cmd
}

func writeColumns(out io.Writer, ds *dataset.Dataset, cfg config.AnalysisConfig) {
	tc := coercer.NewTypeCoercer(cleaning.DefaultOptions().Coercion)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tcolumn\tvalues\tnumeric\t")
	for i, name := range ds.Columns() {
		col, _ := ds.Column(name)
		dist := tc.AnalyzeTypeDistribution(col.Values)
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.0f%%\t\n", i, name, dist.ValidCount, dist.NumericRatio*100)
	}
	tw.Flush()
	fmt.Fprintf(out, "\n%d rows\n", ds.Len())
	if ds.Has(cfg.CategoryColumn) {
		fmt.Fprintf(out, "%s values: %d\n", cfg.CategoryColumn, len(cleaning.Categories(ds, cfg.CategoryColumn)))
	}
}

func newSweepCmd(env *cliEnv) *cobra.Command {
	var sheet string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sweep [file] [columns...]",
		Short: "Correlate every pair of columns",
		Long: `Correlate and fit a linear model for every pair of the given columns,
or of every column holding numbers when none are given. Pairs are
listed by |r|, strongest first; failing pairs come last with their error.

Example: pairstat sweep houses.csv Area Price Rooms`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadDataset(cmd.Context(), env, args[0], sheet)
			if err != nil {
				return err
			}
			svc := app.NewAnalysisService(env.cfg.Analysis, env.logger)
			results, err := svc.Sweep(cmd.Context(), ds, args[1:])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			writeSweep(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "XLSX worksheet (default: first sheet)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func writeSweep(out io.Writer, results []app.PairResult) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "x\ty\tn\tr\tp\tslope\tintercept\tR²\t")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\t-\t-\t%s\n", r.Selection.X, r.Selection.Y, r.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t\n",
			r.Selection.X, r.Selection.Y, r.N, r.R, r.PValue, r.Slope, r.Intercept, r.RSquared)
	}
	tw.Flush()
}

func loadDataset(ctx context.Context, env *cliEnv, path, sheet string) (*dataset.Dataset, error) {
	opts := tabular.DefaultReaderOptions()
	opts.Sheet = sheet
	reader, err := tabular.NewDataReader(path, opts, env.logger)
	if err != nil {
		return nil, err
	}
	return reader.ReadData(ctx)
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
