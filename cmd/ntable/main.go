// Command ntable inspects and converts numeric tables stored as CSV.
package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/numtable/datasource"
	"github.com/YuminosukeSato/numtable/pkg/errors"
	"github.com/YuminosukeSato/numtable/pkg/log"
	"github.com/YuminosukeSato/numtable/preprocessing"
	"github.com/YuminosukeSato/numtable/table"
)

var version = "0.1.0"

// options holds the persistent flags shared by every subcommand.
type options struct {
	logLevel    string
	delimiter   string
	header      bool
	compression string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "ntable",
		Short: "ntable - inspect and convert numeric tables",
		Long: `ntable loads delimited text into a numeric table and works on it through
row and column blocks. Non-numeric columns are coded as categorical.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.SetupLogger(opts.logLevel)
		},
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.delimiter, "delimiter", ",", "Field delimiter of the input file")
	root.PersistentFlags().BoolVar(&opts.header, "header", true, "Treat the first record as column names")
	root.PersistentFlags().StringVar(&opts.compression, "compression", "none", "Arrow stream body codec (none, lz4, zstd)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ntable v%s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
		},
	})
	root.AddCommand(newInspectCmd(opts))
	root.AddCommand(newConvertCmd(opts))
	root.AddCommand(newScaleCmd(opts))
	return root
}

func newInspectCmd(opts *options) *cobra.Command {
	var rows string
	cmd := &cobra.Command{
		Use:   "inspect <file.csv>",
		Short: "Print the shape, column dictionary and a row block of a CSV file",
		Example: `  ntable inspect data.csv
  ntable inspect data.csv --rows 100:20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, count, err := parseRows(rows)
			if err != nil {
				return err
			}
			src, t, err := load(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			return inspect(cmd.OutOrStdout(), src, t, start, count)
		},
	}
	cmd.Flags().StringVar(&rows, "rows", "0:5", "Row block to print as start:count")
	return cmd
}

func newConvertCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <file.csv> <out.arrows>",
		Short: "Convert a CSV file to an Arrow IPC stream",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, t, err := load(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			if err := writeArrow(opts, args[1], t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows x %d columns to %s\n", t.NumRows(), t.NumColumns(), args[1])
			return nil
		},
	}
}

func newScaleCmd(opts *options) *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "scale <file.csv> <out.arrows>",
		Short: "Standardize the numeric columns of a CSV file and write an Arrow IPC stream",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, t, err := load(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			scaled, err := preprocessing.NewStandardScaler(preprocessing.WithBatchSize(batch)).FitTransform(t)
			if err != nil {
				return err
			}
			if err := writeArrow(opts, args[1], scaled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d standardized rows to %s\n", scaled.NumRows(), args[1])
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch-size", preprocessing.DefaultBatchSize, "Rows per block while fitting")
	return cmd
}

func load(ctx context.Context, opts *options, path string) (*datasource.CSVSource, *table.HomogenTable[float64], error) {
	if ctx == nil {
		ctx = context.Background()
	}
	delim := []rune(opts.delimiter)
	if len(delim) != 1 {
		return nil, nil, errors.NewValidationError("delimiter", "must be a single character", opts.delimiter)
	}
	src, err := datasource.OpenCSV(path, datasource.WithDelimiter(delim[0]), datasource.WithHeader(opts.header))
	if err != nil {
		return nil, nil, err
	}
	defer src.Close()

	t, err := src.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return src, t, nil
}

func writeArrow(opts *options, path string, t table.NumericTable) (err error) {
	codec, err := datasource.ParseCompression(opts.compression)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()
	return datasource.WriteArrowIPC(f, t, memory.NewGoAllocator(), datasource.WithCompression(codec))
}

// parseRows parses "start:count".
func parseRows(s string) (int, int, error) {
	a, b, ok := strings.Cut(s, ":")
	start, err1 := strconv.Atoi(a)
	count, err2 := strconv.Atoi(b)
	if !ok || err1 != nil || err2 != nil || start < 0 || count < 0 {
		return 0, 0, errors.NewValidationError("rows", "want start:count with non-negative integers", s)
	}
	return start, count, nil
}

func inspect(w io.Writer, src *datasource.CSVSource, t table.NumericTable, start, count int) error {
	fmt.Fprintf(w, "layout: %s\nrows: %d\ncolumns: %d\n\n", t.Layout(), t.NumRows(), t.NumColumns())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tTYPE\tKIND\tCATEGORIES")
	for j, f := range table.Features(t) {
		cats := "-"
		if f.Kind == table.Categorical {
			cats = strconv.Itoa(f.NumCategories)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", j, f.Name, f.Type, f.Kind, cats)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	count = min(count, max(t.NumRows()-start, 0))
	fmt.Fprintf(w, "\nrows [%d, %d):\n", start, start+count)
	return table.WithRowBlock(t, start, count, table.ReadOnly, func(b *table.Block[float64]) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
		for i := 0; i < b.NumRows(); i++ {
			for j, v := range b.Row(i) {
				fmt.Fprintf(tw, "%s\t", cell(src, j, v))
			}
			fmt.Fprintln(tw)
		}
		return tw.Flush()
	})
}

func cell(src *datasource.CSVSource, col int, v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if cats := src.Categories(col); cats != nil {
		if i := int(v); i >= 0 && i < len(cats) {
			return cats[i]
		}
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
