// Command forecast loads a profit-and-loss workbook (or the blank manual entry
// template), forecasts it and prints the forecast and summaries as markdown.
//
//	forecast -in report.xlsx -start 2024 -end 2028 -out exports/
//	forecast -manual
//	forecast -sample demo.xlsx -in demo.xlsx
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"plforecast/internal/config"
	"plforecast/internal/exporter"
	"plforecast/internal/infrastructure"
	"plforecast/internal/services"
	"plforecast/internal/validation"
	"plforecast/pkg/contracts/domain"
)

type options struct {
	in      string
	manual  bool
	start   int
	end     int
	out     string
	sample  string
	sheet   string
	verbose bool
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code: 0 on success,
// 1 on a load or export failure, 2 on bad flags.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if opts.sheet != "" {
		cfg.Forecast.SheetName = opts.sheet
	}

	// stderr carries only the final error line unless -v is set.
	logCfg := cfg.Logging
	logCfg.Level = "debug"
	logOutput := io.Discard
	if opts.verbose {
		logOutput = stderr
	}
	logger := infrastructure.NewLogger(logCfg, logOutput)

	// One trace id per invocation ties the -v log lines together.
	ctx = infrastructure.EnsureTraceID(ctx)
	if err := execute(ctx, opts, cfg, logger, stdout); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("forecast", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.in, "in", "", "workbook to load (.xlsx or .xls)")
	fs.BoolVar(&opts.manual, "manual", false, "use the blank manual entry template instead of a workbook")
	fs.IntVar(&opts.start, "start", 0, "first year of the forecast horizon (default from configuration)")
	fs.IntVar(&opts.end, "end", 0, "last year of the forecast horizon (default from configuration)")
	fs.StringVar(&opts.out, "out", "", "directory to export forecast.csv, summary.csv, executive.csv and forecast.xlsx into")
	fs.StringVar(&opts.sample, "sample", "", "write the demo workbook to this path")
	fs.StringVar(&opts.sheet, "sheet", "", "worksheet to read (default \""+config.DefaultSheetName+"\")")
	fs.BoolVar(&opts.verbose, "v", false, "log loading details to stderr")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.in != "" && opts.manual {
		return opts, errors.New("-in and -manual are mutually exclusive")
	}
	if opts.in == "" && !opts.manual && opts.sample == "" {
		return opts, errors.New("one of -in, -manual or -sample is required")
	}
	return opts, nil
}

func execute(ctx context.Context, opts options, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	if opts.sample != "" {
		if err := exporter.WriteSampleWorkbook(opts.sample); err != nil {
			return fmt.Errorf("failed to write sample workbook: %w", err)
		}
		fmt.Fprintf(stdout, "Sample workbook written to %s\n", opts.sample)
		if opts.in == "" && !opts.manual {
			return nil
		}
		fmt.Fprintln(stdout)
	}

	validator := validation.NewFileValidator(logger)
	if opts.in != "" {
		if err := validator.ValidateWorkbookFile(opts.in); err != nil {
			return err
		}
	}
	if opts.out != "" {
		if err := validator.ValidateOutputDirectory(opts.out); err != nil {
			return err
		}
	}

	svc := services.NewAnalysisService(cfg.Forecast, nil, logger)

	var table *domain.Table
	source := "manual entry template"
	if opts.manual {
		table = svc.Template()
	} else {
		loaded, _, err := svc.LoadFile(ctx, opts.in)
		if err != nil {
			return err
		}
		table = loaded
		source = opts.in
	}

	analysis, err := svc.Analyze(ctx, table, opts.start, opts.end)
	if err != nil {
		return err
	}

	printReport(stdout, source, analysis)

	if opts.out != "" {
		files, err := svc.Export(ctx, opts.out, analysis)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Fprintf(stdout, "\nExported %d files to %s\n", len(files), opts.out)
	}
	return nil
}

func printReport(w io.Writer, source string, analysis *domain.Analysis) {
	forecast := analysis.Forecast
	fmt.Fprintf(w, "# Profit and Loss Forecast %d-%d\n\n", forecast.StartYear, forecast.EndYear)
	fmt.Fprintf(w, "Source: %s\n", source)
	if len(forecast.ProjectedYears) > 0 {
		fmt.Fprintf(w, "Projected years: %s\n", strings.Join(forecast.ProjectedYears, ", "))
	}

	fmt.Fprintf(w, "\n## Forecast\n\n%s", exporter.TableToMarkdown(&forecast.Table))
	fmt.Fprintf(w, "\n## Summary\n\n%s", exporter.ViewToMarkdown(analysis.Summary))
	fmt.Fprintf(w, "\n## Executive Summary\n\n%s", exporter.ViewToMarkdown(analysis.Executive))

	if len(analysis.NetProfitTrend) > 0 {
		fmt.Fprint(w, "\n## Net Profit Trend\n\n| Year | Net Profit |\n| :--- | ---: |\n")
		for _, p := range analysis.NetProfitTrend {
			fmt.Fprintf(w, "| %s | %s |\n", p.Year, strconv.FormatFloat(p.Value, 'f', 2, 64))
		}
	}
}
