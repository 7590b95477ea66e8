// Command salesreport cleans sales exports, builds KPI series and forecasts,
// and writes one report per input file.
//
//	salesreport [flags] file.csv [file.xlsx ...]
//	salesreport [flags] exports/ 'q3/*.xlsx'
//
// A directory argument analyses every CSV and XLSX file directly inside it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/config"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/exporter"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/files"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/infrastructure"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/ingest"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/operations"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/validation"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "salesreport:", err)
		}
		os.Exit(1)
	}
}

type cliOptions struct {
	configPath  string
	granularity string
	horizon     int
	metric      string
	noOutliers  bool
	keepCancel  bool
	sheet       string
	outDir      string
	format      string
	parallel    int
	version     bool
	files       []string
}

func parseFlags(args []string, stderr io.Writer) (cliOptions, error) {
	var o cliOptions
	fs := flag.NewFlagSet("salesreport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "YAML config file (default: search the usual locations)")
	fs.StringVar(&o.granularity, "granularity", "", "day, week or month (default: inferred from the data span)")
	fs.IntVar(&o.horizon, "horizon", 0, "periods to forecast (default: from config)")
	fs.StringVar(&o.metric, "metric", "", "revenue, units or orders (default: from config)")
	fs.BoolVar(&o.noOutliers, "no-outliers", false, "disable IQR outlier removal")
	fs.BoolVar(&o.keepCancel, "keep-cancelled", false, "keep orders whose ID marks a cancellation")
	fs.StringVar(&o.sheet, "sheet", "", "worksheet to read from XLSX inputs")
	fs.StringVar(&o.outDir, "out", "", "output directory (default: from config)")
	fs.StringVar(&o.format, "format", "", "csv, xlsx or json (default: from config)")
	fs.IntVar(&o.parallel, "parallel", 0, "files analysed concurrently (default: from config)")
	fs.BoolVar(&o.version, "version", false, "print version information and exit")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: salesreport [flags] file|dir|glob ...")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.files = fs.Args()
	if o.version {
		return o, nil
	}
	if len(o.files) == 0 {
		fs.Usage()
		return o, errors.New("at least one input file is required")
	}
	if o.granularity != "" {
		g, err := domain.ParseGranularity(strings.ToLower(o.granularity))
		if err != nil {
			return o, err
		}
		o.granularity = string(g)
	}
	switch o.format {
	case "", "csv", "xlsx", "json":
	default:
		return o, fmt.Errorf("unknown format %q", o.format)
	}
	return o, nil
}

// runOptions layers the flags over the pipeline config.
func (o cliOptions) runOptions(cfg config.PipelineConfig) operations.Options {
	opts := operations.OptionsFromConfig(cfg)
	if o.granularity != "" {
		opts.Granularity = domain.Granularity(strings.ToLower(o.granularity))
	}
	if o.horizon > 0 {
		opts.Horizon = o.horizon
	}
	if o.metric != "" {
		opts.Metric = domain.Metric(strings.ToLower(o.metric))
	}
	if o.noOutliers {
		opts.OutlierFiltering = false
	}
	if o.keepCancel {
		opts.DropCancelled = false
	}
	return opts
}

type fileResult struct {
	input   string
	outputs []string
	report  *domain.AnalysisReport
	err     error
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if cli.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}

	var cfg *config.Config
	if cli.configPath != "" {
		cfg, err = config.LoadFrom(cli.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if cli.outDir == "" {
		cli.outDir = cfg.Export.Directory
	}
	if cli.format == "" {
		cli.format = cfg.Export.Format
	}
	if cli.parallel <= 0 {
		cli.parallel = cfg.Pipeline.Parallelism
	}

	logCfg := cfg.Logging
	logCfg.Output = "console"
	logger, _, err := infrastructure.NewLogger(logCfg, stderr)
	if err != nil {
		return err
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()
	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return err
	}

	inputs, err := files.NewDiscovery("").Expand(cli.files)
	if err != nil {
		return err
	}
	validator := validation.NewFileValidator(logger, cfg.Pipeline.MaxUploadBytes)
	if err := validator.ValidateOutputDirectory(cli.outDir); err != nil {
		return err
	}

	manager := operations.NewManager(logger,
		operations.WithTracer(operations.NewOperationTracer(providers, metrics)))
	opts := cli.runOptions(cfg.Pipeline)

	results := make([]fileResult, len(inputs))
	var g errgroup.Group
	g.SetLimit(cli.parallel)
	for i, input := range inputs {
		g.Go(func() error {
			res := fileResult{input: input}
			res.report, res.outputs, res.err = analyzeFile(ctx, manager, validator, input, cli, opts, logger)
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return printResults(stdout, results)
}

// analyzeFile owns its table and report; nothing is shared between files
// except the manager.
func analyzeFile(ctx context.Context, manager *operations.Manager, validator *validation.FileValidator, input string, cli cliOptions, opts operations.Options, logger *slog.Logger) (*domain.AnalysisReport, []string, error) {
	if _, err := validator.ValidateInputFile(input); err != nil {
		return nil, nil, err
	}
	table, err := ingest.ReadFile(input, ingest.Options{Sheet: cli.sheet})
	if err != nil {
		return nil, nil, err
	}
	report, err := manager.Run(ctx, table, opts)
	if err != nil {
		return nil, nil, err
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	outputs, err := writeReport(report, cli.outDir, base, cli.format, logger)
	if err != nil {
		return report, nil, err
	}
	return report, outputs, nil
}

func writeReport(report *domain.AnalysisReport, dir, base, format string, logger *slog.Logger) ([]string, error) {
	switch format {
	case "csv":
		return exporter.NewCSVWriter(filepath.Join(dir, base)).WithLogger(logger).WriteReport(report)
	case "xlsx":
		path := filepath.Join(dir, base+".xlsx")
		return []string{path}, exporter.NewWorkbookWriter(logger).WriteFile(path, report)
	default:
		path := filepath.Join(dir, base+".json")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, err
		}
		return []string{path}, os.WriteFile(path, data, 0o644)
	}
}

func printResults(w io.Writer, results []fileResult) error {
	var errs []error
	for _, res := range results {
		if res.err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", res.input, res.err)
			errs = append(errs, fmt.Errorf("%s: %w", res.input, res.err))
			continue
		}
		r := res.report
		fmt.Fprintf(w, "OK   %s: %d/%d rows kept, %d %s periods, model %s, next %s %.2f\n",
			res.input, r.Audit.OutputRows, r.Audit.InputRows, r.Series.Len(), r.Series.Granularity,
			r.Forecast.Model, r.Metric, firstPoint(r))
		for _, out := range res.outputs {
			fmt.Fprintf(w, "     -> %s\n", out)
		}
	}
	return errors.Join(errs...)
}

func firstPoint(r *domain.AnalysisReport) float64 {
	if len(r.Forecast.Points) == 0 {
		return 0
	}
	return r.Forecast.Points[0].Value
}
