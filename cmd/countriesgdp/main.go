// Command countriesgdp scrapes the nominal GDP table from Wikipedia and loads
// it into a SQL table, one row per country.
//
//	countriesgdp                         # default run into ./countries_gdp.db
//	countriesgdp --config pipeline.yaml  # file overrides on top of the defaults
//	countriesgdp validate --config pipeline.yaml
//	countriesgdp schema --storage postgres
//	countriesgdp probe --save page.html  # preview rows and keep a snapshot
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"countriesgdp/internal/config"
	"countriesgdp/internal/etl"
	"countriesgdp/internal/logging"
	"countriesgdp/internal/probe"

	// register all backends with the storage factory.
	_ "countriesgdp/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr, os.Getenv).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// flags holds command line overrides. Only flags the user actually set are
// applied, so an unset flag never clobbers the config file.
type flags struct {
	cfgPath        string
	url            string
	sourceFile     string
	storageKind    string
	dsn            string
	table          string
	onConflict     string
	output         string
	format         string
	metricsBackend string
	pushgatewayURL string
	logLevel       string
	logFormat      string
	verbose        bool
}

func (f *flags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.cfgPath, "config", "", "pipeline config path (YAML, or JSON by .json extension); defaults are built in")
	fs.StringVar(&f.url, "url", "", "page to scrape")
	fs.StringVar(&f.sourceFile, "source-file", "", "read a saved HTML snapshot instead of fetching")
	fs.StringVar(&f.storageKind, "storage", "", "storage backend (sqlite, postgres, mssql)")
	fs.StringVar(&f.dsn, "dsn", "", "database DSN (file path for sqlite; overrides env "+config.EnvDSN+")")
	fs.StringVar(&f.table, "table", "", "destination table")
	fs.StringVar(&f.onConflict, "on-conflict", "", "primary key conflict policy: fail or skip")
	fs.StringVarP(&f.output, "output", "o", "", `also write accepted records to this file ("-" for stdout)`)
	fs.StringVar(&f.format, "format", "", "output format: json, jsonl, csv or table (default: from extension)")
	fs.StringVar(&f.metricsBackend, "metrics-backend", "", "metrics backend: none, prompush or datadog (overrides env "+config.EnvMetricsBackend+")")
	fs.StringVar(&f.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env "+config.EnvPushgatewayURL+")")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text or json")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logs")
}

// apply copies the flags that were set on fs into p.
func (f *flags) apply(fs *pflag.FlagSet, p *config.Pipeline) {
	set := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	set("url", &p.Source.URL, f.url)
	if fs.Changed("url") {
		p.Source.Kind = "http"
	}
	if fs.Changed("source-file") {
		p.Source.Kind = "file"
		p.Source.File.Path = f.sourceFile
	}
	set("storage", &p.Storage.Kind, f.storageKind)
	set("dsn", &p.Storage.DB.DSN, f.dsn)
	set("table", &p.Storage.DB.Table, f.table)
	set("on-conflict", &p.Storage.DB.OnConflict, f.onConflict)
	set("output", &p.Output.Path, f.output)
	set("format", &p.Output.Format, f.format)
	set("pushgateway-url", &p.Metrics.PushgatewayURL, f.pushgatewayURL)
	if fs.Changed("pushgateway-url") && !fs.Changed("metrics-backend") {
		p.Metrics.Backend = "prompush"
	}
	set("metrics-backend", &p.Metrics.Backend, f.metricsBackend)
	set("log-level", &p.Log.Level, f.logLevel)
	set("log-format", &p.Log.Format, f.logFormat)
	if f.verbose {
		p.Log.Level = "debug"
	}
}

// load resolves the pipeline: defaults, then the config file, then the
// environment, then flags.
func (f *flags) load(fs *pflag.FlagSet, getenv func(string) string) (config.Pipeline, error) {
	p := config.Default()
	if f.cfgPath != "" {
		var err error
		if p, err = config.Load(f.cfgPath); err != nil {
			return config.Pipeline{}, err
		}
	}
	config.ApplyEnv(&p, getenv)
	f.apply(fs, &p)
	return p, nil
}

var errInvalidConfig = errors.New("configuration is invalid")

// check prints every issue to w and fails when any is an error.
func check(w io.Writer, p config.Pipeline) error {
	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return errInvalidConfig
	}
	return nil
}

func newRootCmd(stdout, stderr io.Writer, getenv func(string) string) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "countriesgdp",
		Short: "Scrape the nominal GDP table and load it into a SQL table.",
		Long: `
Fetches the "List of countries by GDP (nominal)" page, normalizes every table
row, drops rows whose GDP is not a number or whose country was already seen,
and inserts the rest one row at a time.

A primary key conflict with a row from an earlier run aborts the run unless
--on-conflict=skip is given.
`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.load(cmd.Flags(), getenv)
			if err != nil {
				return err
			}
			if err := check(stderr, p); err != nil {
				return err
			}
			return run(cmd.Context(), stderr, p)
		},
	}
	f.register(root.PersistentFlags())
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the resolved configuration and exit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.load(cmd.Flags(), getenv)
			if err != nil {
				return err
			}
			if err := check(stderr, p); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "configuration is valid")
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the CREATE TABLE statement for the configured storage.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.load(cmd.Flags(), getenv)
			if err != nil {
				return err
			}
			ddl, err := etl.Schema(p.Storage)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, ddl)
			return nil
		},
	})

	var probeOpts probe.Options
	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "Fetch the page and preview the rows a run would see, without storing anything.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.load(cmd.Flags(), getenv)
			if err != nil {
				return err
			}
			src, err := etl.NewSource(p.Source)
			if err != nil {
				return err
			}
			res, err := probe.Probe(cmd.Context(), src, etl.Selectors(p.Parser), probeOpts)
			if err != nil {
				return err
			}
			return res.Render(stdout)
		},
	}
	probeCmd.Flags().IntVar(&probeOpts.Sample, "sample", 10, "number of normalized rows to preview")
	probeCmd.Flags().StringVar(&probeOpts.SavePath, "save", "", "save the fetched page here for later --source-file runs")
	root.AddCommand(probeCmd)

	return root
}

// run sets up logging and metrics, then executes one scrape.
func run(ctx context.Context, stderr io.Writer, p config.Pipeline) (err error) {
	logger, closeLog, err := logging.New(p.Log, p.Job, stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	prev := slog.Default()
	slog.SetDefault(logger)
	defer slog.SetDefault(prev)

	flush, err := etl.SetupMetrics(p.Metrics, p.Job)
	if err != nil {
		return err
	}
	defer func() {
		if ferr := flush(); ferr != nil {
			logger.Warn("metrics flush failed", "err", ferr)
		}
	}()

	_, err = etl.Run(ctx, p)
	return err
}
