package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/user/sdsec/pkg/config"
	"github.com/user/sdsec/pkg/engine"
	"github.com/user/sdsec/pkg/filter"
	"github.com/user/sdsec/pkg/logger"
	"github.com/user/sdsec/pkg/metrics"
	"github.com/user/sdsec/pkg/report"
	"github.com/user/sdsec/pkg/wrappers"
)

var rootCmd = &cobra.Command{
	Use:   "sdsec",
	Short: "Fleet-friendly summary of systemd-analyze security",
	Long: `sdsec runs 'systemd-analyze security', parses the per-unit exposure
findings and reports average exposure, average happiness and the most
exposed units, optionally filtered by predicate.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              runRoot,
}

var (
	DebugMode  bool
	configPath string

	cfg     *config.Config
	runOpts = &runOptions{}
)

type runOptions struct {
	topN        int
	filter      filter.Flags
	jsonOut     bool
	format      string
	metricsFile string
	noColor     bool
}

// request is the fully resolved input of one run
type request struct {
	filter      filter.Filter
	topN        int
	format      report.Format
	metricsFile string
	debug       bool
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer logger.Sync()
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging and echo the raw analyzer output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $SDSEC_CONFIG or ~/.sdsec/config.yaml)")
	bindRunFlags(rootCmd, runOpts)
}

func bindRunFlags(c *cobra.Command, o *runOptions) {
	f := c.Flags()
	f.IntVarP(&o.topN, "top-n", "t", 0, "Number of top services to display")
	f.StringVarP(&o.filter.Predicate, "predicate", "p", "", "Only return services with this predicate (e.g. MEDIUM or EXPOSED)")
	f.BoolVar(&o.filter.OK, "ok", false, `Only return services with the "OK" predicate`)
	f.BoolVar(&o.filter.Medium, "medium", false, `Only return services with the "MEDIUM" predicate`)
	f.BoolVar(&o.filter.Exposed, "exposed", false, `Only return services with the "EXPOSED" predicate`)
	f.BoolVar(&o.filter.Unsafe, "unsafe", false, `Only return services with the "UNSAFE" predicate`)
	f.BoolVar(&o.jsonOut, "json", false, "Output results in JSON (same as --format json)")
	f.StringVarP(&o.format, "format", "f", "", "Output format: text, json or yaml (default from config)")
	f.StringVar(&o.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	f.BoolVar(&o.noColor, "no-color", false, "Disable colored output")

	c.MarkFlagsMutuallyExclusive("ok", "medium", "exposed", "unsafe", "predicate")
	c.MarkFlagsMutuallyExclusive("json", "format")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded
	return logger.Init(cfg.LogLevel, DebugMode)
}

func runRoot(cmd *cobra.Command, args []string) error {
	req, err := resolveRequest(cmd.Flags(), runOpts, cfg)
	if err != nil {
		return err
	}
	if runOpts.noColor || !cfg.Color {
		color.NoColor = true
	}

	analyzer := wrappers.NewSystemdAnalyzeWrapper(cfg.AnalyzerPath, cfg.AnalyzerArgs)
	return runAnalysis(cmd.Context(), analyzer, req, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// resolveRequest merges flags over config defaults. Flags win whenever they
// were given explicitly.
func resolveRequest(flags *pflag.FlagSet, o *runOptions, c *config.Config) (request, error) {
	req := request{
		topN:        engine.Unlimited,
		metricsFile: c.MetricsFile,
		debug:       DebugMode,
	}

	f, err := filter.FromFlags(o.filter)
	if err != nil {
		return req, err
	}
	if !f.IsSet() && c.DefaultPredicate != "" {
		if f, err = filter.New(c.DefaultPredicate); err != nil {
			return req, err
		}
	}
	req.filter = f

	switch {
	case flags.Changed("top-n"):
		if o.topN < 0 {
			return req, fmt.Errorf("--top-n must not be negative, got %d", o.topN)
		}
		req.topN = o.topN
	case c.DefaultTopN != nil:
		req.topN = *c.DefaultTopN
	}

	format := c.Output
	if o.jsonOut {
		format = string(report.FormatJSON)
	} else if flags.Changed("format") {
		format = o.format
	}
	if req.format, err = report.ParseFormat(format); err != nil {
		return req, err
	}

	if flags.Changed("metrics-file") {
		req.metricsFile = o.metricsFile
	}
	return req, nil
}

// runAnalysis performs one run: collect, decode, aggregate, render.
func runAnalysis(ctx context.Context, analyzer wrappers.Analyzer, req request, stdout, stderr io.Writer) error {
	data, err := analyzer.Collect(ctx)
	if err != nil {
		return err
	}

	if req.debug {
		if err := report.EchoRaw(stderr, data); err != nil {
			return err
		}
	}

	if req.filter.IsSet() && !req.filter.Conventional() {
		logger.Debugf("Filtering on non-standard predicate %q", req.filter.Label())
	}

	summary, err := engine.Run(data, req.filter.Selection(req.topN))
	if err != nil {
		return fmt.Errorf("parse %s output: %w", analyzer.Name(), err)
	}

	switch req.format {
	case report.FormatJSON:
		err = report.WriteJSON(stdout, report.NewDocument(summary.Result, req.filter.Label(), time.Now()))
	case report.FormatYAML:
		err = report.WriteYAML(stdout, report.NewDocument(summary.Result, req.filter.Label(), time.Now()))
	default:
		err = report.WriteText(stdout, summary, req.filter)
	}
	if err != nil {
		return err
	}

	if req.metricsFile != "" {
		exporter := metrics.NewExporter()
		exporter.Observe(summary)
		if err := exporter.WriteTextfile(req.metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		logger.Infof("Wrote metrics to %s", req.metricsFile)
	}
	return nil
}
