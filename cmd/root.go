package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabsum/internal/analysis"
	cfgpkg "github.com/KaramelBytes/tabsum/internal/config"
	"github.com/KaramelBytes/tabsum/internal/logging"
	"github.com/KaramelBytes/tabsum/internal/tool"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string
	inputPath string
	// Loader/statistics flags (override config if set)
	flagDelimiter      string
	flagEncoding       string
	flagExcelEngine    string
	flagValueCountsMax int

	// Loaded configuration with flag overrides applied
	cfg    *cfgpkg.Global
	logger *slog.Logger

	// Rejected configuration, reported in the response envelope by stdio mode
	setupErr error
)

var rootCmd = &cobra.Command{
	Use:   "tabsum",
	Short: "tabsum: statistical summaries of CSV, Excel and JSON tables",
	Long: `tabsum summarizes a tabular file (CSV, XLSX, XLS or JSON) into per-column
statistics and a correlation matrix.

Run without a subcommand it acts as a stdio tool: it reads one request
{"arguments":{"file_path":"..."}} from stdin (or --input) and writes one
response {"content":[{"type":"text","text":"..."}]} to stdout.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if setupErr != nil {
			return tool.WriteResponse(cmd.OutOrStdout(), tool.TextResponse(tool.Message(setupErr)))
		}
		var in io.Reader = cmd.InOrStdin()
		if inputPath != "" {
			f, err := os.Open(inputPath)
			if err != nil {
				resp := tool.TextResponse(tool.Message(fmt.Errorf("open input: %w", err)))
				return tool.WriteResponse(cmd.OutOrStdout(), resp)
			}
			defer f.Close()
			in = f
		}
		return newRunner().Serve(in, cmd.OutOrStdout())
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal: setup refers to rootCmd
	rootCmd.PersistentPreRunE = setup
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.tabsum/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging on stderr")
	pf.StringVar(&logFormat, "log-format", "", "log format: text | json (overrides config)")
	pf.StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | any single character (overrides config)")
	pf.StringVar(&flagEncoding, "encoding", "", "CSV character encoding, e.g. utf-8, latin1, windows-1252 (overrides config)")
	pf.StringVar(&flagExcelEngine, "excel-engine", "", "XLSX reader: excelize | tealeg (overrides config)")
	pf.IntVar(&flagValueCountsMax, "value-counts-max", 0, "largest distinct count that still lists value_counts (overrides config)")
	rootCmd.Flags().StringVar(&inputPath, "input", "", "read the request document from this file instead of stdin")
}

// setup loads configuration, applies flag overrides and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	setupErr = nil
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}

	// Apply CLI overrides if provided
	f := cmd.Flags()
	if f.Changed("delimiter") {
		switch flagDelimiter {
		case "tab", `\t`:
			c.CSVDelimiter = "\t"
		default:
			c.CSVDelimiter = flagDelimiter
		}
	}
	if f.Changed("encoding") {
		c.CSVEncoding = flagEncoding
	}
	if f.Changed("excel-engine") {
		c.ExcelEngine = flagExcelEngine
	}
	if f.Changed("value-counts-max") {
		c.ValueCountsMax = flagValueCountsMax
	}
	if f.Changed("log-format") {
		c.LogFormat = logFormat
	}
	if debug {
		c.LogLevel = "debug"
	}
	if err := c.Validate(); err != nil {
		if cmd != rootCmd {
			return err
		}
		// stdio callers always get an envelope back
		setupErr = err
		c = cfgpkg.Defaults()
	}
	cfg = c

	// stdout carries results, so logs always go to stderr
	logger = logging.Setup(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	return nil
}

func analysisOptions() analysis.Options {
	opt := analysis.DefaultOptions()
	if cfg != nil {
		opt.Table = cfg.TableOptions()
		opt.ValueCountsMax = cfg.ValueCountsMax
	}
	opt.Logger = logger
	return opt
}

func newRunner() *tool.Runner {
	return tool.NewRunner(analysisOptions(), logger)
}
