package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tabsum/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set tabsum configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		fmt.Fprintf(out, "csv_delimiter: %q\n", cfg.CSVDelimiter)
		fmt.Fprintf(out, "csv_encoding: %s\n", cfg.CSVEncoding)
		fmt.Fprintf(out, "excel_engine: %s\n", cfg.ExcelEngine)
		fmt.Fprintf(out, "missing_values: %q\n", cfg.MissingValues)
		fmt.Fprintf(out, "value_counts_max: %d\n", cfg.ValueCountsMax)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		// start from the stored file, not the flag-adjusted view
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			c = cfgpkg.Defaults()
		}
		switch key {
		case "log_level":
			c.LogLevel = strings.ToLower(val)
		case "log_format":
			c.LogFormat = strings.ToLower(val)
		case "csv_delimiter":
			if val == "tab" || val == `\t` {
				val = "\t"
			}
			c.CSVDelimiter = val
		case "csv_encoding":
			c.CSVEncoding = val
		case "excel_engine":
			c.ExcelEngine = strings.ToLower(val)
		case "missing_values":
			c.MissingValues = strings.Split(val, ",")
		case "value_counts_max":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for value_counts_max: %v", val)
			}
			c.ValueCountsMax = i
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
