package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabsum/internal/analysis"
	"github.com/KaramelBytes/tabsum/internal/tool"
	"github.com/KaramelBytes/tabsum/internal/utils"
)

var anaOutputPath string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Summarize a CSV/XLSX/XLS/JSON table and print the report JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := analysis.Analyze(args[0], analysisOptions())
		if err != nil {
			return errors.New(tool.Message(err))
		}
		b, err := utils.PrettyJSON(rep)
		if err != nil {
			return err
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, append(b, '\n')); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report JSON")
}
