package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/skphelp/internal/graph"
	"github.com/aretw0/skphelp/internal/validator"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check the decision tree for consistency",
	Long: `Loads the decision tree and reports dangling options, missing solutions and
duplicate ids as errors, and unreachable nodes or unusable contacts as warnings.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := loadConfig(cmd).App.GraphFile
		if len(args) > 0 {
			path = args[0]
		}
		strict, _ := cmd.Flags().GetBool("strict")
		return runValidate(cmd, path, strict)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Treat warnings as errors")
}

func runValidate(cmd *cobra.Command, path string, strict bool) error {
	out := cmd.OutOrStdout()
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen, color.Bold)

	name := path
	if name == "" {
		name = "embedded E-Kinerja tree"
	}

	doc, err := graph.Open(path)
	if err != nil {
		var verr *graph.ValidationError
		if errors.As(err, &verr) {
			red.Fprintf(out, "✗ %s: %d error(s)\n", name, len(verr.Problems))
			for _, p := range verr.Problems {
				red.Fprintf(out, "  - %s\n", p)
			}
			return fmt.Errorf("validation failed")
		}
		return err
	}

	report := validator.Lint(doc)
	for _, w := range report.Warnings {
		yellow.Fprintf(out, "  ! %s\n", w)
	}
	if strict && !report.OK() {
		red.Fprintf(out, "✗ %s: %d warning(s) in strict mode\n", name, len(report.Warnings))
		return fmt.Errorf("validation failed")
	}

	green.Fprintf(out, "✓ %s is valid", name)
	fmt.Fprintf(out, " (%d nodes, %d contacts)\n", report.Nodes, report.Contacts)
	return nil
}
