package main

import (
	"fmt"
	"os"

	"github.com/aretw0/skphelp/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skphelp",
	Short: "SKP Help is the helpdesk for SKP and E-Kinerja BKN",
	Long: `SKP Help guides employees through E-Kinerja problems with a decision tree,
and serves the helpdesk portal (FAQ, consultation tickets, AI assistant, SKP sync).`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("env", ".env", "Environment file to read settings from")
	rootCmd.PersistentFlags().String("graph", "", "Decision tree YAML file (defaults to the embedded E-Kinerja tree)")
}

// loadConfig reads the environment file named by --env and applies --graph.
func loadConfig(cmd *cobra.Command) *config.Config {
	envFile, _ := cmd.Flags().GetString("env")
	cfg := config.Load(envFile)
	if graphFile, _ := cmd.Flags().GetString("graph"); graphFile != "" {
		cfg.App.GraphFile = graphFile
	}
	return cfg
}
