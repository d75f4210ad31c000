package main

import (
	"github.com/aretw0/skphelp"
	"github.com/aretw0/skphelp/internal/cli"
	"github.com/spf13/cobra"
)

var diagnoseCmd = &cobra.Command{
	Use:     "diagnose",
	Aliases: []string{"run"},
	Short:   "Troubleshoot an E-Kinerja problem in the terminal",
	Long: `Walks the decision tree interactively. Type an option number to answer,
'b' to go back, 'r' to restart, 'c' to list the helpdesk contacts and 'q' to quit.

With --session the walk is saved and can be resumed later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		sessionID, _ := cmd.Flags().GetString("session")
		sessionDir, _ := cmd.Flags().GetString("session-dir")
		fresh, _ := cmd.Flags().GetBool("fresh")
		debug, _ := cmd.Flags().GetBool("debug")
		plain, _ := cmd.Flags().GetBool("plain")

		return cli.Diagnose(cmd.Context(), cli.DiagnoseOptions{
			GraphFile:  cfg.App.GraphFile,
			SessionID:  sessionID,
			SessionDir: sessionDir,
			Fresh:      fresh,
			Debug:      debug,
			Plain:      plain,
			Version:    skphelp.Version,
			In:         cmd.InOrStdin(),
			Out:        cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	diagnoseCmd.Flags().StringP("session", "s", "", "Session ID to save and resume")
	diagnoseCmd.Flags().String("session-dir", defaultSessionDir, "Directory for saved sessions")
	diagnoseCmd.Flags().Bool("fresh", false, "Discard the saved session and start over")
	diagnoseCmd.Flags().Bool("debug", false, "Log node transitions to stderr")
	diagnoseCmd.Flags().Bool("plain", false, "Disable the banner and markdown rendering")
}
