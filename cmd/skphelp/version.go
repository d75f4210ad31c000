package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/skphelp"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of skphelp",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "skphelp version %s\n", strings.TrimSpace(skphelp.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
