package main

import (
	"fmt"

	"github.com/aretw0/skphelp/internal/adapters/file"
	"github.com/aretw0/skphelp/internal/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the decision tree as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) of the decision tree.
With --session, the path of a saved diagnose session is highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := graph.Open(loadConfig(cmd).App.GraphFile)
		if err != nil {
			return fmt.Errorf("error loading decision tree: %w", err)
		}

		var overlay *graph.Overlay
		if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
			dir, _ := cmd.Flags().GetString("session-dir")
			state, err := file.New(dir).Load(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", sessionID, err)
			}
			overlay = &graph.Overlay{Visited: state.Path, Current: state.Path.Current()}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.Mermaid(doc.Graph, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the path of this saved session")
	graphCmd.Flags().String("session-dir", defaultSessionDir, "Directory for saved sessions")
}
