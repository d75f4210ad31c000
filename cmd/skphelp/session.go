package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/aretw0/skphelp/internal/adapters/file"
	"github.com/aretw0/skphelp/pkg/adapters/redis"
	"github.com/aretw0/skphelp/pkg/persistence/middleware"
	"github.com/aretw0/skphelp/pkg/ports"
	"github.com/spf13/cobra"
)

var defaultSessionDir = filepath.Join(".skphelp", "sessions")

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage saved troubleshooting sessions",
	Long: `List, inspect, and remove sessions saved by 'diagnose --session' in the session
directory, or the server's sessions in Redis when --redis (or REDIS_URL) is set.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all saved sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStore(cmd)
		if err != nil {
			return err
		}
		sessions, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No saved sessions found.")
			return nil
		}

		fmt.Fprintln(out, "Saved Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		store, err := getStore(cmd)
		if err != nil {
			return err
		}

		state, err := store.Load(cmd.Context(), sessionID)
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", sessionID, err)
		}

		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling state: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStore(cmd)
		if err != nil {
			return err
		}
		if all, _ := cmd.Flags().GetBool("all"); all {
			if args, err = store.List(cmd.Context()); err != nil {
				return fmt.Errorf("error listing sessions: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, sessionID := range args {
			if err := store.Delete(cmd.Context(), sessionID); err != nil {
				fmt.Fprintf(out, "Error removing '%s': %v\n", sessionID, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "Removed session '%s'\n", sessionID)
		}

		if failed > 0 {
			return fmt.Errorf("failed to remove %d session(s)", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionCmd.PersistentFlags().String("session-dir", defaultSessionDir, "Directory of sessions saved by diagnose")
	sessionCmd.PersistentFlags().String("redis", "", "Redis URL of the server's session store (defaults to REDIS_URL)")
	sessionRmCmd.Flags().Bool("all", false, "Remove every session")
}

func getStore(cmd *cobra.Command) (ports.StateStore, error) {
	cfg := loadConfig(cmd).Session
	redisURL, _ := cmd.Flags().GetString("redis")
	if redisURL == "" && !cmd.Flags().Changed("session-dir") {
		redisURL = cfg.RedisURL
	}
	if redisURL != "" {
		store, err := redis.NewFromURL(redisURL)
		if err != nil || cfg.EncryptionKey == "" {
			return store, err
		}
		// The server seals its sessions; open them with the same keys.
		keys, err := middleware.ParseKeys(cfg.EncryptionKey, cfg.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("invalid session encryption settings: %w", err)
		}
		return middleware.NewEncryptionMiddleware(keys)(store), nil
	}

	dir, _ := cmd.Flags().GetString("session-dir")
	return file.New(dir), nil
}
