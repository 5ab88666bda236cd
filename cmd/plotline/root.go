package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/plotline"
	"github.com/aretw0/plotline/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "plotline",
	Short: "Plotline runs plan-driven conversations",
	Long: `Plotline decides the next action of a conversational agent from declarative plans:
slot-filling forms and branch-graph trees, loaded from Markdown, YAML or JSON.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// encryptionKeyEnv holds the session encryption key; it is never taken from a flag.
const encryptionKeyEnv = "PLOTLINE_ENCRYPTION_KEY"

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Directory containing the plan documents")
	flags.StringP("file", "f", "", "YAML/JSON bundle file with plans (overrides --dir)")
	flags.String("actions", "", "Process-backed actions config (default: actions.yaml next to the definitions)")
	flags.String("redis", "", "Redis URL for the session store (e.g. redis://localhost:6379/0)")
	flags.Duration("ttl", 24*time.Hour, "Expiry of sessions stored in Redis")
	flags.Int("max-actions", plotline.DefaultMaxActionsPerTurn, "Maximum actions executed in a single turn")
	flags.StringSlice("mask-slots", nil, "Regex patterns of slot names masked before persisting")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
}

// optionsFromFlags reads the persistent flags.
func optionsFromFlags(cmd *cobra.Command) cli.Options {
	flags := cmd.Flags()
	opts := cli.Options{}
	opts.Dir, _ = flags.GetString("dir")
	opts.File, _ = flags.GetString("file")
	opts.ActionsPath, _ = flags.GetString("actions")
	opts.RedisURL, _ = flags.GetString("redis")
	opts.TTL, _ = flags.GetDuration("ttl")
	opts.MaxActions, _ = flags.GetInt("max-actions")
	opts.MaskSlots, _ = flags.GetStringSlice("mask-slots")
	opts.EncryptionKey = os.Getenv(encryptionKeyEnv)
	opts.Debug, _ = flags.GetBool("debug")
	opts.LogLevel, _ = flags.GetString("log-level")
	return opts
}

// engineFromFlags builds the engine described by the persistent flags.
func engineFromFlags(ctx context.Context, cmd *cobra.Command, extra ...plotline.Option) (*plotline.Engine, func(), error) {
	opts := optionsFromFlags(cmd)
	logger, err := cli.NewLogger(opts.Debug, opts.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cli.CreateEngine(ctx, opts, logger, extra...)
}
