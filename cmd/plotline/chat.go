package main

import (
	"context"
	"os"

	"github.com/aretw0/plotline"
	"github.com/aretw0/plotline/internal/cli"
	"github.com/aretw0/plotline/internal/presentation/tui"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the engine from the terminal",
	Long: `Starts an interactive session. Each line is a user message written as
"<intent> [slot=value ...]"; the engine runs actions until it listens again.
With --json, each line is a TurnInput object and each result is printed as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts cli.ChatOptions
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Plan, _ = cmd.Flags().GetString("plan")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.Quiet = opts.JSON || !tui.IsTerminal(os.Stdin)

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		base := optionsFromFlags(cmd)
		logger, err := cli.NewLogger(base.Debug, base.LogLevel)
		if err != nil {
			return err
		}
		engine, cleanup, err := cli.CreateEngine(sigCtx, base, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		out := cmd.OutOrStdout()
		if !opts.Quiet {
			tui.PrintBanner(out, plotline.Version)
		}

		chat := cli.NewChat(engine, out, opts, logger)
		if !opts.JSON && tui.IsTerminal(os.Stdout) {
			chat.WithProfile(termenv.ColorProfile())
		}
		if !opts.Quiet {
			chat.Notify("Session '%s' active. Type /help for commands.", opts.SessionID)
		}

		if opts.Watch {
			go func() {
				err := cli.WatchAndReload(sigCtx, engine, logger, func(event string, err error) {
					if err != nil {
						chat.Notify("Change detected in '%s', reload failed: %v", event, err)
						return
					}
					chat.Notify("Change detected in '%s', definitions reloaded.", event)
				})
				if err != nil {
					chat.Notify("watch disabled: %v", err)
				}
			}()
		}

		return cli.HandleExecutionError(chat.Run(sigCtx, os.Stdin))
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "cli", "Session ID")
	chatCmd.Flags().StringP("plan", "p", "", "Plan to activate on start")
	chatCmd.Flags().Bool("json", false, "Read TurnInput JSON lines and print TurnResult JSON lines")
	chatCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")
	chatCmd.Flags().BoolP("watch", "w", false, "Reload definitions when they change")
}
