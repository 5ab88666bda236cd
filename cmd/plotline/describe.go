package main

import (
	"fmt"

	"github.com/aretw0/plotline/internal/presentation/graph"
	"github.com/aretw0/plotline/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe [plan]",
	Short: "Describe the registered plans",
	Long: `Without arguments, lists the registered plans. With a plan name, prints its
slots, branches and actions, or a Mermaid diagram (graph TD) with --mermaid.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		engine, cleanup, err := engineFromFlags(ctx, cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, name := range engine.Plans() {
				info, err := engine.Describe(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", name, info.Kind, info.Description)
			}
			return nil
		}

		info, err := engine.Describe(args[0])
		if err != nil {
			return err
		}

		if mermaid, _ := cmd.Flags().GetBool("mermaid"); mermaid {
			var overlay *graph.Overlay
			if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
				snap, err := engine.Session(ctx, sessionID)
				if err != nil {
					return err
				}
				overlay = graph.OverlayFrom(snap, info.Name)
			}
			fmt.Fprint(out, graph.GenerateMermaid(info.Definition, engine.Branches(), overlay))
			return nil
		}

		rendered, err := tui.NewRenderer()(tui.PlanMarkdown(info))
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Bool("mermaid", false, "Print a Mermaid flowchart instead of a description")
	describeCmd.Flags().String("session", "", "Highlight the state of this session on the flowchart")
}
