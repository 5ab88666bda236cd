package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the plan definitions for consistency",
	Long: `Loads every plan and branch, compiles declarative branches and checks that
tree plans only reference known branches. Exits non-zero on the first problem.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, cleanup, err := engineFromFlags(cmd.Context(), cmd)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		defer cleanup()

		out := cmd.OutOrStdout()
		for _, name := range engine.Plans() {
			info, err := engine.Describe(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %-24s %-10s %d actions\n", name, info.Kind, len(info.Actions))
		}
		fmt.Fprintf(out, "Definitions are valid! ✅ (%d plans, %d actions)\n", len(engine.Plans()), engine.Registry().Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
