package main

import (
	"fmt"

	"github.com/aretw0/plotline"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of plotline",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "plotline version %s\n", plotline.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
