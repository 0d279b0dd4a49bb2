package main

import (
	"github.com/aretw0/concierge/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the agent for configuration errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, opts, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cli.RunValidate(cmd.Context(), cfg, opts.ToolsPath, cmd.OutOrStdout())
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the journeys as a Mermaid flowchart",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, opts, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		journey, _ := cmd.Flags().GetString("journey")
		return cli.RunGraph(cmd.Context(), cfg, opts.ToolsPath, journey, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("journey", "j", "", "Journey ID (every journey when empty)")
}
