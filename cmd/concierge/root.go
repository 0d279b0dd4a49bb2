package main

import (
	"fmt"
	"os"

	"github.com/aretw0/concierge/internal/cli"
	"github.com/aretw0/concierge/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Concierge runs guided conversational agents",
	Long: `Concierge serves an agent made of journeys, guidelines and a glossary.
Configuration is read from CONCIERGE_* environment variables; the flags below override it.
Without --agent the built-in healthcare agent is served.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("agent", "", "Path of the agent file (overrides CONCIERGE_AGENT)")
	rootCmd.PersistentFlags().String("tools", "", "Path of a tools.yaml with command tools")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, cli.RunOptions, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, cli.RunOptions{}, err
	}
	if cmd.Flags().Changed("agent") {
		cfg.Agent, _ = cmd.Flags().GetString("agent")
	}
	var opts cli.RunOptions
	opts.ToolsPath, _ = cmd.Flags().GetString("tools")
	opts.Debug, _ = cmd.Flags().GetBool("debug")
	return cfg, opts, nil
}

// withApp runs fn with an engine bound to a context cancelled on SIGINT or SIGTERM.
func withApp(cmd *cobra.Command, fn func(ctx *cli.SignalContext, app *cli.App, cfg config.Config) error) error {
	cfg, opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cli.NewSignalContext(cmd.Context())
	defer ctx.Cancel()

	app, err := cli.NewApp(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.Logger.Error("failed to close session store", "err", err)
		}
	}()
	return fn(ctx, app, cfg)
}
