package main

import (
	"github.com/aretw0/concierge/internal/cli"
	"github.com/aretw0/concierge/internal/config"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the agent in the terminal",
	Long: `Starts an interactive conversation with the agent.
Type /reset to discard the session and /quit to leave.
With --json the loop speaks JSON Lines: one {"utterance": "..."} per input line, one turn result per output line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.ChatOptions{}
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Effects, _ = cmd.Flags().GetBool("effects")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")

		return withApp(cmd, func(ctx *cli.SignalContext, app *cli.App, _ config.Config) error {
			return cli.RunChat(ctx, app, opts)
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Session ID to resume (random when empty)")
	chatCmd.Flags().Bool("json", false, "Speak JSON Lines on stdin/stdout")
	chatCmd.Flags().Bool("effects", false, "Print side effects under each response")
	chatCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")
}
