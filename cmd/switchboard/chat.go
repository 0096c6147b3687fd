package main

import (
	"context"
	"os"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/cli"
	"github.com/aretw0/switchboard/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the service desk in the terminal",
	Long: `Starts an interactive conversation. Each line is one customer message.
Use /new to start over, /state to inspect the stored conversation,
/graph to print the handler topology and /quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		conversationID, _ := cmd.Flags().GetString("conversation")
		jsonMode, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")
		debug, _ := cmd.Flags().GetBool("debug")

		var opts []switchboard.Option
		if debug {
			opts = append(opts, switchboard.WithLifecycleHooks(cli.DebugHooks(logger)))
		}
		stack, err := cli.Open(cfg, logger, opts...)
		if err != nil {
			return err
		}
		defer stack.Close()

		chatOpts := cli.ChatOptions{
			ConversationID: conversationID,
			Verbose:        verbose,
			JSON:           jsonMode,
		}
		out := cmd.OutOrStdout()
		interactive := !jsonMode && term.IsTerminal(int(os.Stdout.Fd()))
		if interactive {
			tui.PrintBanner(out, switchboard.Version)
			chatOpts.Render = tui.NewRenderer()
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		err = cli.Chat(ctx, stack.Engine, cmd.InOrStdin(), out, chatOpts)
		if sig := ctx.Signal(); sig != nil {
			logger.Debug("Chat interrupted", "signal", sig.String())
		}
		return cli.HandleExecutionError(err)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().String("conversation", "", "Resume an existing conversation")
	chatCmd.Flags().Bool("json", false, "Print one JSON turn result per line")
	chatCmd.Flags().BoolP("verbose", "v", false, "Print the activity log of each turn")

	// 'chat' is the default when no command is provided.
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
