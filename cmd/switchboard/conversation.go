package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/switchboard/internal/cli"
	"github.com/spf13/cobra"
)

var conversationCmd = &cobra.Command{
	Use:     "conversation",
	Aliases: []string{"conv"},
	Short:   "Manage persisted conversations",
	Long:    `List, inspect, and remove conversations held by the configured store.`,
}

var conversationLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		ids, err := stack.Engine.Sessions().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing conversations: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No conversations found.")
			return nil
		}
		fmt.Fprintln(out, "Conversations:")
		for _, id := range ids {
			fmt.Fprintln(out, "- "+id)
		}
		return nil
	},
}

var conversationInspectCmd = &cobra.Command{
	Use:   "inspect <conversation-id>",
	Short: "Inspect the history, context and activity log of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		snap, err := stack.Engine.Snapshot(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading conversation '%s': %w", args[0], err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

var conversationRmCmd = &cobra.Command{
	Use:   "rm <conversation-id>...",
	Short: "Remove one or more conversations",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		sessions := stack.Engine.Sessions()
		if all, _ := cmd.Flags().GetBool("all"); all {
			if args, err = sessions.List(cmd.Context()); err != nil {
				return fmt.Errorf("error listing conversations: %w", err)
			}
		}

		var errs []error
		for _, id := range args {
			if err := sessions.Delete(cmd.Context(), id); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed conversation '%s'\n", id)
		}
		return errors.Join(errs...)
	},
}

func openStack(cmd *cobra.Command) (*cli.Stack, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.Open(cfg, logger)
}

func init() {
	rootCmd.AddCommand(conversationCmd)
	conversationCmd.AddCommand(conversationLsCmd)
	conversationCmd.AddCommand(conversationInspectCmd)
	conversationCmd.AddCommand(conversationRmCmd)

	conversationRmCmd.Flags().Bool("all", false, "Remove every stored conversation")
}
