package main

import (
	"fmt"

	"github.com/aretw0/switchboard/internal/cli"
	"github.com/aretw0/switchboard/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [conversation-id]",
	Short: "Export the handler topology visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the handlers and their transfer edges.
With a conversation id, the handlers it visited are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			reg, err := loadRegistry(cmd)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(reg, nil))
			return nil
		}

		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		stack, err := cli.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		fmt.Fprint(cmd.OutOrStdout(), cli.Graph(cmd.Context(), stack.Engine, args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
