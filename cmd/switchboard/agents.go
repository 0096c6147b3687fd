package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the handlers, their tools and transfer targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		handlers := reg.Describe()

		if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(handlers)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "HANDLER\tTOOLS\tTRANSFERS TO\tFILTERS")
		for _, h := range handlers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", h.Name, list(h.Tools), list(h.TransfersTo), list(h.RequiredFilters))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nRegistry version %s, triage %q\n", reg.Version(), reg.Triage())
		return nil
	},
}

func list(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// loadRegistry returns the catalog with configured overrides applied.
// It needs no store, so it never opens one.
func loadRegistry(cmd *cobra.Command) (*registry.Registry, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Airline()
	if err != nil {
		return nil, err
	}
	if cfg.Overrides == "" {
		return reg, nil
	}
	o, err := registry.LoadOverrides(cfg.Overrides)
	if err != nil {
		return nil, err
	}
	return reg.Apply(o)
}

func init() {
	rootCmd.AddCommand(agentsCmd)
	agentsCmd.Flags().Bool("json", false, "Print the roster as JSON")
}
