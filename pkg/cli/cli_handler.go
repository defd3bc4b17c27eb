package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// HelpCommand lists every registered command with its short description.
type HelpCommand struct {
	cmd *cobra.Command
	cli *CLI
}

func (h *HelpCommand) Meta() *cobra.Command {
	if h.cmd == nil {
		h.cmd = &cobra.Command{
			Use:   "help",
			Short: "Show available commands",
			Args:  cobra.NoArgs,
		}
	}
	return h.cmd
}

func (h *HelpCommand) Execute(_ context.Context, cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Commands:")
	for _, p := range h.cli.plugins {
		meta := p.Meta()
		fmt.Fprintf(out, "  %s%-20s %s\n", CommandPrefix, meta.Use, meta.Short)
	}
	return nil
}
