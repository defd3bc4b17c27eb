package cliplugins

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// SeenCommand prints the peer book. history may be nil when the book is disabled.
type SeenCommand struct {
	cmd     *cobra.Command
	history PeerHistory
}

func NewSeenCommand(history PeerHistory) *SeenCommand {
	return &SeenCommand{
		history: history,
	}
}

func (c *SeenCommand) Meta() *cobra.Command {
	if c.cmd != nil {
		return c.cmd
	}
	c.cmd = &cobra.Command{
		Use:   "seen",
		Short: "List every peer ever heard",
		Args:  cobra.NoArgs,
	}
	return c.cmd
}

func (c *SeenCommand) Execute(_ context.Context, cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if c.history == nil {
		fmt.Fprintln(out, "Peer book is disabled (set peerbook_path).")
		return nil
	}

	entries, err := c.history.List()
	if err != nil {
		return fmt.Errorf("read peer book: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No peers seen yet.")
		return nil
	}

	for _, e := range entries {
		fmt.Fprintf(out, "%-16s %-20s hellos=%-6d first=%s last=%s\n",
			e.Address,
			e.Nickname,
			e.HelloCount,
			e.FirstSeen.Format(time.DateTime),
			e.LastSeen.Format(time.DateTime),
		)
	}
	return nil
}
