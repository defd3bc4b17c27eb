package cliplugins

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// StatsCommand prints runtime counters. reloads and book may be nil when the
// config watcher or the peer book is disabled.
type StatsCommand struct {
	cmd      *cobra.Command
	registry PeerCounter
	reloads  ReloadStats
	book     DropCounter
}

func NewStatsCommand(registry PeerCounter, reloads ReloadStats, book DropCounter) *StatsCommand {
	return &StatsCommand{
		registry: registry,
		reloads:  reloads,
		book:     book,
	}
}

func (c *StatsCommand) Meta() *cobra.Command {
	if c.cmd != nil {
		return c.cmd
	}
	c.cmd = &cobra.Command{
		Use:   "stats",
		Short: "Show runtime counters",
		Args:  cobra.NoArgs,
	}
	return c.cmd
}

func (c *StatsCommand) Execute(_ context.Context, cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "peers online: %d\n", c.registry.Len())

	if c.reloads == nil {
		fmt.Fprintln(out, "config watcher: disabled")
	} else {
		m := c.reloads.Metrics()
		last := "never"
		if !m.LastReload.IsZero() {
			last = m.LastReload.Format(time.TimeOnly)
		}
		fmt.Fprintf(out, "config reloads: %d (events %d, errors %d, last %s)\n", m.Reloads, m.Events, m.Errors, last)
	}

	if c.book == nil {
		fmt.Fprintln(out, "peer book: disabled")
	} else {
		fmt.Fprintf(out, "peer book dropped observations: %d\n", c.book.Dropped())
	}
	return nil
}
