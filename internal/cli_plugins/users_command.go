package cliplugins

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type UsersCommand struct {
	cmd      *cobra.Command
	registry UserLister
	self     string
}

func NewUsersCommand(registry UserLister, self string) *UsersCommand {
	return &UsersCommand{
		registry: registry,
		self:     self,
	}
}

func (c *UsersCommand) Meta() *cobra.Command {
	if c.cmd != nil {
		return c.cmd
	}
	c.cmd = &cobra.Command{
		Use:   "users",
		Short: "List active users",
		Args:  cobra.NoArgs,
	}
	return c.cmd
}

func (c *UsersCommand) Execute(_ context.Context, cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	now := c.registry.Now()

	fmt.Fprintln(out, "\n--- Active users ---")
	for _, rec := range c.registry.Snapshot(c.self) {
		ago := int64(now.Sub(rec.LastSeen).Seconds())
		fmt.Fprintf(out, "%s (%d seconds ago)\n", rec.Nickname, ago)
	}
	fmt.Fprintln(out, "--------------------")
	return nil
}
