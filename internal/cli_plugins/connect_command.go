package cliplugins

import (
	"context"
	"errors"
	"fmt"

	"lanchat/internal/peers"

	"github.com/spf13/cobra"
)

type ConnectCommand struct {
	cmd    *cobra.Command
	opener SessionOpener
}

func NewConnectCommand(opener SessionOpener) *ConnectCommand {
	return &ConnectCommand{
		opener: opener,
	}
}

func (c *ConnectCommand) Meta() *cobra.Command {
	if c.cmd != nil {
		return c.cmd
	}
	c.cmd = &cobra.Command{
		Use:   "connect <nickname>",
		Short: "Open a private chat with a user",
		Args:  cobra.ExactArgs(1),
	}
	return c.cmd
}

func (c *ConnectCommand) Execute(ctx context.Context, cmd *cobra.Command, args []string) error {
	target := args[0]

	err := c.opener.OpenSession(ctx, target)
	if errors.Is(err, peers.ErrPeerNotFound) {
		fmt.Fprintf(cmd.OutOrStdout(), "User '%s' not found.\n", target)
		return nil
	}
	if err != nil {
		return fmt.Errorf("connect to %s: %w", target, err)
	}
	return nil
}
