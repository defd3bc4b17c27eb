package cliplugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type AcksCommand struct {
	cmd   *cobra.Command
	seen  AckCounter
	sends SendStats
}

func NewAcksCommand(seen AckCounter, sends SendStats) *AcksCommand {
	return &AcksCommand{
		seen:  seen,
		sends: sends,
	}
}

func (c *AcksCommand) Meta() *cobra.Command {
	if c.cmd != nil {
		return c.cmd
	}
	c.cmd = &cobra.Command{
		Use:   "acks",
		Short: "Show acknowledgement counters",
		Args:  cobra.NoArgs,
	}
	return c.cmd
}

func (c *AcksCommand) Execute(_ context.Context, cmd *cobra.Command, _ []string) error {
	fmt.Fprintf(cmd.OutOrStdout(), "acks seen: %d, last message id: %d, awaiting ack: %d\n",
		c.seen.Len(), c.sends.LastID(), c.sends.Pending())
	return nil
}

type NickCommand struct {
	cmd      *cobra.Command
	identity Nicknamer
}

func NewNickCommand(identity Nicknamer) *NickCommand {
	return &NickCommand{
		identity: identity,
	}
}

func (c *NickCommand) Meta() *cobra.Command {
	if c.cmd != nil {
		return c.cmd
	}
	c.cmd = &cobra.Command{
		Use:   "nick [name]",
		Short: "Show or change the announced nickname",
		Args:  cobra.MaximumNArgs(1),
	}
	return c.cmd
}

func (c *NickCommand) Execute(_ context.Context, cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		fmt.Fprintf(out, "Nickname: %s\n", c.identity.Nickname())
		return nil
	}

	nick := strings.TrimSpace(args[0])
	if nick == "" {
		return fmt.Errorf("nickname must not be empty")
	}
	c.identity.SetNickname(nick)
	fmt.Fprintf(out, "Nickname set to %s\n", nick)
	return nil
}

type QuitCommand struct {
	cmd  *cobra.Command
	quit func()
}

func NewQuitCommand(quit func()) *QuitCommand {
	return &QuitCommand{
		quit: quit,
	}
}

func (c *QuitCommand) Meta() *cobra.Command {
	if c.cmd != nil {
		return c.cmd
	}
	c.cmd = &cobra.Command{
		Use:   "quit",
		Short: "Exit the program",
		Args:  cobra.NoArgs,
	}
	return c.cmd
}

func (c *QuitCommand) Execute(_ context.Context, _ *cobra.Command, _ []string) error {
	c.quit()
	return nil
}
