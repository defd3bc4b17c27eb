// Package cli dispatches slash commands typed on an interactive console to
// cobra-backed plugins, one line at a time.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
)

// CommandPrefix marks a console line as a command rather than chat text.
const CommandPrefix = "/"

var (
	ErrEmptyCommand   = errors.New("empty command")
	ErrUnknownCommand = errors.New("unknown command")
)

type CommandPlugin interface {
	Meta() *cobra.Command
	Execute(ctx context.Context, cmd *cobra.Command, args []string) error
}

type CLI struct {
	mu      sync.Mutex
	rootCmd *cobra.Command
	plugins []CommandPlugin
	out     io.Writer
}

func NewCLI(name string, out io.Writer) *CLI {
	c := &CLI{
		rootCmd: &cobra.Command{
			Use:           name,
			Short:         "Interactive commands",
			SilenceErrors: true,
			SilenceUsage:  true,
			CompletionOptions: cobra.CompletionOptions{
				DisableDefaultCmd: true,
			},
		},
		plugins: make([]CommandPlugin, 0, 10),
		out:     out,
	}
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(out)
	c.rootCmd.SetHelpCommand(&cobra.Command{Hidden: true, Use: "no-help"})

	c.RegisterPlugin(&HelpCommand{cli: c})
	return c
}

func (c *CLI) RegisterPlugin(p CommandPlugin) {
	c.plugins = append(c.plugins, p)
	cmd := p.Meta()
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return p.Execute(cmd.Context(), cmd, args)
	}
	c.rootCmd.AddCommand(cmd)
}

// Plugins returns registered plugins in registration order.
func (c *CLI) Plugins() []CommandPlugin {
	return append([]CommandPlugin(nil), c.plugins...)
}

// IsCommand reports whether line should go to Exec.
func IsCommand(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), CommandPrefix)
}

// Exec runs a single console line such as "/connect bob".
func (c *CLI) Exec(ctx context.Context, line string) error {
	args := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), CommandPrefix))
	if len(args) == 0 {
		return ErrEmptyCommand
	}

	cmd, _, err := c.rootCmd.Find(args)
	if err != nil || cmd == c.rootCmd {
		return fmt.Errorf("%w: %s%s", ErrUnknownCommand, CommandPrefix, args[0])
	}

	// cobra одна на весь процесс, выполняем команды по очереди
	c.mu.Lock()
	defer c.mu.Unlock()

	// cobra передаёт контекст подкоманде только один раз, обновляем явно
	cmd.SetContext(ctx)
	c.rootCmd.SetArgs(args)
	return c.rootCmd.ExecuteContext(ctx)
}
