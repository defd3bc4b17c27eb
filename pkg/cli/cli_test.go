package cli

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoCommand struct {
	cmd  *cobra.Command
	got  [][]string
	fail error
}

func (e *echoCommand) Meta() *cobra.Command {
	if e.cmd == nil {
		e.cmd = &cobra.Command{
			Use:   "echo <text>",
			Short: "Print arguments back",
			Args:  cobra.MinimumNArgs(1),
		}
	}
	return e.cmd
}

func (e *echoCommand) Execute(ctx context.Context, cmd *cobra.Command, args []string) error {
	if ctx == nil {
		return fmt.Errorf("no context")
	}
	e.got = append(e.got, args)
	if e.fail != nil {
		return e.fail
	}
	fmt.Fprintln(cmd.OutOrStdout(), args)
	return nil
}

func setup(t *testing.T) (*CLI, *echoCommand, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c := NewCLI("lanchat", &out)
	echo := &echoCommand{}
	c.RegisterPlugin(echo)
	return c, echo, &out
}

func TestIsCommand(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"/users", true},
		{"  /connect bob", true},
		{"hello", false},
		{"", false},
		{"path/with/slash", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCommand(tt.line))
		})
	}
}

func TestCLI_Exec(t *testing.T) {
	c, echo, out := setup(t)

	require.NoError(t, c.Exec(context.Background(), "/echo a b"))
	require.NoError(t, c.Exec(context.Background(), "/echo   c"))

	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, echo.got)
	assert.Contains(t, out.String(), "[a b]")
}

func TestCLI_ExecErrors(t *testing.T) {
	c, echo, _ := setup(t)

	err := c.Exec(context.Background(), "/")
	require.ErrorIs(t, err, ErrEmptyCommand)

	err = c.Exec(context.Background(), "/nope")
	require.ErrorIs(t, err, ErrUnknownCommand)

	err = c.Exec(context.Background(), "/echo")
	require.Error(t, err)
	assert.Empty(t, echo.got)

	echo.fail = fmt.Errorf("boom")
	err = c.Exec(context.Background(), "/echo x")
	require.EqualError(t, err, "boom")
}

func TestCLI_Help(t *testing.T) {
	c, _, out := setup(t)

	require.NoError(t, c.Exec(context.Background(), "/help"))
	assert.Contains(t, out.String(), "/help")
	assert.Contains(t, out.String(), "/echo <text>")
	assert.Contains(t, out.String(), "Print arguments back")
	assert.Len(t, c.Plugins(), 2)
}

type ctxKey struct{}

type ctxCommand struct {
	cmd  *cobra.Command
	seen []context.Context
}

func (c *ctxCommand) Meta() *cobra.Command {
	if c.cmd == nil {
		c.cmd = &cobra.Command{Use: "ctx", Args: cobra.NoArgs}
	}
	return c.cmd
}

func (c *ctxCommand) Execute(ctx context.Context, _ *cobra.Command, _ []string) error {
	c.seen = append(c.seen, ctx)
	return nil
}

func TestCLI_ExecPassesCurrentContext(t *testing.T) {
	var out bytes.Buffer
	c := NewCLI("lanchat", &out)
	recorder := &ctxCommand{}
	c.RegisterPlugin(recorder)

	first, cancelFirst := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, 1))
	require.NoError(t, c.Exec(first, "/ctx"))
	cancelFirst()

	second := context.WithValue(context.Background(), ctxKey{}, 2)
	require.NoError(t, c.Exec(second, "/ctx"))

	require.Len(t, recorder.seen, 2)
	assert.Equal(t, 1, recorder.seen[0].Value(ctxKey{}))
	assert.Equal(t, 2, recorder.seen[1].Value(ctxKey{}))
	assert.NoError(t, recorder.seen[1].Err())
}
