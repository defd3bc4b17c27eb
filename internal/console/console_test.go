package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func newTestConsole(in string) (*Console, *bytes.Buffer) {
	color.NoColor = true
	out := &bytes.Buffer{}
	return New(strings.NewReader(in), out), out
}

func TestLines(t *testing.T) {
	c, _ := newTestConsole("  /users \nhello world\n\n/quit\n")

	var got []string
	for line := range c.Lines(context.Background()) {
		got = append(got, line)
	}

	assert.Equal(t, []string{"/users", "hello world", "", "/quit"}, got)
}

func TestLines_ContextCancel(t *testing.T) {
	c, _ := newTestConsole("a\nb\nc\n")
	ctx, cancel := context.WithCancel(context.Background())

	lines := c.Lines(ctx)
	assert.Equal(t, "a", <-lines)
	cancel()

	// the channel is closed once the reader observes cancellation
	for range lines {
	}
}

func TestShowDatagram(t *testing.T) {
	c, out := newTestConsole("")

	c.ShowDatagram("10.0.0.2:34254", "hello")

	assert.Equal(t, "\n[UDP:10.0.0.2:34254] hello\n", out.String())
}

func TestShowSession(t *testing.T) {
	c, out := newTestConsole("")

	c.ShowSession("10.0.0.2:40000", "psst")

	assert.Contains(t, out.String(), "[TCP:10.0.0.2:40000] psst")
	assert.True(t, strings.HasSuffix(out.String(), SessionPrompt))
}

func TestNoticeAndWriter(t *testing.T) {
	c, out := newTestConsole("")

	c.Notice("user %q not found", "ghost")
	_, err := c.Writer().Write([]byte("raw\n"))

	assert.NoError(t, err)
	assert.Equal(t, "user \"ghost\" not found\nraw\n", out.String())
}
