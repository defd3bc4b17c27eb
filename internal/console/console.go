// Package console renders chat traffic and reads user input line by line.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

const (
	Prompt        = "> "
	SessionPrompt = "(TCP)> "
)

type Console struct {
	mu  sync.Mutex
	in  io.Reader
	out io.Writer

	datagramTag *color.Color
	sessionTag  *color.Color
	noticeTag   *color.Color
	errorTag    *color.Color
}

func New(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:          in,
		out:         out,
		datagramTag: color.New(color.FgGreen, color.Bold),
		sessionTag:  color.New(color.FgCyan, color.Bold),
		noticeTag:   color.New(color.FgYellow),
		errorTag:    color.New(color.FgRed),
	}
}

// Lines streams trimmed input lines until EOF or ctx is done.
func (c *Console) Lines(ctx context.Context) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines
}

// ShowDatagram prints a broadcast chat message tagged with its source address.
func (c *Console) ShowDatagram(from, payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "\n%s %s\n", c.datagramTag.Sprintf("[UDP:%s]", from), payload)
}

// ShowSession prints a line received over a private session.
func (c *Console) ShowSession(peer, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "\n%s %s\n%s", c.sessionTag.Sprintf("[TCP:%s]", peer), text, SessionPrompt)
}

func (c *Console) Notice(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out, c.noticeTag.Sprintf(format, args...))
}

func (c *Console) Error(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out, c.errorTag.Sprintf(format, args...))
}

// Println writes plain text, used by commands for tabular output.
func (c *Console) Println(args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out, args...)
}

func (c *Console) Prompt(session bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if session {
		fmt.Fprint(c.out, SessionPrompt)
		return
	}
	fmt.Fprint(c.out, Prompt)
}

// Writer exposes the output stream for components that format on their own (cobra).
func (c *Console) Writer() io.Writer {
	return lockedWriter{c}
}

type lockedWriter struct {
	c *Console
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.out.Write(p)
}
