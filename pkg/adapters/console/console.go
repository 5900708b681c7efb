// Package console is a local line-based transport for trying the dialog in a terminal.
//
// Typed lines become events: /start, /help and /cancel are the commands, /book and
// /restart press the buttons of the same name and anything else is free text.
package console

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/intake/pkg/domain"
)

// DefaultUserID identifies the single local user.
const DefaultUserID = "console"

// Console reads events from in and writes messages to out. It implements ports.Messenger.
type Console struct {
	in     io.Reader
	out    *termenv.Output
	userID string

	mu sync.Mutex
}

// New creates a Console. Colors are only used when out is a terminal.
func New(in io.Reader, out io.Writer) *Console {
	profile := termenv.Ascii
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		profile = termenv.EnvColorProfile()
	}
	return &Console{
		in:     in,
		out:    termenv.NewOutput(out, termenv.WithProfile(profile)),
		userID: DefaultUserID,
	}
}

// Interactive reports whether in is attached to a terminal.
func (c *Console) Interactive() bool {
	f, ok := c.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Listen reads lines until EOF or ctx is done. The channel is closed afterwards.
func (c *Console) Listen(ctx context.Context) <-chan domain.Event {
	events := make(chan domain.Event)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			select {
			case events <- ParseLine(c.userID, line):
			case <-ctx.Done():
				return
			}
		}
	}()
	return events
}

// Send prints msg followed by its buttons.
func (c *Console) Send(_ context.Context, _ string, msg domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	b.WriteString(c.out.String("bot").Foreground(c.out.Color("#a78bfa")).Bold().String())
	b.WriteString("> ")
	b.WriteString(msg.Text)
	b.WriteString("\n")
	for _, btn := range msg.Buttons {
		hint := "/" + btn.Data
		if btn.URL != "" {
			hint = btn.URL
		}
		b.WriteString("  ")
		b.WriteString(c.out.String("[" + btn.Label + "]").Foreground(c.out.Color("#818cf8")).String())
		b.WriteString(" ")
		b.WriteString(c.out.String(hint).Faint().String())
		b.WriteString("\n")
	}
	_, err := io.WriteString(c.out, b.String())
	return err
}

// ParseLine maps one typed line to an event.
func ParseLine(userID, line string) domain.Event {
	ev := domain.Event{
		UserID:     userID,
		Recipient:  userID,
		Kind:       domain.EventText,
		Payload:    line,
		ReceivedAt: time.Now(),
	}
	if !strings.HasPrefix(line, "/") {
		return ev
	}

	command := strings.Fields(line)[0]
	switch command {
	case "/start":
		ev.Kind = domain.EventStart
	case "/help":
		ev.Kind = domain.EventHelp
	case "/cancel":
		ev.Kind = domain.EventCancel
	case "/" + domain.ButtonBook, "/" + domain.ButtonRestart:
		ev.Kind = domain.EventButton
		ev.Payload = strings.TrimPrefix(command, "/")
	default:
		ev.Kind = domain.EventCommand
	}
	return ev
}
