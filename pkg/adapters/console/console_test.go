package console_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/intake/pkg/adapters/console"
	"github.com/aretw0/intake/pkg/domain"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		kind    domain.EventKind
		payload string
	}{
		{"/start", domain.EventStart, "/start"},
		{"/help", domain.EventHelp, "/help"},
		{"/cancel", domain.EventCancel, "/cancel"},
		{"/book", domain.EventButton, domain.ButtonBook},
		{"/restart", domain.EventButton, domain.ButtonRestart},
		{"/whatever now", domain.EventCommand, "/whatever now"},
		{"Anna Petrova", domain.EventText, "Anna Petrova"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			ev := console.ParseLine("me", tt.line)
			assert.Equal(t, tt.kind, ev.Kind)
			assert.Equal(t, tt.payload, ev.Payload)
			assert.Equal(t, "me", ev.UserID)
		})
	}
}

func TestConsole_Listen(t *testing.T) {
	in := strings.NewReader("/start\n\nPension\r\n")
	c := console.New(in, &bytes.Buffer{})

	var got []domain.Event
	for ev := range c.Listen(context.Background()) {
		got = append(got, ev)
	}

	require.Len(t, got, 2)
	assert.Equal(t, domain.EventStart, got[0].Kind)
	assert.Equal(t, domain.EventText, got[1].Kind)
	assert.Equal(t, "Pension", got[1].Payload)
	assert.Equal(t, console.DefaultUserID, got[1].UserID)
}

func TestConsole_SendPlainOutput(t *testing.T) {
	var out bytes.Buffer
	c := console.New(strings.NewReader(""), &out)

	err := c.Send(context.Background(), console.DefaultUserID, domain.Message{
		Text: "Hello",
		Buttons: []domain.Button{
			{Label: "Book", Data: "book"},
			{Label: "Instagram", URL: "https://example.com"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "bot> Hello\n  [Book] /book\n  [Instagram] https://example.com\n", out.String())
	assert.False(t, c.Interactive())
}
