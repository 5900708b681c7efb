// Package telegram connects the dialog to the Telegram Bot API using long polling.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aretw0/intake/internal/logging"
	"github.com/aretw0/intake/pkg/domain"
)

// DefaultPollTimeout is the long-polling timeout in seconds.
const DefaultPollTimeout = 60

// BotAPI is the subset of *tgbotapi.BotAPI used by the transport.
type BotAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Transport receives updates and delivers messages. It implements ports.Messenger.
type Transport struct {
	bot         BotAPI
	self        tgbotapi.User
	logger      *slog.Logger
	pollTimeout int
}

// Option configures a Transport.
type Option func(*Transport)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// WithPollTimeout sets the long-polling timeout in seconds.
func WithPollTimeout(seconds int) Option {
	return func(t *Transport) {
		if seconds > 0 {
			t.pollTimeout = seconds
		}
	}
}

// New connects to the Bot API. It fails when the token is rejected.
func New(token string, opts ...Option) (*Transport, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	t := NewWithBot(bot, opts...)
	t.self = bot.Self
	return t, nil
}

// NewWithBot wraps an existing bot client.
func NewWithBot(bot BotAPI, opts ...Option) *Transport {
	t := &Transport{
		bot:         bot,
		logger:      logging.NewNop(),
		pollTimeout: DefaultPollTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Self returns the bot account reported at connect time.
func (t *Transport) Self() tgbotapi.User {
	return t.self
}

// Listen starts long polling and returns the normalized events.
// The channel is closed after ctx is done.
func (t *Transport) Listen(ctx context.Context) <-chan domain.Event {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = t.pollTimeout
	updates := t.bot.GetUpdatesChan(cfg)

	events := make(chan domain.Event)
	go func() {
		defer close(events)
		defer t.bot.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-updates:
				if !ok {
					return
				}
				ev, relevant := ToEvent(u)
				if !relevant {
					t.logger.Debug("Ignoring update", "update_id", u.UpdateID)
					continue
				}
				if u.CallbackQuery != nil {
					t.answerCallback(u.CallbackQuery.ID)
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events
}

// Send delivers msg to the chat identified by recipient.
func (t *Transport) Send(ctx context.Context, recipient string, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", recipient, err)
	}

	out := tgbotapi.NewMessage(chatID, msg.Text)
	if markup := keyboard(msg.Buttons); markup != nil {
		out.ReplyMarkup = *markup
	}
	if _, err := t.bot.Send(out); err != nil {
		return fmt.Errorf("send to %d: %w", chatID, err)
	}
	return nil
}

// answerCallback stops the client-side spinner of a pressed button.
func (t *Transport) answerCallback(id string) {
	if _, err := t.bot.Request(tgbotapi.NewCallback(id, "")); err != nil {
		t.logger.Warn("Failed to answer callback query", "err", err)
	}
}
