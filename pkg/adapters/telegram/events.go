package telegram

import (
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aretw0/intake/pkg/domain"
)

// ToEvent normalizes an update. Updates without a sender (channel posts, edits,
// service messages) are reported as not relevant.
func ToEvent(u tgbotapi.Update) (domain.Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		cb := u.CallbackQuery
		if cb.From == nil {
			return domain.Event{}, false
		}
		ev := domain.Event{
			UserID:    strconv.FormatInt(cb.From.ID, 10),
			Recipient: strconv.FormatInt(cb.From.ID, 10),
			Kind:      domain.EventButton,
			Payload:   cb.Data,
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			ev.Recipient = strconv.FormatInt(cb.Message.Chat.ID, 10)
		}
		return ev, true

	case u.Message != nil:
		msg := u.Message
		if msg.From == nil || msg.Chat == nil {
			return domain.Event{}, false
		}
		ev := domain.Event{
			UserID:     strconv.FormatInt(msg.From.ID, 10),
			Recipient:  strconv.FormatInt(msg.Chat.ID, 10),
			Kind:       domain.EventText,
			Payload:    msg.Text,
			ReceivedAt: time.Unix(int64(msg.Date), 0),
		}
		if msg.IsCommand() {
			ev.Kind = commandKind(msg.Command())
		}
		return ev, true
	}
	return domain.Event{}, false
}

func commandKind(command string) domain.EventKind {
	switch command {
	case "start":
		return domain.EventStart
	case "help":
		return domain.EventHelp
	case "cancel":
		return domain.EventCancel
	default:
		return domain.EventCommand
	}
}

// keyboard renders buttons as an inline keyboard, one button per row.
func keyboard(buttons []domain.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		if b.URL != "" {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(b.Label, b.URL)))
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data)))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
