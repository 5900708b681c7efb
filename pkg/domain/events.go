package domain

import (
	"context"
	"time"
)

// EventKind defines the category of an inbound chat event.
type EventKind string

const (
	EventStart   EventKind = "start"   // /start
	EventHelp    EventKind = "help"    // /help
	EventCancel  EventKind = "cancel"  // /cancel
	EventCommand EventKind = "command" // any other slash command
	EventButton  EventKind = "button"  // inline button press, Payload is the button data
	EventText    EventKind = "text"    // free text, Payload is the verbatim content
)

// Button data understood by the dialog.
const (
	ButtonBook    = "book"
	ButtonRestart = "restart"
)

// Event is a normalized inbound chat event.
type Event struct {
	// UserID is the stable identity of the remote user. Sessions are keyed by it.
	UserID string
	// Recipient is where replies are delivered (a chat id for Telegram).
	Recipient string
	Kind      EventKind
	Payload   string
	// ReceivedAt is set by the transport; zero when unknown.
	ReceivedAt time.Time
}

// IsBookingTrigger reports whether the event begins a new booking.
func (e Event) IsBookingTrigger() bool {
	return e.Kind == EventStart || (e.Kind == EventButton && e.Payload == ButtonBook)
}

// IsCancelTrigger reports whether the event abandons the current booking.
func (e Event) IsCancelTrigger() bool {
	return e.Kind == EventCancel || (e.Kind == EventButton && e.Payload == ButtonRestart)
}

// TransitionEvent describes a step change of a session.
type TransitionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Event     EventKind `json:"event"`
	From      Step      `json:"from"`
	To        Step      `json:"to"`
}

// CommitEvent describes a finished Record Sink call.
type CommitEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	UserID    string        `json:"user_id"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// DeliveryEvent describes an outbound message that could not be delivered.
type DeliveryEvent struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Err       error     `json:"-"`
}

// LifecycleHooks defines callbacks for observability.
type LifecycleHooks struct {
	OnEvent         func(context.Context, *Event)
	OnTransition    func(context.Context, *TransitionEvent)
	OnCommit        func(context.Context, *CommitEvent)
	OnDeliveryError func(context.Context, *DeliveryEvent)
}
