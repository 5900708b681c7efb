package dialog

import (
	"github.com/aretw0/intake/pkg/domain"
)

// Transition is the outcome of feeding one event to the Machine.
type Transition struct {
	// Session is the next state. The input session is never mutated.
	Session *domain.Session

	// Messages are delivered, in order, to the user who sent the event.
	Messages []domain.Message

	// Commit is set when the session entered StepCommitting. The host must commit
	// the booking and feed the outcome back through Complete.
	Commit *domain.Booking
}

// question binds a collecting step to the field it fills and the step after it.
type question struct {
	field domain.Field
	next  domain.Step
}

var questions = map[domain.Step]question{
	domain.StepAwaitingTopic: {field: domain.FieldTopic, next: domain.StepAwaitingName},
	domain.StepAwaitingName:  {field: domain.FieldName, next: domain.StepAwaitingPhone},
	domain.StepAwaitingPhone: {field: domain.FieldPhone, next: domain.StepAwaitingDate},
	domain.StepAwaitingDate:  {field: domain.FieldDate, next: domain.StepCommitting},
}

// FieldFor returns the field captured in a collecting step.
func FieldFor(step domain.Step) (domain.Field, bool) {
	q, ok := questions[step]
	return q.field, ok
}

// Machine is the booking dialog. It is pure: no I/O, no clock, no shared state,
// so one instance serves every user concurrently.
type Machine struct {
	catalog *Catalog
}

// New creates a Machine speaking the given catalog. A nil catalog uses the defaults.
func New(catalog *Catalog) *Machine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Machine{catalog: catalog}
}

// Catalog returns the texts the machine speaks.
func (m *Machine) Catalog() *Catalog {
	return m.catalog
}

// Handle computes the next state of s for ev.
func (m *Machine) Handle(s *domain.Session, ev domain.Event) Transition {
	next := s.Clone()
	if !next.Step.Collecting() {
		// Committing and terminal are never observed between events.
		next.Reset()
	}

	switch {
	case ev.IsBookingTrigger():
		return m.begin(next, ev)
	case ev.Kind == domain.EventButton && ev.Payload == domain.ButtonRestart:
		next.Reset()
		return m.reply(next, m.catalog.message(m.catalog.Menu, KeyboardMain))
	case ev.IsCancelTrigger() && next.Step.Collecting():
		next.Reset()
		return m.reply(next, m.catalog.message(m.catalog.Cancelled, KeyboardRestart))
	case next.Step == domain.StepIdle:
		return m.reply(next, m.catalog.message(m.catalog.Orientation, KeyboardMain))
	default:
		return m.capture(next, ev)
	}
}

// Complete finishes a committing session with the outcome of the sink call.
// commitErr is treated as opaque: any error yields the generic failure message.
// The session always ends terminal; the store drops it and the user starts over.
func (m *Machine) Complete(s *domain.Session, commitErr error) Transition {
	next := s.Clone()
	booking := domain.BookingFrom(next)
	next.Step = domain.StepTerminal

	if commitErr != nil {
		return m.reply(next, m.catalog.message(m.catalog.Failure, KeyboardRestart))
	}
	return m.reply(next, m.catalog.message(m.catalog.renderSuccess(booking), KeyboardSuccess))
}

// Help returns the static help message. It never depends on session state.
func (m *Machine) Help() domain.Message {
	return m.catalog.message(m.catalog.Help, KeyboardRestart)
}

// TechnicalError returns the message sent when handling an event failed unexpectedly.
func (m *Machine) TechnicalError() domain.Message {
	return m.catalog.message(m.catalog.TechnicalError, KeyboardRestart)
}

func (m *Machine) begin(next *domain.Session, ev domain.Event) Transition {
	next.Reset()
	next.Step = domain.StepAwaitingTopic

	var msgs []domain.Message
	if ev.Kind == domain.EventStart {
		msgs = append(msgs, m.catalog.message(m.catalog.Welcome, ""))
	}
	msgs = append(msgs, m.catalog.message(m.catalog.TopicPrompt, ""))
	return Transition{Session: next, Messages: msgs}
}

// capture stores free text under the field of the current step.
// Commands and empty text are absorbed without a state change.
func (m *Machine) capture(next *domain.Session, ev domain.Event) Transition {
	if ev.Kind != domain.EventText || ev.Payload == "" {
		return Transition{Session: next}
	}

	q := questions[next.Step]
	next.Answers.Set(q.field, ev.Payload)
	next.Step = q.next

	switch q.next {
	case domain.StepAwaitingName:
		return m.reply(next, m.catalog.message(m.catalog.NamePrompt, ""))
	case domain.StepAwaitingPhone:
		return m.reply(next, m.catalog.message(m.catalog.PhonePrompt, ""))
	case domain.StepAwaitingDate:
		return m.reply(next, m.catalog.message(m.catalog.DatePrompt, ""))
	}

	booking := domain.BookingFrom(next)
	return Transition{Session: next, Commit: &booking}
}

func (m *Machine) reply(next *domain.Session, msgs ...domain.Message) Transition {
	return Transition{Session: next, Messages: msgs}
}
