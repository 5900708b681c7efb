package domain

import "time"

// Step is the position of a session in the booking dialog.
type Step string

const (
	StepIdle          Step = "idle"
	StepAwaitingTopic Step = "awaiting_topic"
	StepAwaitingName  Step = "awaiting_name"
	StepAwaitingPhone Step = "awaiting_phone"
	StepAwaitingDate  Step = "awaiting_date"
	StepCommitting    Step = "committing"
	StepTerminal      Step = "terminal" // never stored, the session is dropped instead
)

// Collecting reports whether the step is waiting for a questionnaire answer.
func (s Step) Collecting() bool {
	switch s {
	case StepAwaitingTopic, StepAwaitingName, StepAwaitingPhone, StepAwaitingDate:
		return true
	}
	return false
}

// Field names a questionnaire answer.
type Field string

const (
	FieldTopic Field = "topic"
	FieldName  Field = "name"
	FieldPhone Field = "phone"
	FieldDate  Field = "date"
)

// Fields lists the questionnaire answers in the order they are asked.
var Fields = []Field{FieldTopic, FieldName, FieldPhone, FieldDate}

// Answers holds the text captured so far. An empty value means "not answered yet".
type Answers struct {
	Topic string `json:"topic,omitempty"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Date  string `json:"date,omitempty"`
}

// Set stores value under the given field.
func (a *Answers) Set(f Field, value string) {
	switch f {
	case FieldTopic:
		a.Topic = value
	case FieldName:
		a.Name = value
	case FieldPhone:
		a.Phone = value
	case FieldDate:
		a.Date = value
	}
}

// Get returns the value stored under f and whether it was answered.
func (a Answers) Get(f Field) (string, bool) {
	var v string
	switch f {
	case FieldTopic:
		v = a.Topic
	case FieldName:
		v = a.Name
	case FieldPhone:
		v = a.Phone
	case FieldDate:
		v = a.Date
	}
	return v, v != ""
}

// Keys returns the answered fields in questionnaire order.
func (a Answers) Keys() []Field {
	keys := make([]Field, 0, len(Fields))
	for _, f := range Fields {
		if _, ok := a.Get(f); ok {
			keys = append(keys, f)
		}
	}
	return keys
}

// Empty reports whether nothing has been answered.
func (a Answers) Empty() bool {
	return a == Answers{}
}

// Session represents the conversation state of a single user.
type Session struct {
	UserID    string    `json:"user_id"`
	Step      Step      `json:"step"`
	Answers   Answers   `json:"answers"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a clean session in the idle step.
func NewSession(userID string) *Session {
	return &Session{
		UserID: userID,
		Step:   StepIdle,
	}
}

// Reset clears the answers and returns the session to the idle step.
// The identity is preserved.
func (s *Session) Reset() {
	s.Step = StepIdle
	s.Answers = Answers{}
}

// Pristine reports whether the session is indistinguishable from a new one.
func (s *Session) Pristine() bool {
	return s.Step == StepIdle && s.Answers.Empty()
}

// Clone returns an independent copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	return &c
}
