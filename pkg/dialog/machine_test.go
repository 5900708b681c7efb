package dialog_test

import (
	"errors"
	"testing"

	"github.com/aretw0/intake/pkg/dialog"
	"github.com/aretw0/intake/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func start() domain.Event  { return domain.Event{UserID: "u1", Kind: domain.EventStart} }
func cancel() domain.Event { return domain.Event{UserID: "u1", Kind: domain.EventCancel} }
func text(s string) domain.Event {
	return domain.Event{UserID: "u1", Kind: domain.EventText, Payload: s}
}
func button(data string) domain.Event {
	return domain.Event{UserID: "u1", Kind: domain.EventButton, Payload: data}
}

// feed runs events through the machine, returning every transition.
func feed(t *testing.T, m *dialog.Machine, s *domain.Session, events ...domain.Event) (*domain.Session, []dialog.Transition) {
	t.Helper()
	var out []dialog.Transition
	for _, ev := range events {
		tr := m.Handle(s, ev)
		require.NotNil(t, tr.Session)
		out = append(out, tr)
		s = tr.Session
	}
	return s, out
}

func TestMachine_FullBooking(t *testing.T) {
	m := dialog.New(nil)
	s := domain.NewSession("u1")

	s, trs := feed(t, m, s,
		start(),
		text("4"),
		text("Anna"),
		text("+49 151 0000"),
		text("10.10.2025"),
	)

	assert.Equal(t, domain.StepCommitting, s.Step)
	last := trs[len(trs)-1]
	require.NotNil(t, last.Commit)
	assert.Equal(t, domain.Booking{UserID: "u1", Topic: "4", Name: "Anna", Phone: "+49 151 0000", Date: "10.10.2025"}, *last.Commit)
	assert.Empty(t, last.Messages, "committing is not user-visible")

	for _, tr := range trs[:len(trs)-1] {
		assert.Nil(t, tr.Commit)
	}

	done := m.Complete(s, nil)
	assert.Equal(t, domain.StepTerminal, done.Session.Step)
	require.Len(t, done.Messages, 1)
	assert.Contains(t, done.Messages[0].Text, "Anna")
	assert.NotEmpty(t, done.Messages[0].Buttons)
}

func TestMachine_FieldsTrackPassedSteps(t *testing.T) {
	m := dialog.New(nil)
	s, _ := feed(t, m, domain.NewSession("u1"), start())
	assert.Empty(t, s.Answers.Keys())

	inputs := []string{"7", "Иван", "12345", "завтра"}
	for i, in := range inputs {
		s, _ = feed(t, m, s, text(in))

		keys := s.Answers.Keys()
		assert.Equal(t, domain.Fields[:i+1], keys)
		for j, f := range keys {
			v, ok := s.Answers.Get(f)
			assert.True(t, ok)
			assert.Equal(t, inputs[j], v, "values are stored verbatim")
		}
	}
}

func TestMachine_PromptsInOrder(t *testing.T) {
	m := dialog.New(nil)
	c := m.Catalog()

	_, trs := feed(t, m, domain.NewSession("u1"), start(), text("1"), text("Anna"), text("555"))

	require.Len(t, trs[0].Messages, 2)
	assert.Equal(t, c.Welcome, trs[0].Messages[0].Text)
	assert.Equal(t, c.TopicPrompt, trs[0].Messages[1].Text)
	assert.Equal(t, c.NamePrompt, trs[1].Messages[0].Text)
	assert.Equal(t, c.PhonePrompt, trs[2].Messages[0].Text)
	assert.Equal(t, c.DatePrompt, trs[3].Messages[0].Text)
}

func TestMachine_CancelFromAnyCollectingStep(t *testing.T) {
	m := dialog.New(nil)
	answers := []domain.Event{text("1"), text("Anna"), text("555")}

	for progress := 0; progress <= len(answers); progress++ {
		for _, tc := range []struct {
			trigger domain.Event
			want    string
		}{
			{cancel(), m.Catalog().Cancelled},
			{button(domain.ButtonRestart), m.Catalog().Menu},
		} {
			trigger, want := tc.trigger, tc.want
			events := append([]domain.Event{start()}, answers[:progress]...)
			s, _ := feed(t, m, domain.NewSession("u1"), events...)
			require.True(t, s.Step.Collecting())

			tr := m.Handle(s, trigger)
			assert.Equal(t, domain.StepIdle, tr.Session.Step, "progress=%d trigger=%v", progress, trigger.Kind)
			assert.True(t, tr.Session.Answers.Empty())
			assert.Nil(t, tr.Commit)
			require.Len(t, tr.Messages, 1)
			assert.Equal(t, want, tr.Messages[0].Text, "trigger=%v", trigger.Kind)
			assert.NotEmpty(t, tr.Messages[0].Buttons, "the acknowledgment offers a way back")
		}
	}
}

func TestMachine_CancelTakesPrecedenceOverCapture(t *testing.T) {
	m := dialog.New(nil)
	s, _ := feed(t, m, domain.NewSession("u1"), start(), text("1"), text("Anna"), text("555"))
	require.Equal(t, domain.StepAwaitingDate, s.Step)

	tr := m.Handle(s, cancel())
	assert.Nil(t, tr.Commit)
	assert.Equal(t, m.Catalog().Cancelled, tr.Messages[0].Text)
}

func TestMachine_RestartIsByteIdentical(t *testing.T) {
	m := dialog.New(nil)

	_, first := feed(t, m, domain.NewSession("u1"), start())
	_, again := feed(t, m, domain.NewSession("u1"), start(), text("3"), text("Anna"), cancel(), start())

	assert.Equal(t, first[0].Messages, again[len(again)-1].Messages)
	assert.Equal(t, first[0].Session, again[len(again)-1].Session)
}

func TestMachine_BookingTriggerMidFlowStartsOver(t *testing.T) {
	m := dialog.New(nil)
	s, _ := feed(t, m, domain.NewSession("u1"), start(), text("3"), text("Anna"))

	tr := m.Handle(s, button(domain.ButtonBook))
	assert.Equal(t, domain.StepAwaitingTopic, tr.Session.Step)
	assert.True(t, tr.Session.Answers.Empty())
	require.Len(t, tr.Messages, 1, "the book button skips the greeting")
	assert.Equal(t, m.Catalog().TopicPrompt, tr.Messages[0].Text)
}

func TestMachine_CommandsAreNotAnswers(t *testing.T) {
	m := dialog.New(nil)
	s, _ := feed(t, m, domain.NewSession("u1"), start(), text("2"))

	for _, ev := range []domain.Event{
		{UserID: "u1", Kind: domain.EventCommand, Payload: "stats"},
		{UserID: "u1", Kind: domain.EventHelp},
		{UserID: "u1", Kind: domain.EventButton, Payload: "unknown"},
		text(""),
	} {
		tr := m.Handle(s, ev)
		assert.Equal(t, s, tr.Session, "event %v must not change the session", ev.Kind)
		assert.Empty(t, tr.Messages)
		assert.Nil(t, tr.Commit)
	}
}

func TestMachine_IdleOrientation(t *testing.T) {
	m := dialog.New(nil)
	c := m.Catalog()
	idle := domain.NewSession("u1")

	for _, ev := range []domain.Event{text("hello"), cancel(), {UserID: "u1", Kind: domain.EventCommand, Payload: "foo"}} {
		tr := m.Handle(idle, ev)
		assert.Equal(t, domain.StepIdle, tr.Session.Step)
		require.Len(t, tr.Messages, 1)
		assert.Equal(t, c.Orientation, tr.Messages[0].Text)
		assert.Equal(t, c.Keyboards[dialog.KeyboardMain], tr.Messages[0].Buttons)
	}

	tr := m.Handle(idle, button(domain.ButtonRestart))
	assert.Equal(t, c.Menu, tr.Messages[0].Text)
}

func TestMachine_HandleDoesNotMutateInput(t *testing.T) {
	m := dialog.New(nil)
	s, _ := feed(t, m, domain.NewSession("u1"), start())
	before := *s

	_ = m.Handle(s, text("5"))
	assert.Equal(t, before, *s)
}

func TestMachine_CompleteFailure(t *testing.T) {
	m := dialog.New(nil)
	s, _ := feed(t, m, domain.NewSession("u1"), start(), text("1"), text("Anna"), text("555"), text("01.01.2026"))

	tr := m.Complete(s, &domain.SinkError{Op: "append", Err: errors.New("quota exceeded")})
	assert.Equal(t, domain.StepTerminal, tr.Session.Step)
	require.Len(t, tr.Messages, 1)
	assert.Equal(t, m.Catalog().Failure, tr.Messages[0].Text)
	assert.NotContains(t, tr.Messages[0].Text, "quota", "sink details never reach the user")
	assert.Nil(t, tr.Commit, "a failed commit is not retried")
}

func TestMachine_StaleStepsBehaveAsIdle(t *testing.T) {
	m := dialog.New(nil)
	for _, step := range []domain.Step{domain.StepCommitting, domain.StepTerminal, domain.Step("unknown")} {
		s := domain.NewSession("u1")
		s.Step = step
		s.Answers.Name = "leftover"

		tr := m.Handle(s, text("hi"))
		assert.True(t, tr.Session.Pristine(), "step %s", step)
	}
}

func TestFieldFor(t *testing.T) {
	f, ok := dialog.FieldFor(domain.StepAwaitingPhone)
	assert.True(t, ok)
	assert.Equal(t, domain.FieldPhone, f)

	_, ok = dialog.FieldFor(domain.StepIdle)
	assert.False(t, ok)
}
