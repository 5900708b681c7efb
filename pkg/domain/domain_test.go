package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/intake/pkg/domain"
)

func TestAnswers(t *testing.T) {
	var a domain.Answers
	assert.True(t, a.Empty())
	assert.Empty(t, a.Keys())

	a.Set(domain.FieldPhone, "+49 170")
	a.Set(domain.FieldTopic, "Pension")

	assert.False(t, a.Empty())
	assert.Equal(t, []domain.Field{domain.FieldTopic, domain.FieldPhone}, a.Keys(), "keys follow questionnaire order")

	v, ok := a.Get(domain.FieldPhone)
	assert.True(t, ok)
	assert.Equal(t, "+49 170", v)
	_, ok = a.Get(domain.FieldDate)
	assert.False(t, ok)
}

func TestSession_ResetKeepsIdentity(t *testing.T) {
	s := domain.NewSession("42")
	assert.True(t, s.Pristine())

	s.Step = domain.StepAwaitingName
	s.Answers.Topic = "Pension"
	assert.False(t, s.Pristine())

	c := s.Clone()
	s.Reset()

	assert.True(t, s.Pristine())
	assert.Equal(t, "42", s.UserID)
	assert.Equal(t, "Pension", c.Answers.Topic, "clone is independent")
}

func TestRecord_Row(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	rec := domain.Record{
		Booking:     domain.Booking{UserID: "42", Topic: "Pension", Name: "Anna", Phone: "+49", Date: "Friday"},
		SubmittedAt: time.Date(2025, 1, 16, 0, 30, 5, 0, loc),
	}
	assert.Equal(t, []string{"Pension", "Anna", "+49", "Friday", "16.01.2025 00:30:05"}, rec.Row())
}

func TestEvent_Triggers(t *testing.T) {
	tests := []struct {
		ev      domain.Event
		booking bool
		cancel  bool
	}{
		{domain.Event{Kind: domain.EventStart}, true, false},
		{domain.Event{Kind: domain.EventButton, Payload: domain.ButtonBook}, true, false},
		{domain.Event{Kind: domain.EventCancel}, false, true},
		{domain.Event{Kind: domain.EventButton, Payload: domain.ButtonRestart}, false, true},
		{domain.Event{Kind: domain.EventText, Payload: "book"}, false, false},
		{domain.Event{Kind: domain.EventCommand, Payload: "/book"}, false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.booking, tt.ev.IsBookingTrigger(), "%+v", tt.ev)
		assert.Equal(t, tt.cancel, tt.ev.IsCancelTrigger(), "%+v", tt.ev)
	}
}

func TestSinkError(t *testing.T) {
	cause := errors.New("quota")
	err := error(&domain.SinkError{Op: "append", Err: cause})

	assert.EqualError(t, err, "sink append: quota")
	assert.ErrorIs(t, err, cause)

	var se *domain.SinkError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, "append", se.Op)
}
