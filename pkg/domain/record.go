package domain

import "time"

// TimestampLayout is the civil format of Record.SubmittedAt (DD.MM.YYYY HH:MM:SS).
const TimestampLayout = "02.01.2006 15:04:05"

// Booking is a completed questionnaire, ready to be committed.
type Booking struct {
	UserID string `json:"-"`
	Topic  string `json:"topic"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Date   string `json:"date"`
}

// BookingFrom builds a booking from the answers of a session.
func BookingFrom(s *Session) Booking {
	return Booking{
		UserID: s.UserID,
		Topic:  s.Answers.Topic,
		Name:   s.Answers.Name,
		Phone:  s.Answers.Phone,
		Date:   s.Answers.Date,
	}
}

// Record is the durable artifact of a committed booking.
// SubmittedAt carries the location the row is rendered in.
type Record struct {
	Booking
	SubmittedAt time.Time
}

// Row renders the record as the five appended columns.
func (r Record) Row() []string {
	return []string{
		r.Topic,
		r.Name,
		r.Phone,
		r.Date,
		r.SubmittedAt.Format(TimestampLayout),
	}
}

// CredentialBundle is the service-account material of the tabular store.
// It is resolved once at startup and never mutated.
type CredentialBundle struct {
	JSON        []byte
	Source      string // "env" or the file path it was read from
	ProjectID   string
	ClientEmail string
}
