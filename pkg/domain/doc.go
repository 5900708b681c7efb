/*
Package domain contains the core models of the intake bot.

It defines the entities shared by the dialog state machine, the session store,
the record sink and the transport adapters. This package is kept pure and free of
I/O so that every other package can depend on it.

# Key Entities

  - Session: per-user conversation state (current Step and collected Answers).
  - Event: a normalized inbound chat event (command, button press, free text).
  - Message: an outbound text with optional buttons, emitted as pure data.
  - Booking / Record: the completed questionnaire and its durable, timestamped row.
  - CredentialBundle: service-account material for the tabular store.
*/
package domain
