/*
Package runner connects a chat transport to the booking dialog.

A Runner takes normalized domain.Event values, applies them to the user's session
through the dialog state machine, commits completed bookings through the Record Sink
and delivers the resulting messages through a ports.Messenger.

Run fans events out to a fixed set of worker shards keyed by user ID: events of one
user are handled strictly in arrival order while different users proceed in parallel,
so a slow sink call only stalls the user who triggered it.

Every failure below the transport is contained here. Panics and store errors are
logged and answered with the generic technical-error message; delivery errors are
logged and never affect session state.
*/
package runner
