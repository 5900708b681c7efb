/*
Package dialog implements the booking conversation as a pure state machine.

The dialog is linear:

	Idle -> AwaitingTopic -> AwaitingName -> AwaitingPhone -> AwaitingDate -> Committing -> Terminal

A booking trigger (/start or the "book" button) always begins a fresh questionnaire.
A cancel trigger (/cancel or the "restart" button) returns any collecting session to
Idle with its answers cleared. Free text is stored verbatim; anything else that does
not match a trigger is absorbed without an error.

Machine.Handle never performs I/O. When the last answer arrives it returns a
Transition with Commit set; the host commits the booking and calls Machine.Complete
with the outcome.
*/
package dialog
