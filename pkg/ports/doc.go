/*
Package ports defines the driven ports (interfaces) of the intake bot.

These interfaces decouple the dialog core from external implementations, allowing
the same dispatcher to run against various session backends, tabular stores and
chat transports.

# Key Interfaces

  - SessionStore: persists and loads per-user Session state.
  - DistributedLocker: coordinates session access across replicas.
  - RecordAppender: appends one row to the durable tabular store.
  - Messenger: delivers outbound messages to a chat recipient.
*/
package ports
