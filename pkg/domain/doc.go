/*
Package domain contains the core domain models of the switchboard engine.

It defines the entities a conversation turn operates on: the Context Record shared by
handlers and tools, the Conversation state persisted between turns, the events and
filter outcomes reported back to callers, and the Decision vocabulary spoken across the
handler-invocation boundary. This package is kept pure and free of I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Record: the mutable per-conversation data bag (confirmation number, flight number...).
  - Conversation: the persisted snapshot (History, Record, owning handler, replay events).
  - FilterOutcome: the verdict of one safety filter for one turn.
  - Invocation / Decision: what a handler is given and what it answers with.
  - TurnResult: the structured result of one turn.
*/
package domain
