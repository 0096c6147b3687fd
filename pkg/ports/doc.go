/*
Package ports defines the driven ports (interfaces) for the switchboard engine.

These interfaces decouple the turn executor from external implementations, allowing
it to work with various storage backends, reasoning backends and classifiers.

# Key Interfaces

  - ConversationStore: Responsible for persisting and loading Conversation state.
  - DistributedLocker: Provides distributed locking for concurrent conversation access.
  - Reasoner: The handler invocation boundary (a language model, or deterministic rules).
  - Classifier: An external pass/fail classifier that can back a safety filter.
*/
package ports
