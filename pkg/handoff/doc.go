/*
Package handoff implements the transfer of conversation ownership between handlers.

A Handoff is a directed, named edge declared on its source handler. Transfers only
follow declared edges: a request naming an unknown handler, or a handler the source
cannot reach, degrades to the triage handler instead of failing the turn.

An edge may carry a setup routine that runs exactly once at transfer time with
read-write access to the conversation's Record, so the target can rely on the
fields it needs before it ever sees the conversation.
*/
package handoff
