/*
Package switchboard is the core of an airline customer-service chat: it routes each
customer message to one of several specialized handlers, screens messages with safety
filters, transfers ownership between handlers and keeps a per-conversation context record.

# Concept

A conversation is owned by exactly one handler at a time. Every turn first runs the
owner's safety filters (relevance and jailbreak). When all pass, the owner is invoked
through a Reasoner, which may answer, call one of the handler's tools, or hand the
conversation off to another handler. Handoffs follow a star topology around the triage
handler and may run a setup routine that seeds the context record.

Turns on the same conversation are serialized; different conversations run in parallel.
A failing turn never leaves partial state behind.

# Usage

	eng, err := switchboard.New()
	if err != nil {
		log.Fatal(err)
	}

	res, err := eng.RunTurn(ctx, "", "I want to change my seat")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.CurrentHandler) // Seat Booking Agent

Pass the returned ConversationID to continue the conversation. Stores (memory, file,
redis, sqlite), encryption and PII masking middleware, a distributed locker and
lifecycle hooks are configured with functional options.
*/
package switchboard
