/*
Package guardrail implements the safety filters that gate every turn.

A Filter judges only the latest user message and returns a Verdict. The Pipeline
runs the filters a handler declares, concurrently and each under its own timeout,
and reports one domain.FilterOutcome per declared filter in declaration order.
A filter that errors, panics, times out or is not installed is reported as
failed; nothing is ever passed by default.

Two canonical filters ship with the package: Relevance (is the message about the
airline at all) and Jailbreak (prompt extraction, instruction override and code
injection). ClassifierFilter adapts a model-backed ports.Classifier into a Filter.
*/
package guardrail
