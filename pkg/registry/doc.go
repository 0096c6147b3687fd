/*
Package registry holds the static catalog of handlers and the tools they may call.

A Registry is built once and never mutated. Lookups through Resolve never fail:
unknown or empty names resolve to the triage handler. Administrative Overrides
may replace description and instruction text, which yields a new Registry with
a new Version; the handoff graph, tools and filters are fixed at construction.
*/
package registry
