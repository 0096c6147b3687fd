// Package reasoner provides handler invocation backends.
//
// Rules is a deterministic, keyword driven reasoner for the airline catalog.
// It lets the executor, transports and CLI run end to end without a model
// provider, and gives tests a reproducible handler.
package reasoner
