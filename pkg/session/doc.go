/*
Package session implements conversation access and persistence orchestration.

A Manager serializes turns per conversation ID with ref-counted in-process mutexes
and, optionally, a distributed lock so that several replicas can share one store.
Conversations with different IDs never contend.
*/
package session
