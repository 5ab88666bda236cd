/*
Package session implements session management and persistence orchestration.

Plans are mutable and belong to one conversation, so every turn must run with
exclusive access to its session. The Manager serializes access per session ID
with reference-counted local locks, optionally backed by a distributed locker
when several replicas share one store.
*/
package session
