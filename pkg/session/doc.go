/*
Package session implements session management and persistence orchestration.

Turns of one session are serialized by a per-session mutex, optionally backed by a
distributed lock so that several replicas can share one store. Sessions of different
IDs never contend. A session can be expired (for example when its connection drops):
work finishing after that point is discarded.
*/
package session
