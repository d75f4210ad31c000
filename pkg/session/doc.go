/*
Package session serialises access to persisted troubleshooting sessions.

A Manager wraps a ports.StateStore with per-session in-process locks, and
optionally a ports.DistributedLocker so several helpdesk replicas can share
one Redis store without interleaving a read-modify-write on the same path.
*/
package session
