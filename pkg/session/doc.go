/*
Package session implements workspace persistence orchestration.

A workspace is one controller addressed by a key (usually the debug key, a file
path). The Manager serializes load, act and save cycles on a key across
goroutines and, with a DistributedLocker, across processes. The Registry keeps
live controllers for long-running surfaces and persists their snapshots.
*/
package session
