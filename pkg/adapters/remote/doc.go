/*
Package remote is the Transport Adapter for the AYR runtime.

It sends normalized source and session handles to the remote interpreter over HTTP
and reconciles the inconsistent response shapes of its endpoints into the canonical
domain.RunResult and domain.DebugResult. Every defaulting rule lives in the three
normalizers (NormalizeRun, NormalizeDebug, NormalizeBack); nothing downstream checks
for missing fields.

The client holds no session state. Session ids are returned to the caller and passed
back explicitly on every call.
*/
package remote
