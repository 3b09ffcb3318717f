/*
Package problems merges the structured "problems" feed and the legacy error and
warning fields of the runtime into one ordered, display-ready list of diagnostics.

The structured feed always wins. Legacy fields are only consulted when the feed is
empty, so a failure reported under both shapes is never shown twice.
*/
package problems
