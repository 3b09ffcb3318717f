/*
Package ports defines the driven ports (interfaces) of the ayr controller.

These interfaces decouple the session state machine from the remote runtime and
from the storage used to resume controllers between requests.

# Key Interfaces

  - Transport: Talks to the remote stepping interpreter and returns canonical results.
  - StateStore: Persists and loads controller Snapshots by workspace key.
  - DistributedLocker: Serializes access to a workspace across instances (replicas).
*/
package ports
