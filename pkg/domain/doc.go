/*
Package domain contains the canonical model shared by every layer of the ayr client.

The remote interpreter service answers with loosely shaped JSON; everything in this
package is the normalized shape that the rest of the module consumes. The package is
kept pure and free of I/O, following the same hexagonal split as the adapters.

# Key Entities

  - ExecutionState: mode, phase, cursor and the active session handle.
  - RunResult / DebugResult: normalized responses of the run and debug endpoints.
  - Problem / Summary: unified diagnostics shown to the user.
  - View: the flat read model exposed to presentation surfaces.
  - LifecycleHooks: observability callbacks fired by the controller.
*/
package domain
