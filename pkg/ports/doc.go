/*
Package ports defines the driven ports (interfaces) for the Plotline engine.

These interfaces decouple the plan interpreters from the conversation tracker,
the action registry and the storage backends, so hosts can plug in their own.

# Key Interfaces

  - Tracker: Read-only view of the conversation a plan decides on.
  - ActionIndex: Resolves action names to their position in the host's action list.
  - DefinitionLoader: Loads plan and branch definitions (e.g., from Loam or a YAML file).
  - StateStore: Persists and loads conversation snapshots.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
