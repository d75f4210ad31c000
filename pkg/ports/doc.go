/*
Package ports defines the driven ports (interfaces) of the SKP helpdesk.

These interfaces decouple the core logic from external implementations, allowing
the troubleshooting flow to work with various storage backends and the helpdesk
features to talk to replaceable collaborators.

# Key Interfaces

  - GraphStore: read-only access to the decision graph.
  - StateStore: persists and loads troubleshooting sessions.
  - DistributedLocker: distributed locking for concurrent session access.
  - Authenticator, FAQStore, TicketStore, UserStore, Assistant, SyncService:
    the collaborators consumed by the helpdesk surfaces.
*/
package ports
