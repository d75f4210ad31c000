/*
Package domain contains the core domain models of the SKP helpdesk.

It defines the decision graph entities, the troubleshooting session state and the
helpdesk records (FAQ, tickets, users). This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Node: a closed variant of Branch (question with options) and Terminal (solution).
  - Path: the visited-node stack of a session; its last element is the current node.
  - State: the persisted snapshot of a troubleshooting session.
  - Contact: a human escalation point shown for contact-trigger terminals.
*/
package domain
