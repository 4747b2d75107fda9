/*
Package domain contains the core domain models of the telelab workflow.

It defines the entities exchanged between the backend, the remote lab device
and the workflow controller. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Experiment: Descriptor of a lab exercise (input/output counts and labels).
  - Row and PairedRow: Input combinations and their device-computed outputs.
  - Status: The workflow gate (unconfigured, configured, polling).
  - Credentials: The opaque session token returned by authentication.
  - Catalog: The modules and the experiments they group.
*/
package domain
