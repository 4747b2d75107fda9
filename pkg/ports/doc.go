/*
Package ports defines the driven ports (interfaces) of the telelab workflow.

These interfaces decouple the workflow from external implementations, allowing
it to work with various session stores, device transports and backends.

# Key Interfaces

  - SessionStore: Key-value persistence for credentials and the selected module.
  - Device: The remote lab device (configuration, truth table, relays, inputs).
  - Backend: Authentication, experiment descriptors and result persistence.
  - DistributedLocker: Exclusive leases on a shared device across processes.
*/
package ports
