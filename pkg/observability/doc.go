/*
Package observability turns workflow lifecycle events into logs and Prometheus metrics.

Both are delivered as domain.LifecycleHooks, so they can be merged with each
other and with user hooks before being handed to a workflow.
*/
package observability
