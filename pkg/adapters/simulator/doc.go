// Package simulator serves a fake lab device and backend over HTTP.
//
// It implements every endpoint the telelab clients call, validates requests
// against an embedded OpenAPI document and keeps all state in memory. The
// device computes its truth table progressively so partial results can be
// observed while polling.
package simulator
