/*
Package session keeps the authenticated user's credentials and selected module.

Values live in an injected ports.SessionStore under the keys "credentials"
and "module". Read-modify-write sequences are serialized per key, and across
processes when a ports.DistributedLocker is configured.
*/
package session
