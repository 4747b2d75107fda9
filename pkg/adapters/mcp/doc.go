// Package mcp exposes a telelab workflow as Model Context Protocol tools,
// so an agent can open an experiment, arm the device, poll and submit.
package mcp
