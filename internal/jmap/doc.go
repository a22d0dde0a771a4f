// Package jmap implements the JSON protocol backend: calendar operations
// expressed as JMAP method calls batched in a single HTTP exchange against
// the Fastmail API. The session resource is resolved once and cached for
// the process lifetime. Method-level errors and per-object rejection maps
// are surfaced as independent failure channels.
package jmap
