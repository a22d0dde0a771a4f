// Package caldav implements the text protocol backend: calendar operations
// expressed as WebDAV discovery, time-range REPORT queries, and conditional
// PUT/DELETE writes against a CalDAV server. Discovery results are cached
// with a short TTL and invalidated after any successful write. Optimistic
// concurrency uses ETags; a precondition failure surfaces as a
// ConcurrencyConflict.
package caldav
