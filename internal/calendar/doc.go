// Package calendar defines the protocol-independent calendar model: the
// provider contract implemented by both the JMAP and CalDAV backends, the
// event and calendar record shapes exposed to the agent, the uniform error
// kinds, the free-slot computation and the untrusted-content tagging
// applied to externally authored fields.
package calendar
