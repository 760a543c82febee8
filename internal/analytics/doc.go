// Package analytics implements the award, variance, coalition, trend and
// estimation analyses over normalized solicitation records. Every function
// here is a pure transformation: records in, a result structure or an error
// out, no I/O and no shared mutable state. Callers hand in a consistent
// snapshot of persisted records; concurrent invocations need no
// coordination.
package analytics
