// Package store persists normalized solicitation records in SQLite and
// serves the record snapshots the analytics functions consume. It owns all
// identifier assignment, uniqueness and referential-integrity enforcement;
// deleting a solicitation cascades to its items and bids. Every statement
// is parameterized; SQL is never assembled from user strings.
package store
