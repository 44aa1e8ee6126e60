// Package saga commits an audit draft to a store as a strictly sequential list
// of writes: organization lookup, audit root, standard links, sessions with
// their question links, and the audit's derived total item count.
//
// The writes are not wrapped in a transaction. A failure aborts the remaining
// steps and, unless compensation is enabled, leaves earlier records committed.
package saga
