// Package store defines the storage-agnostic persistence contract for audits:
// catalog reads, organization resolution, the individual audit writes, and
// read-back. Backends live in the memory and sqlstore subpackages.
package store
