// Package store persists the catalog as a single flat JSON document
// guarded by an exclusive file lock. Every mutation rewrites the document
// through a temp-file rename so readers never observe a partial write.
package store
