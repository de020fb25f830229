// Package store provides the SQLite-backed transactional environment that
// holds index entries.
//
// The environment is one SQLite database file. Inside it, named
// sub-databases are independent key spaces: a key maps to at most one id
// per sub-database, and once written an entry is never overwritten
// (first-writer-wins).
//
// # Capacity
//
// The number of sub-databases a Store may open is fixed when the Store is
// opened (Options.MaxSubDBs) and cannot grow afterwards; size it from the
// schema catalog before calling Open. Opening one more returns
// ErrCapacityExceeded.
//
// # Transactions
//
// PutIfAbsent runs in its own read-write transaction. Update runs several
// writes in one transaction; callers wanting all indexes of a record to
// commit together use it. Sub-databases must be opened before Update is
// called: the pool has a single connection, held by the transaction.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// # Errors
//
// Failures to open or configure the database wrap ErrUnavailable;
// failures inside a transaction wrap ErrTransaction. Absent keys and
// sub-databases are reported as ErrNotFound.
package store
