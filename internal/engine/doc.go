// Package engine implements the index engine, the composition root that
// keeps secondary indexes in step with record writes.
//
// Put resolves a record's noun and id, looks up the noun's index definitions
// in the catalog, derives one key per index, and writes each key -> id
// mapping to its sub-database "<noun>.<index>". Get resolves the
// sub-database and performs a point lookup. The engine never reads or
// writes record content; the id it indexes is the same id under which the
// caller stores the record's blob.
//
// FAILURE ISOLATION:
//
// A field-level failure degrades or skips only its own index:
//   - Schema not found: logged, the record is returned unindexed.
//   - Field not on type: logged, dropped from the key (or fails the index
//     under keys.UnknownFieldFail).
//   - Missing field value: logged, that index is skipped.
//   - Key already exists: logged, the stored id wins.
//
// Store-level failures are returned to the caller as *StoreError.
//
// TRANSACTIONS:
//
// TxPerIndex (default) commits each index write in its own transaction.
// A Put touching N indexes is therefore NOT atomic: a crash or store error
// between commits leaves the record indexed in some sub-databases and not
// others. TxPerRecord writes all indexes of one record in a single
// transaction and rolls all of them back on a store error.
//
// There are no retries and no internal locking beyond what the store's
// transactions provide.
package engine
