// Package ingestion turns raw postings into stored, searchable postings.
//
// The Pipeline processes raw postings sequentially. Each one is validated,
// fingerprinted and looked up, first among postings staged in the current
// batch and then in the store. Unknown postings are created. Known postings
// are updated only when the new listing is richer (a strictly longer
// description or a strictly larger skill set) and skipped otherwise.
// Created and updated postings are chunked and embedded, then staged into a
// storage.WriteBatch that commits in one transaction every N postings.
//
// A failed batch commit is retried one posting at a time so only the failing
// postings count as errors. Re-running ingestion over the same input converges
// to the same stored state.
//
// Service wires a posting source, such as a connector manager, in front of the
// Pipeline.
package ingestion
