// Package reembed recomputes chunk vectors for every stored posting, typically
// after switching embedding models.
//
// Chunk text and order are kept; only vectors change. Postings are processed in
// batches with retry and exponential backoff on the embedding calls, and each
// posting's vectors are replaced in a single transaction so a posting is never
// left with a mix of old and new vectors.
package reembed
