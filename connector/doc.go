// Package connector fetches raw postings from external job boards.
//
// Each board is a Fetcher in its own subpackage (remoteok, adzuna, usajobs).
// Manager fans a set of search terms out to every fetcher on a worker pool,
// isolates per-source failures, caps how many postings each source may
// contribute per term and removes cross-source duplicates by fingerprint.
//
// Client is the shared HTTP layer: a resty client with retry on 429/5xx and a
// token-bucket limiter so connectors stay polite to the boards they query.
package connector
