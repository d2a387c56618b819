// Package cache memoizes analysis results keyed by (query, role, location).
//
// Rows are append-only: Store always adds a new row and Lookup returns the most
// recent row for a key when it is younger than the caller's freshness window.
// The cache is an optimization; callers treat its errors as misses.
package cache
