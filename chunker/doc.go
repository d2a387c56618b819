// Package chunker splits long text into overlapping segments that end on
// sentence-like boundaries where a good one exists near the window end.
//
// Sizes are measured in runes. A Chunker is immutable and safe for concurrent use;
// every call to Segments starts a fresh, finite iteration.
package chunker
