// Package fastembed implements ai.EmbeddingBackend with local ONNX models via
// fastembed-go. Model files are downloaded into the configured cache directory
// on first use. Builds without cgo get a stub that reports ErrNotAvailable.
package fastembed
