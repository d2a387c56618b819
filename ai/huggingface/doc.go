// Package huggingface implements ai.EmbeddingBackend over the HuggingFace
// Inference API feature-extraction pipeline (or a self-hosted compatible server
// such as text-embeddings-inference).
//
// A 503 while the model loads is reported as ai.ErrTransient so ai.BatchEmbedder
// retries it with backoff; 401/403 is ai.ErrUnauthorized and is never retried.
package huggingface
