// Package gemini implements ai.EmbeddingBackend with the Google Gen AI SDK.
package gemini
