// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ai provides the AI service abstractions used by skillscope.
//
// Two capabilities are modeled:
//
//   - Embedder: turns posting chunks and queries into fixed-length vectors
//   - Synthesizer: turns retrieved evidence into a structured market analysis
//
// AIProvider bundles both for convenient initialization.
//
// # Backends
//
// Remote and local embedding services implement the narrow EmbeddingBackend
// interface (one raw call per batch). BatchEmbedder wraps any backend and owns
// the behavior every caller relies on: batch ceilings, per-call timeouts,
// pacing, retry with doubling backoff on ErrTransient, per-item fallback when a
// batch fails, zero vectors for blank or failed items, and the dimension check.
//
// Implementation packages:
//
//   - ai/openai: OpenAI-compatible embeddings and JSON-mode synthesis (langchaingo)
//   - ai/huggingface: HuggingFace Inference API (resty, gjson)
//   - ai/gemini: Google Gen AI SDK
//   - ai/fastembed: local ONNX models
//   - ai/mock: deterministic doubles for tests
//   - ai/provider: picks one of the above from Config.Provider
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, provider.New) return INTERFACE types
// so callers cannot couple to a concrete backend. Mock constructors return
// CONCRETE types so tests can inject behavior and assert on call counts.
//
//	p, err := provider.New(ctx, ai.NewConfig(ai.WithProvider(ai.ProviderHuggingFace), ai.WithAPIKey(key)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	vec, err := p.Embedder().EmbedText(ctx, "senior backend engineer")
//
// # Errors
//
// ErrInvalidConfig, ErrUnauthorized and ErrDimensionMismatch are permanent and
// surface immediately. ErrTransient is retried; once attempts run out the error
// wraps ErrRetriesExhausted.
package ai
