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

// Package storage provides the storage abstraction layer for skillscope.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic. Two backends implement them interchangeably:
//
//   - storage/badger: embedded BadgerDB store, the default
//   - storage/postgres: PostgreSQL with the pgvector extension
//
// # Constructor Return Type Pattern
//
// Backend constructors return their concrete store type, which satisfies
// storage.Store. Consumers (retriever, ingestion pipeline, cache) accept the
// narrow interface they need:
//
//	store, err := badger.Open("/path/to/db", badger.WithDimension(384))
//	retriever := search.NewRetriever(store, embedder)
//	cache := cache.New(store)
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - PostingRepository: postings, their chunks, similarity search, retention
//   - AnalysisRepository: append-only analysis memo rows
//   - Store: both, plus Close
//
// Writes go through WriteBatch: the ingestion pipeline stages postings with
// their chunk sets and Commit applies the whole batch in one transaction, so a
// chunk is never visible without its vector and its parent posting.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemoryStore()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
