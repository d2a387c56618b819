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

// Package search retrieves ranked evidence from stored posting chunks.
//
// The Retriever embeds a query, asks the posting repository for the chunks most
// similar to it under optional metadata filters, and returns them as
// core.Evidence ranked by cosine similarity. HybridSearch additionally boosts
// hits whose text contains query keywords, after stop-word filtering.
//
// Rankings are stable: hits with equal scores keep (posting id, chunk index)
// order, so repeated queries over the same corpus return the same list.
package search
