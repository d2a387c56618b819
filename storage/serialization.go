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

package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/skillscope/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalPosting serializes a Posting to bytes.
func MarshalPosting(posting *core.Posting) []byte {
	buf := make([]byte, core.PostingMUS.Size(*posting))
	core.PostingMUS.Marshal(*posting, buf)
	return buf
}

// UnmarshalPosting deserializes a Posting from bytes.
func UnmarshalPosting(data []byte) (*core.Posting, error) {
	posting, _, err := core.PostingMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: posting: %w", ErrSerializationFailed, err)
	}
	return &posting, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk: %w", ErrSerializationFailed, err)
	}
	return &chunk, nil
}

// MarshalAnalysis serializes a CachedAnalysis. The result travels as JSON inside
// the record so its schema can evolve without a storage migration.
func MarshalAnalysis(analysis *core.CachedAnalysis) ([]byte, error) {
	payload, err := json.Marshal(analysis.Result)
	if err != nil {
		return nil, fmt.Errorf("%w: analysis result: %w", ErrSerializationFailed, err)
	}
	record := core.AnalysisRecord{
		Id:           analysis.Id,
		Key:          analysis.Key,
		Payload:      payload,
		PostingCount: analysis.PostingCount,
		PostingIds:   analysis.PostingIds,
		CreatedAt:    analysis.CreatedAt,
	}
	buf := make([]byte, core.AnalysisRecordMUS.Size(record))
	core.AnalysisRecordMUS.Marshal(record, buf)
	return buf, nil
}

// UnmarshalAnalysis deserializes a CachedAnalysis.
func UnmarshalAnalysis(data []byte) (*core.CachedAnalysis, error) {
	record, _, err := core.AnalysisRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: analysis: %w", ErrSerializationFailed, err)
	}
	analysis := &core.CachedAnalysis{
		Id:           record.Id,
		Key:          record.Key,
		PostingCount: record.PostingCount,
		PostingIds:   record.PostingIds,
		CreatedAt:    record.CreatedAt,
	}
	if err := json.Unmarshal(record.Payload, &analysis.Result); err != nil {
		return nil, fmt.Errorf("%w: analysis result: %w", ErrSerializationFailed, err)
	}
	return analysis, nil
}
