package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/skillscope/core"
)

// Key prefixes for different data types. Every prefix ends in ':' so that no
// prefix is a leading substring of another.
const (
	postingPrefix       = "post:"
	postingFpPrefix     = "postfp:"
	postingIngestPrefix = "posting:"
	chunkPrefix         = "chunk:"
	chunkPostingPrefix  = "chunkp:"
	analysisPrefix      = "anrec:"
	analysisKeyPrefix   = "ankey:"
	analysisDatePrefix  = "andate:"

	postingIDSeq  = "seq:posting"
	chunkIDSeq    = "seq:chunk"
	analysisIDSeq = "seq:analysis"
)

// appendUint64 writes v in BigEndian order so lexicographic sort matches numeric order.
func appendUint64(buf []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(buf, v)
}

// appendTime writes t as Unix microseconds. Times before the epoch sort first.
func appendTime(buf []byte, t time.Time) []byte {
	return appendUint64(buf, uint64(max(t.UnixMicro(), 0)))
}

// makePostingKey generates a key for a posting by ID.
func makePostingKey(id core.ID) []byte {
	return appendUint64([]byte(postingPrefix), uint64(id))
}

// makeFingerprintKey generates the unique fingerprint index key.
func makeFingerprintKey(fp core.Fingerprint) []byte {
	return append([]byte(postingFpPrefix), fp...)
}

// makeIngestKey generates a key for the ingest-time index.
// Format: prefix:ingestedAt:id
func makeIngestKey(ingestedAt time.Time, id core.ID) []byte {
	return appendUint64(appendTime([]byte(postingIngestPrefix), ingestedAt), uint64(id))
}

// makePartialIngestKey generates a partial key for ingest-time range scans.
func makePartialIngestKey(t time.Time) []byte {
	return appendTime([]byte(postingIngestPrefix), t)
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return appendUint64([]byte(chunkPrefix), uint64(id))
}

// makeChunkPostingKey generates a composite key for the posting->chunk index.
// Format: prefix:postingID:chunkID
func makeChunkPostingKey(postingID, chunkID core.ID) []byte {
	return appendUint64(makePartialChunkPostingKey(postingID), uint64(chunkID))
}

// makePartialChunkPostingKey generates the scan prefix for a posting's chunks.
func makePartialChunkPostingKey(postingID core.ID) []byte {
	return appendUint64([]byte(chunkPostingPrefix), uint64(postingID))
}

// makeAnalysisKey generates a key for an analysis row by ID.
func makeAnalysisKey(id core.ID) []byte {
	return appendUint64([]byte(analysisPrefix), uint64(id))
}

// makeAnalysisLookupKey generates the composite key for lookups by analysis key.
// Format: prefix:digest:createdAt:id
func makeAnalysisLookupKey(key core.AnalysisKey, createdAt time.Time, id core.ID) []byte {
	return appendUint64(appendTime(makePartialAnalysisLookupKey(key), createdAt), uint64(id))
}

// makePartialAnalysisLookupKey generates the scan prefix for one analysis key.
func makePartialAnalysisLookupKey(key core.AnalysisKey) []byte {
	return append([]byte(analysisKeyPrefix+key.Digest()), ':')
}

// makeAnalysisDateKey generates a key for the analysis creation-time index.
// Format: prefix:createdAt:id
func makeAnalysisDateKey(createdAt time.Time, id core.ID) []byte {
	return appendUint64(appendTime([]byte(analysisDatePrefix), createdAt), uint64(id))
}

// makePartialAnalysisDateKey generates a partial key for creation-time range scans.
func makePartialAnalysisDateKey(t time.Time) []byte {
	return appendTime([]byte(analysisDatePrefix), t)
}
