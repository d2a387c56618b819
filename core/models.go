package core

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored entities.
// Postings and chunks receive IDs from store sequences.
type ID uint64

// Fingerprint is the deduplication identity of a posting.
// It is derived from (title, employer, source) so a listing re-fetched from the
// same source always maps to the same value.
type Fingerprint string

// NewFingerprint computes the fingerprint for a listing.
// Inputs are lowercased and trimmed before hashing. Fields are joined with a NUL
// byte so no field value can shift into its neighbour.
func NewFingerprint(title, employer, source string) Fingerprint {
	composite := strings.ToLower(strings.Join([]string{
		strings.TrimSpace(title),
		strings.TrimSpace(employer),
		strings.TrimSpace(source),
	}, "\x00"))
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(composite))
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// SalaryRange is an optional compensation band attached to a posting.
// Min and Max are whole currency units; zero means unknown.
type SalaryRange struct {
	Min      int64
	Max      int64
	Currency string
	Text     string // Raw text as published by the source
}

// Posting is one ingested job listing.
type Posting struct {
	Id              ID
	Fingerprint     Fingerprint
	Title           string
	Employer        string
	Location        string
	Description     string
	Requirements    string
	Skills          []string // Unordered set, stored sorted
	Salary          *SalaryRange
	SourceURL       string
	SourceName      string
	PostedAt        time.Time // Zero when the source did not publish a date
	IngestedAt      time.Time // Refreshed whenever the posting is updated by ingestion
	UpdatedAt       time.Time
	JobType         JobType
	ExperienceLevel ExperienceLevel
	RemoteMode      RemoteMode
}

// ChunkMetadata is a denormalized snapshot of the parent posting taken at ingestion time.
type ChunkMetadata struct {
	Title      string
	Employer   string
	Location   string
	SourceName string
	SourceURL  string
	Skills     []string
	PostedAt   time.Time
}

// Chunk is one retrievable text segment of a posting.
type Chunk struct {
	Id        ID
	PostingId ID
	Index     int // Ordinal position within the posting
	Text      string
	Vector    []float32
	Metadata  ChunkMetadata
	CreatedAt time.Time
}

// SnapshotMetadata captures the chunk metadata for a posting.
func (p *Posting) SnapshotMetadata() ChunkMetadata {
	return ChunkMetadata{
		Title:      p.Title,
		Employer:   p.Employer,
		Location:   p.Location,
		SourceName: p.SourceName,
		SourceURL:  p.SourceURL,
		Skills:     append([]string(nil), p.Skills...),
		PostedAt:   p.PostedAt,
	}
}

// RawPosting is a listing as delivered by a connector, before deduplication.
type RawPosting struct {
	Title           string
	Employer        string
	Location        string
	Description     string
	Requirements    string
	Skills          []string
	Salary          *SalaryRange
	SourceURL       string
	SourceName      string
	PostedAt        time.Time
	JobType         JobType
	ExperienceLevel ExperienceLevel
	RemoteMode      RemoteMode
}

// Fingerprint returns the deduplication identity of the raw listing.
func (r *RawPosting) Fingerprint() Fingerprint {
	return NewFingerprint(r.Title, r.Employer, r.SourceName)
}

// Evidence is one ranked retrieval hit.
type Evidence struct {
	ChunkId   ID
	PostingId ID
	Text      string
	Score     float32
	Metadata  ChunkMetadata
}

// IngestStats reports the outcome of an ingestion run.
type IngestStats struct {
	Fetched       int `json:"fetched"`
	New           int `json:"new"`
	Updated       int `json:"updated"`
	Skipped       int `json:"skipped"`
	ChunksCreated int `json:"chunks_created"`
	Errors        int `json:"errors"`
}
