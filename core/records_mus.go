package core

import (
	"errors"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-maintained MUS serializers for the records persisted by the embedded store.
// Field order is the wire order; append new fields at the end of a record.

var (
	errShortBuffer    = errors.New("mus: byte slice too small")
	errNegativeLength = errors.New("mus: negative length")
)

// musReader threads offset and first error through a sequence of unmarshal calls.
type musReader struct {
	bs  []byte
	n   int
	err error
}

func read[T any](r *musReader, unmarshal func([]byte) (T, int, error)) (v T) {
	if r.err != nil {
		return
	}
	v, n, err := unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return
}

// IDMUS serializes an ID as an unsigned varint.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

// timeMUS writes a presence flag followed by Unix microseconds so the zero time survives a round trip.
var timeMUS = timeSer{}

type timeSer struct{}

func (timeSer) Marshal(v time.Time, bs []byte) (n int) {
	if v.IsZero() {
		return ord.Bool.Marshal(false, bs)
	}
	n = ord.Bool.Marshal(true, bs)
	return n + varint.Int64.Marshal(v.UnixMicro(), bs[n:])
}

func (timeSer) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !present {
		return time.Time{}, n, err
	}
	micros, n1, err := varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (timeSer) Size(v time.Time) int {
	if v.IsZero() {
		return ord.Bool.Size(false)
	}
	return ord.Bool.Size(true) + varint.Int64.Size(v.UnixMicro())
}

func unmarshalLength(bs []byte) (int, int, error) {
	l, n, err := varint.Int.Unmarshal(bs)
	if err == nil && l < 0 {
		err = errNegativeLength
	}
	return l, n, err
}

var stringsMUS = stringsSer{}

type stringsSer struct{}

func (stringsSer) Marshal(v []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return
}

func (stringsSer) Unmarshal(bs []byte) (v []string, n int, err error) {
	l, n, err := unmarshalLength(bs)
	if err != nil || l == 0 {
		return nil, n, err
	}
	v = make([]string, l)
	var n1 int
	for i := range v {
		v[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return
}

func (stringsSer) Size(v []string) (size int) {
	size = varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return
}

var float32sMUS = float32sSer{}

type float32sSer struct{}

func (float32sSer) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Float32.Marshal(f, bs[n:])
	}
	return
}

func (float32sSer) Unmarshal(bs []byte) (v []float32, n int, err error) {
	l, n, err := unmarshalLength(bs)
	if err != nil || l == 0 {
		return nil, n, err
	}
	v = make([]float32, l)
	var n1 int
	for i := range v {
		v[i], n1, err = varint.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return
}

func (float32sSer) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Float32.Size(f)
	}
	return
}

var idsMUS = idsSer{}

type idsSer struct{}

func (idsSer) Marshal(v []ID, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, id := range v {
		n += IDMUS.Marshal(id, bs[n:])
	}
	return
}

func (idsSer) Unmarshal(bs []byte) (v []ID, n int, err error) {
	l, n, err := unmarshalLength(bs)
	if err != nil || l == 0 {
		return nil, n, err
	}
	v = make([]ID, l)
	var n1 int
	for i := range v {
		v[i], n1, err = IDMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return
}

func (idsSer) Size(v []ID) (size int) {
	size = varint.Int.Size(len(v))
	for _, id := range v {
		size += IDMUS.Size(id)
	}
	return
}

var bytesMUS = bytesSer{}

type bytesSer struct{}

func (bytesSer) Marshal(v []byte, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	return n + copy(bs[n:], v)
}

func (bytesSer) Unmarshal(bs []byte) (v []byte, n int, err error) {
	l, n, err := unmarshalLength(bs)
	if err != nil {
		return nil, n, err
	}
	if len(bs)-n < l {
		return nil, n, errShortBuffer
	}
	v = make([]byte, l)
	copy(v, bs[n:n+l])
	return v, n + l, nil
}

func (bytesSer) Size(v []byte) int {
	return varint.Int.Size(len(v)) + len(v)
}

var salaryMUS = salarySer{}

type salarySer struct{}

func (salarySer) Marshal(v *SalaryRange, bs []byte) (n int) {
	if v == nil {
		return ord.Bool.Marshal(false, bs)
	}
	n = ord.Bool.Marshal(true, bs)
	n += varint.Int64.Marshal(v.Min, bs[n:])
	n += varint.Int64.Marshal(v.Max, bs[n:])
	n += ord.String.Marshal(v.Currency, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	return
}

func (salarySer) Unmarshal(bs []byte) (v *SalaryRange, n int, err error) {
	r := &musReader{bs: bs}
	if !read(r, ord.Bool.Unmarshal) {
		return nil, r.n, r.err
	}
	v = &SalaryRange{
		Min:      read(r, varint.Int64.Unmarshal),
		Max:      read(r, varint.Int64.Unmarshal),
		Currency: read(r, ord.String.Unmarshal),
		Text:     read(r, ord.String.Unmarshal),
	}
	if r.err != nil {
		return nil, r.n, r.err
	}
	return v, r.n, nil
}

func (salarySer) Size(v *SalaryRange) int {
	if v == nil {
		return ord.Bool.Size(false)
	}
	return ord.Bool.Size(true) +
		varint.Int64.Size(v.Min) +
		varint.Int64.Size(v.Max) +
		ord.String.Size(v.Currency) +
		ord.String.Size(v.Text)
}

// ChunkMetadataMUS serializes the denormalized posting snapshot carried by a chunk.
var ChunkMetadataMUS = chunkMetadataMUS{}

type chunkMetadataMUS struct{}

func (chunkMetadataMUS) Marshal(v ChunkMetadata, bs []byte) (n int) {
	n = ord.String.Marshal(v.Title, bs)
	n += ord.String.Marshal(v.Employer, bs[n:])
	n += ord.String.Marshal(v.Location, bs[n:])
	n += ord.String.Marshal(v.SourceName, bs[n:])
	n += ord.String.Marshal(v.SourceURL, bs[n:])
	n += stringsMUS.Marshal(v.Skills, bs[n:])
	n += timeMUS.Marshal(v.PostedAt, bs[n:])
	return
}

func (chunkMetadataMUS) Unmarshal(bs []byte) (v ChunkMetadata, n int, err error) {
	r := &musReader{bs: bs}
	v = ChunkMetadata{
		Title:      read(r, ord.String.Unmarshal),
		Employer:   read(r, ord.String.Unmarshal),
		Location:   read(r, ord.String.Unmarshal),
		SourceName: read(r, ord.String.Unmarshal),
		SourceURL:  read(r, ord.String.Unmarshal),
		Skills:     read(r, stringsMUS.Unmarshal),
		PostedAt:   read(r, timeMUS.Unmarshal),
	}
	return v, r.n, r.err
}

func (chunkMetadataMUS) Size(v ChunkMetadata) int {
	return ord.String.Size(v.Title) +
		ord.String.Size(v.Employer) +
		ord.String.Size(v.Location) +
		ord.String.Size(v.SourceName) +
		ord.String.Size(v.SourceURL) +
		stringsMUS.Size(v.Skills) +
		timeMUS.Size(v.PostedAt)
}

// PostingMUS serializes a Posting.
var PostingMUS = postingMUS{}

type postingMUS struct{}

func (postingMUS) Marshal(v Posting, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(string(v.Fingerprint), bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Employer, bs[n:])
	n += ord.String.Marshal(v.Location, bs[n:])
	n += ord.String.Marshal(v.Description, bs[n:])
	n += ord.String.Marshal(v.Requirements, bs[n:])
	n += stringsMUS.Marshal(v.Skills, bs[n:])
	n += salaryMUS.Marshal(v.Salary, bs[n:])
	n += ord.String.Marshal(v.SourceURL, bs[n:])
	n += ord.String.Marshal(v.SourceName, bs[n:])
	n += timeMUS.Marshal(v.PostedAt, bs[n:])
	n += timeMUS.Marshal(v.IngestedAt, bs[n:])
	n += timeMUS.Marshal(v.UpdatedAt, bs[n:])
	n += varint.Int.Marshal(int(v.JobType), bs[n:])
	n += varint.Int.Marshal(int(v.ExperienceLevel), bs[n:])
	n += varint.Int.Marshal(int(v.RemoteMode), bs[n:])
	return
}

func (postingMUS) Unmarshal(bs []byte) (v Posting, n int, err error) {
	r := &musReader{bs: bs}
	v = Posting{
		Id:              read(r, IDMUS.Unmarshal),
		Fingerprint:     Fingerprint(read(r, ord.String.Unmarshal)),
		Title:           read(r, ord.String.Unmarshal),
		Employer:        read(r, ord.String.Unmarshal),
		Location:        read(r, ord.String.Unmarshal),
		Description:     read(r, ord.String.Unmarshal),
		Requirements:    read(r, ord.String.Unmarshal),
		Skills:          read(r, stringsMUS.Unmarshal),
		Salary:          read(r, salaryMUS.Unmarshal),
		SourceURL:       read(r, ord.String.Unmarshal),
		SourceName:      read(r, ord.String.Unmarshal),
		PostedAt:        read(r, timeMUS.Unmarshal),
		IngestedAt:      read(r, timeMUS.Unmarshal),
		UpdatedAt:       read(r, timeMUS.Unmarshal),
		JobType:         JobType(read(r, varint.Int.Unmarshal)),
		ExperienceLevel: ExperienceLevel(read(r, varint.Int.Unmarshal)),
		RemoteMode:      RemoteMode(read(r, varint.Int.Unmarshal)),
	}
	return v, r.n, r.err
}

func (postingMUS) Size(v Posting) int {
	return IDMUS.Size(v.Id) +
		ord.String.Size(string(v.Fingerprint)) +
		ord.String.Size(v.Title) +
		ord.String.Size(v.Employer) +
		ord.String.Size(v.Location) +
		ord.String.Size(v.Description) +
		ord.String.Size(v.Requirements) +
		stringsMUS.Size(v.Skills) +
		salaryMUS.Size(v.Salary) +
		ord.String.Size(v.SourceURL) +
		ord.String.Size(v.SourceName) +
		timeMUS.Size(v.PostedAt) +
		timeMUS.Size(v.IngestedAt) +
		timeMUS.Size(v.UpdatedAt) +
		varint.Int.Size(int(v.JobType)) +
		varint.Int.Size(int(v.ExperienceLevel)) +
		varint.Int.Size(int(v.RemoteMode))
}

// ChunkMUS serializes a Chunk together with its vector so both land in one value.
var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.PostingId, bs[n:])
	n += varint.Int.Marshal(v.Index, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += float32sMUS.Marshal(v.Vector, bs[n:])
	n += ChunkMetadataMUS.Marshal(v.Metadata, bs[n:])
	n += timeMUS.Marshal(v.CreatedAt, bs[n:])
	return
}

func (chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	r := &musReader{bs: bs}
	v = Chunk{
		Id:        read(r, IDMUS.Unmarshal),
		PostingId: read(r, IDMUS.Unmarshal),
		Index:     read(r, varint.Int.Unmarshal),
		Text:      read(r, ord.String.Unmarshal),
		Vector:    read(r, float32sMUS.Unmarshal),
		Metadata:  read(r, ChunkMetadataMUS.Unmarshal),
		CreatedAt: read(r, timeMUS.Unmarshal),
	}
	return v, r.n, r.err
}

func (chunkMUS) Size(v Chunk) int {
	return IDMUS.Size(v.Id) +
		IDMUS.Size(v.PostingId) +
		varint.Int.Size(v.Index) +
		ord.String.Size(v.Text) +
		float32sMUS.Size(v.Vector) +
		ChunkMetadataMUS.Size(v.Metadata) +
		timeMUS.Size(v.CreatedAt)
}

// AnalysisRecord is the persisted form of a CachedAnalysis. The result is kept
// as an opaque JSON document because its shape is owned by the synthesizer.
type AnalysisRecord struct {
	Id           ID
	Key          AnalysisKey
	Payload      []byte
	PostingCount int
	PostingIds   []ID
	CreatedAt    time.Time
}

// AnalysisRecordMUS serializes an AnalysisRecord.
var AnalysisRecordMUS = analysisRecordMUS{}

type analysisRecordMUS struct{}

func (analysisRecordMUS) Marshal(v AnalysisRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Key.Query, bs[n:])
	n += ord.String.Marshal(v.Key.Role, bs[n:])
	n += ord.String.Marshal(v.Key.Location, bs[n:])
	n += bytesMUS.Marshal(v.Payload, bs[n:])
	n += varint.Int.Marshal(v.PostingCount, bs[n:])
	n += idsMUS.Marshal(v.PostingIds, bs[n:])
	n += timeMUS.Marshal(v.CreatedAt, bs[n:])
	return
}

func (analysisRecordMUS) Unmarshal(bs []byte) (v AnalysisRecord, n int, err error) {
	r := &musReader{bs: bs}
	v = AnalysisRecord{
		Id: read(r, IDMUS.Unmarshal),
		Key: AnalysisKey{
			Query:    read(r, ord.String.Unmarshal),
			Role:     read(r, ord.String.Unmarshal),
			Location: read(r, ord.String.Unmarshal),
		},
		Payload:      read(r, bytesMUS.Unmarshal),
		PostingCount: read(r, varint.Int.Unmarshal),
		PostingIds:   read(r, idsMUS.Unmarshal),
		CreatedAt:    read(r, timeMUS.Unmarshal),
	}
	return v, r.n, r.err
}

func (analysisRecordMUS) Size(v AnalysisRecord) int {
	return IDMUS.Size(v.Id) +
		ord.String.Size(v.Key.Query) +
		ord.String.Size(v.Key.Role) +
		ord.String.Size(v.Key.Location) +
		bytesMUS.Size(v.Payload) +
		varint.Int.Size(v.PostingCount) +
		idsMUS.Size(v.PostingIds) +
		timeMUS.Size(v.CreatedAt)
}
