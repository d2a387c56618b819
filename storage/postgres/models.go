package postgres

import (
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/poiesic/skillscope/core"
)

type postingRow struct {
	ID              uint64   `gorm:"primaryKey;autoIncrement"`
	Fingerprint     string   `gorm:"type:varchar(64);uniqueIndex;not null"`
	Title           string   `gorm:"type:text;not null"`
	Employer        string   `gorm:"type:text;not null"`
	Location        string   `gorm:"type:text"`
	Description     string   `gorm:"type:text"`
	Requirements    string   `gorm:"type:text"`
	Skills          []string `gorm:"type:jsonb;serializer:json"`
	HasSalary       bool
	SalaryMin       int64
	SalaryMax       int64
	SalaryCurrency  string     `gorm:"type:varchar(8)"`
	SalaryText      string     `gorm:"type:text"`
	SourceURL       string     `gorm:"type:text"`
	SourceName      string     `gorm:"type:varchar(100);index"`
	PostedAt        *time.Time `gorm:"index"`
	IngestedAt      time.Time  `gorm:"index;not null"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime:false"`
	JobType         int
	ExperienceLevel int
	RemoteMode      int

	Chunks []chunkRow `gorm:"foreignKey:PostingID;constraint:OnDelete:CASCADE"`
}

func (postingRow) TableName() string { return "postings" }

type chunkRow struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement"`
	PostingID  uint64          `gorm:"index:idx_chunks_posting,priority:1;not null"`
	Idx        int             `gorm:"index:idx_chunks_posting,priority:2"`
	Text       string          `gorm:"type:text;not null"`
	Embedding  pgvector.Vector `gorm:"type:vector"`
	Title      string          `gorm:"type:text"`
	Employer   string          `gorm:"type:text"`
	Location   string          `gorm:"type:text"`
	SourceName string          `gorm:"type:varchar(100)"`
	SourceURL  string          `gorm:"type:text"`
	Skills     []string        `gorm:"type:jsonb;serializer:json"`
	PostedAt   *time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime:false"`
}

func (chunkRow) TableName() string { return "chunks" }

type scoredChunkRow struct {
	chunkRow
	Score float64
}

type analysisRow struct {
	ID           uint64              `gorm:"primaryKey;autoIncrement"`
	Query        string              `gorm:"type:text;index:idx_analyses_key,priority:1"`
	Role         string              `gorm:"type:text;index:idx_analyses_key,priority:2"`
	Location     string              `gorm:"type:text;index:idx_analyses_key,priority:3"`
	Result       core.AnalysisResult `gorm:"type:jsonb;serializer:json"`
	PostingCount int
	PostingIds   []core.ID `gorm:"type:jsonb;serializer:json"`
	CreatedAt    time.Time `gorm:"index;autoCreateTime:false"`
}

func (analysisRow) TableName() string { return "analyses" }

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func fromOptionalTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

func toPostingRow(p *core.Posting) postingRow {
	row := postingRow{
		ID:              uint64(p.Id),
		Fingerprint:     string(p.Fingerprint),
		Title:           p.Title,
		Employer:        p.Employer,
		Location:        p.Location,
		Description:     p.Description,
		Requirements:    p.Requirements,
		Skills:          p.Skills,
		SourceURL:       p.SourceURL,
		SourceName:      p.SourceName,
		PostedAt:        optionalTime(p.PostedAt),
		IngestedAt:      p.IngestedAt.UTC(),
		UpdatedAt:       p.UpdatedAt.UTC(),
		JobType:         int(p.JobType),
		ExperienceLevel: int(p.ExperienceLevel),
		RemoteMode:      int(p.RemoteMode),
	}
	if p.Salary != nil {
		row.HasSalary = true
		row.SalaryMin = p.Salary.Min
		row.SalaryMax = p.Salary.Max
		row.SalaryCurrency = p.Salary.Currency
		row.SalaryText = p.Salary.Text
	}
	return row
}

func (r *postingRow) toPosting() *core.Posting {
	p := &core.Posting{
		Id:              core.ID(r.ID),
		Fingerprint:     core.Fingerprint(r.Fingerprint),
		Title:           r.Title,
		Employer:        r.Employer,
		Location:        r.Location,
		Description:     r.Description,
		Requirements:    r.Requirements,
		Skills:          r.Skills,
		SourceURL:       r.SourceURL,
		SourceName:      r.SourceName,
		PostedAt:        fromOptionalTime(r.PostedAt),
		IngestedAt:      r.IngestedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
		JobType:         core.JobType(r.JobType),
		ExperienceLevel: core.ExperienceLevel(r.ExperienceLevel),
		RemoteMode:      core.RemoteMode(r.RemoteMode),
	}
	if r.HasSalary {
		p.Salary = &core.SalaryRange{
			Min:      r.SalaryMin,
			Max:      r.SalaryMax,
			Currency: r.SalaryCurrency,
			Text:     r.SalaryText,
		}
	}
	return p
}

func toChunkRow(c *core.Chunk) chunkRow {
	return chunkRow{
		ID:         uint64(c.Id),
		PostingID:  uint64(c.PostingId),
		Idx:        c.Index,
		Text:       c.Text,
		Embedding:  pgvector.NewVector(c.Vector),
		Title:      c.Metadata.Title,
		Employer:   c.Metadata.Employer,
		Location:   c.Metadata.Location,
		SourceName: c.Metadata.SourceName,
		SourceURL:  c.Metadata.SourceURL,
		Skills:     c.Metadata.Skills,
		PostedAt:   optionalTime(c.Metadata.PostedAt),
		CreatedAt:  c.CreatedAt.UTC(),
	}
}

func (r *chunkRow) metadata() core.ChunkMetadata {
	return core.ChunkMetadata{
		Title:      r.Title,
		Employer:   r.Employer,
		Location:   r.Location,
		SourceName: r.SourceName,
		SourceURL:  r.SourceURL,
		Skills:     r.Skills,
		PostedAt:   fromOptionalTime(r.PostedAt),
	}
}

func (r *chunkRow) toChunk() *core.Chunk {
	return &core.Chunk{
		Id:        core.ID(r.ID),
		PostingId: core.ID(r.PostingID),
		Index:     r.Idx,
		Text:      r.Text,
		Vector:    r.Embedding.Slice(),
		Metadata:  r.metadata(),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func toAnalysisRow(a *core.CachedAnalysis) analysisRow {
	return analysisRow{
		ID:           uint64(a.Id),
		Query:        a.Key.Query,
		Role:         a.Key.Role,
		Location:     a.Key.Location,
		Result:       a.Result,
		PostingCount: a.PostingCount,
		PostingIds:   a.PostingIds,
		CreatedAt:    a.CreatedAt.UTC(),
	}
}

func (r *analysisRow) toAnalysis() *core.CachedAnalysis {
	return &core.CachedAnalysis{
		Id:           core.ID(r.ID),
		Key:          core.AnalysisKey{Query: r.Query, Role: r.Role, Location: r.Location},
		Result:       r.Result,
		PostingCount: r.PostingCount,
		PostingIds:   r.PostingIds,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}
