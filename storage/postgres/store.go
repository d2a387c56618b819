package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
)

// Store implements storage.Store on PostgreSQL.
type Store struct {
	db        *gorm.DB
	dimension int
	now       func() time.Time
	logger    *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithDimension makes Commit reject chunks whose vector length differs from dim.
func WithDimension(dim int) StoreOption {
	return func(s *Store) {
		s.dimension = dim
	}
}

// WithClock overrides the time source used for default timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open connects to dsn, enables the vector extension and migrates the schema.
func Open(ctx context.Context, dsn string, opts ...StoreOption) (*Store, error) {
	s := &Store{
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default().With("component", "postgres"),
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         newSlogAdapter(s.logger),
		NowFunc:        s.now,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	s.db = db
	if err := s.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("enable pgvector: %w", err)
	}
	if err := db.AutoMigrate(&postingRow{}, &chunkRow{}, &analysisRow{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetPosting retrieves a single posting by ID.
func (s *Store) GetPosting(ctx context.Context, id core.ID) (*core.Posting, error) {
	var row postingRow
	if err := s.db.WithContext(ctx).First(&row, uint64(id)).Error; err != nil {
		return nil, translate(err)
	}
	return row.toPosting(), nil
}

// GetPostings retrieves postings in the order of ids, skipping missing ones.
func (s *Store) GetPostings(ctx context.Context, ids ...core.ID) ([]*core.Posting, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []postingRow
	if err := s.db.WithContext(ctx).Where("id IN ?", toUint64s(ids)).Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	byID := make(map[core.ID]*core.Posting, len(rows))
	for i := range rows {
		byID[core.ID(rows[i].ID)] = rows[i].toPosting()
	}
	var result []*core.Posting
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

// GetByFingerprint looks a posting up by the unique fingerprint column.
func (s *Store) GetByFingerprint(ctx context.Context, fp core.Fingerprint) (*core.Posting, error) {
	var row postingRow
	if err := s.db.WithContext(ctx).Where("fingerprint = ?", string(fp)).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.toPosting(), nil
}

// GetChunks returns the chunks of a posting ordered by index.
func (s *Store) GetChunks(ctx context.Context, postingID core.ID) ([]*core.Chunk, error) {
	var rows []chunkRow
	err := s.db.WithContext(ctx).Where("posting_id = ?", uint64(postingID)).Order("idx").Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return toChunks(rows), nil
}

// GetChunksByIds retrieves chunks in the order of ids, skipping missing ones.
func (s *Store) GetChunksByIds(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []chunkRow
	if err := s.db.WithContext(ctx).Where("id IN ?", toUint64s(ids)).Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	byID := make(map[core.ID]*core.Chunk, len(rows))
	for _, c := range toChunks(rows) {
		byID[c.Id] = c
	}
	var result []*core.Chunk
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

// FindSimilar ranks chunks with the cosine distance operator. Ties keep
// (posting id, chunk index) order.
func (s *Store) FindSimilar(ctx context.Context, q storage.SimilarityQuery) ([]*core.Evidence, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	vec := pgvector.NewVector(q.Vector)
	tx := s.db.WithContext(ctx).Model(&chunkRow{}).
		Select("chunks.*, 1 - (embedding <=> ?) AS score", vec)
	tx = applyFilters(tx, q.Filters)
	if q.MinScore > 0 {
		tx = tx.Where("1 - (embedding <=> ?) >= ?", vec, q.MinScore)
	}

	var rows []scoredChunkRow
	err := tx.Clauses(clause.OrderBy{
		Expression: clause.Expr{SQL: "embedding <=> ?, posting_id, idx", Vars: []any{vec}, WithoutParentheses: true},
	}).Limit(q.TopK).Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	evidence := make([]*core.Evidence, len(rows))
	for i := range rows {
		evidence[i] = &core.Evidence{
			ChunkId:   core.ID(rows[i].ID),
			PostingId: core.ID(rows[i].PostingID),
			Text:      rows[i].Text,
			Score:     float32(rows[i].Score),
			Metadata:  rows[i].metadata(),
		}
	}
	return evidence, nil
}

// applyFilters adds typed WHERE clauses for each set filter.
func applyFilters(tx *gorm.DB, f *storage.Filters) *gorm.DB {
	if f.IsEmpty() {
		return tx
	}
	if f.Location != "" {
		tx = tx.Where("location ILIKE ?", likePattern(f.Location))
	}
	if f.Role != "" {
		tx = tx.Where("title ILIKE ?", likePattern(f.Role))
	}
	if !f.PostedSince.IsZero() {
		tx = tx.Where("posted_at IS NOT NULL AND posted_at >= ?", f.PostedSince.UTC())
	}
	return tx
}

// likePattern builds a substring pattern with LIKE metacharacters escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// Commit writes the batch in one transaction. IDs assigned during a failed
// commit are cleared again so the batch can be retried.
func (s *Store) Commit(ctx context.Context, batch *storage.WriteBatch) (err error) {
	if batch == nil || batch.Len() == 0 {
		return nil
	}

	var assignedPostings []*core.Posting
	var assignedChunks []*core.Chunk
	defer func() {
		if err == nil {
			return
		}
		for _, p := range assignedPostings {
			p.Id = 0
		}
		for _, c := range assignedChunks {
			c.Id = 0
			c.PostingId = 0
		}
	}()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, w := range batch.Writes() {
			p := w.Posting
			if p == nil {
				return fmt.Errorf("%w: nil posting", storage.ErrInvalidBatch)
			}
			for _, c := range w.Chunks {
				if err := core.ValidateChunk(c, s.dimension); err != nil {
					return fmt.Errorf("posting %q: %w", p.Title, err)
				}
			}
			if p.IngestedAt.IsZero() {
				p.IngestedAt = s.now()
			}
			if p.UpdatedAt.IsZero() {
				p.UpdatedAt = p.IngestedAt
			}

			row := toPostingRow(p)
			if p.Id == 0 {
				if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
					return translate(err)
				}
				p.Id = core.ID(row.ID)
				assignedPostings = append(assignedPostings, p)
			} else {
				result := tx.Model(&postingRow{}).Where("id = ?", row.ID).
					Select("*").Omit("id", clause.Associations).Updates(&row)
				if result.Error != nil {
					return translate(result.Error)
				}
				if result.RowsAffected == 0 {
					return fmt.Errorf("%w: posting %d", storage.ErrNotFound, p.Id)
				}
				if w.ReplaceChunks {
					if err := tx.Where("posting_id = ?", row.ID).Delete(&chunkRow{}).Error; err != nil {
						return translate(err)
					}
				}
			}

			for _, c := range w.Chunks {
				c.PostingId = p.Id
				if c.CreatedAt.IsZero() {
					c.CreatedAt = s.now()
				}
				crow := toChunkRow(c)
				if err := tx.Create(&crow).Error; err != nil {
					return translate(err)
				}
				if c.Id == 0 {
					assignedChunks = append(assignedChunks, c)
				}
				c.Id = core.ID(crow.ID)
			}
		}
		return nil
	})
}

// DeletePostings removes postings; chunks follow through the cascade.
func (s *Store) DeletePostings(ctx context.Context, ids ...core.ID) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id IN ?", toUint64s(ids)).Delete(&postingRow{})
		if result.Error != nil {
			return translate(result.Error)
		}
		if int(result.RowsAffected) != len(ids) {
			return fmt.Errorf("%w: %d of %d postings", storage.ErrNotFound, len(ids)-int(result.RowsAffected), len(ids))
		}
		return nil
	})
}

// DeletePostingsBefore removes postings ingested before cutoff.
func (s *Store) DeletePostingsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result := s.db.WithContext(ctx).Where("ingested_at < ?", cutoff.UTC()).Delete(&postingRow{})
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	if result.RowsAffected > 0 {
		s.logger.Info("deleted stale postings", "count", result.RowsAffected, "cutoff", cutoff)
	}
	return int(result.RowsAffected), nil
}

// ForEachPosting pages through postings in ID order.
func (s *Store) ForEachPosting(ctx context.Context, fn func(*core.Posting) error) error {
	var rows []postingRow
	result := s.db.WithContext(ctx).Order("id").FindInBatches(&rows, 100, func(tx *gorm.DB, batch int) error {
		for i := range rows {
			if err := fn(rows[i].toPosting()); err != nil {
				return err
			}
		}
		return nil
	})
	return result.Error
}

// CountPostings returns the number of stored postings.
func (s *Store) CountPostings(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&postingRow{}).Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return int(n), nil
}

// ReplaceChunkVectors overwrites every chunk vector of a posting in one transaction.
func (s *Store) ReplaceChunkVectors(ctx context.Context, postingID core.ID, vectors map[core.ID][]float32) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []chunkRow
		if err := tx.Where("posting_id = ?", uint64(postingID)).Find(&rows).Error; err != nil {
			return translate(err)
		}
		for i := range rows {
			vector, ok := vectors[core.ID(rows[i].ID)]
			if !ok {
				return fmt.Errorf("%w: no vector for chunk %d of posting %d", storage.ErrInvalidBatch, rows[i].ID, postingID)
			}
			chunk := rows[i].toChunk()
			chunk.Vector = vector
			if err := core.ValidateChunk(chunk, s.dimension); err != nil {
				return fmt.Errorf("posting %d: %w", postingID, err)
			}
			err := tx.Model(&chunkRow{}).Where("id = ?", rows[i].ID).
				Update("embedding", pgvector.NewVector(vector)).Error
			if err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

// AppendAnalysis inserts a new analysis row.
func (s *Store) AppendAnalysis(ctx context.Context, analysis *core.CachedAnalysis) error {
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = s.now()
	}
	row := toAnalysisRow(analysis)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return translate(err)
	}
	analysis.Id = core.ID(row.ID)
	return nil
}

// LatestAnalysis returns the newest row matching key exactly.
func (s *Store) LatestAnalysis(ctx context.Context, key core.AnalysisKey) (*core.CachedAnalysis, error) {
	var row analysisRow
	err := s.db.WithContext(ctx).
		Where(&analysisRow{Query: key.Query, Role: key.Role, Location: key.Location}, "Query", "Role", "Location").
		Order("created_at DESC, id DESC").
		First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return row.toAnalysis(), nil
}

// AnalysesSince returns rows created at or after since, oldest first.
func (s *Store) AnalysesSince(ctx context.Context, since time.Time) ([]*core.CachedAnalysis, error) {
	var rows []analysisRow
	err := s.db.WithContext(ctx).Where("created_at >= ?", since.UTC()).Order("created_at, id").Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	result := make([]*core.CachedAnalysis, len(rows))
	for i := range rows {
		result[i] = rows[i].toAnalysis()
	}
	return result, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", storage.ErrDuplicateKey, err)
	}
	return err
}

func toUint64s(ids []core.ID) []uint64 {
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return out
}

func toChunks(rows []chunkRow) []*core.Chunk {
	chunks := make([]*core.Chunk, len(rows))
	for i := range rows {
		chunks[i] = rows[i].toChunk()
	}
	return chunks
}
