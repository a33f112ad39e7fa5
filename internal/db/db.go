package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"document-quiz/internal/config"
	"document-quiz/internal/models"
)

// ChunkRecord is one embedded chunk row. Rows are scoped by DocumentID so
// concurrent sessions never see each other's chunks.
type ChunkRecord struct {
	bun.BaseModel `bun:"table:document_chunks,alias:dc"`
	ID            int64           `bun:"id,pk,autoincrement"`
	DocumentID    string          `bun:"document_id,notnull"`
	ChunkIndex    int             `bun:"chunk_index,notnull"`
	Content       string          `bun:"content,notnull"`
	Embedding     pgvector.Vector `bun:"embedding,notnull,type:vector"`
	Distance      float64         `bun:"distance,scanonly"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens the pool with bun's pgdriver, or lib/pq when driver is "pq".
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: database dsn is empty", models.ErrConfig)
	}
	if cfg.Driver == "pq" {
		return sql.Open("postgres", cfg.DSN)
	}
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN))), nil
}

// InitDB enables pgvector and creates the chunk table.
func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewRaw("CREATE EXTENSION IF NOT EXISTS vector").Exec(ctx); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	if _, err := db.NewCreateTable().Model((*ChunkRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create chunk table: %w", err)
	}
	_, err := db.NewCreateIndex().
		Model((*ChunkRecord)(nil)).
		Index("document_chunks_document_id_idx").
		Column("document_id").
		IfNotExists().
		Exec(ctx)
	return err
}

// drop table document_chunks
func DropChunks(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*ChunkRecord)(nil)).IfExists().Exec(ctx)
	return err
}

// Store is a pgvector backed models.IndexStore.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Build replaces the rows of docID in a single transaction.
func (s *Store) Build(ctx context.Context, docID string, items []models.ChunkEmbedding) (models.Index, error) {
	records := toRecords(docID, items)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*ChunkRecord)(nil)).Where("document_id = ?", docID).Exec(ctx); err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&records).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: store chunks: %w", models.ErrEmbedding, err)
	}
	log.Debug().Str("document_id", docID).Int("chunks", len(records)).Msg("Stored chunks")
	return &Index{db: s.db, docID: docID, count: len(records)}, nil
}

func toRecords(docID string, items []models.ChunkEmbedding) []ChunkRecord {
	records := make([]ChunkRecord, len(items))
	for i, it := range items {
		records[i] = ChunkRecord{
			DocumentID: docID,
			ChunkIndex: it.Index,
			Content:    it.Content,
			Embedding:  pgvector.NewVector(it.Embedding),
		}
	}
	return records
}

// Index searches the rows of one document.
type Index struct {
	db    *bun.DB
	docID string
	count int
}

func (i *Index) Count() int {
	return i.count
}

// Search orders by cosine distance; similarity is reported as 1 - distance.
func (i *Index) Search(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error) {
	n := min(k, i.count)
	if n <= 0 {
		return []models.ScoredChunk{}, nil
	}
	query := pgvector.NewVector(vector)

	var rows []ChunkRecord
	err := i.db.NewSelect().
		Model(&rows).
		Column("document_id", "chunk_index", "content").
		ColumnExpr("embedding <=> ? AS distance", query).
		Where("document_id = ?", i.docID).
		OrderExpr("embedding <=> ?", query).
		Limit(n).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: search chunks: %w", models.ErrEmbedding, err)
	}
	return toHits(rows), nil
}

func toHits(rows []ChunkRecord) []models.ScoredChunk {
	hits := make([]models.ScoredChunk, len(rows))
	for j, r := range rows {
		hits[j] = models.ScoredChunk{
			Chunk:      models.Chunk{DocumentID: r.DocumentID, Index: r.ChunkIndex, Content: r.Content},
			Similarity: float32(1 - r.Distance),
		}
	}
	return hits
}

// Close deletes the document's rows.
func (i *Index) Close(ctx context.Context) error {
	_, err := i.db.NewDelete().Model((*ChunkRecord)(nil)).Where("document_id = ?", i.docID).Exec(ctx)
	return err
}
