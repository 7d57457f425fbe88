package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/atmosferica/shop-assistant/internal/domain"
)

// PostgresStore handles all relational database operations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

const productColumns = `id, name, COALESCE(description, ''), COALESCE(category, ''), COALESCE(type, ''),
	 COALESCE(brand, ''), COALESCE(model, ''), COALESCE(tags, '{}'), COALESCE(attributes, 'null'::jsonb),
	 is_active, created_at, updated_at`

const brandColumns = `id, brand_name, COALESCE(title, ''), COALESCE(content, ''), COALESCE(json_data, 'null'::jsonb),
	 COALESCE(category, ''), COALESCE(tags, '{}'), is_active, created_at, updated_at`

// --- Products ---

// ActiveProducts returns up to limit active products ordered by id. A limit
// <= 0 returns all of them (rebuild jobs need the full catalog).
func (s *PostgresStore) ActiveProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active = TRUE ORDER BY id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// ProductsByIDs returns the active products among ids. Inactive or unknown
// ids are silently dropped.
func (s *PostgresStore) ProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) AND is_active = TRUE ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("products by ids: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		var attrs []byte
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Category, &p.Type,
			&p.Brand, &p.Model, pq.Array(&p.Tags), &attrs,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if len(attrs) > 0 && string(attrs) != "null" {
			if err := json.Unmarshal(attrs, &p.Attributes); err != nil {
				// Malformed attribute payloads are tolerated; the product is
				// still searchable by its fixed columns.
				p.Attributes = nil
			}
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// --- Brand documents ---

// ActiveBrandDocs returns up to limit active brand documents ordered by id.
// A limit <= 0 returns all of them.
func (s *PostgresStore) ActiveBrandDocs(ctx context.Context, limit int) ([]domain.BrandDoc, error) {
	query := `SELECT ` + brandColumns + ` FROM brand_info WHERE is_active = TRUE ORDER BY id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active brand docs: %w", err)
	}
	defer rows.Close()

	return scanBrandDocs(rows)
}

// BrandDocsByIDs returns the active brand documents among ids.
func (s *PostgresStore) BrandDocsByIDs(ctx context.Context, ids []int64) ([]domain.BrandDoc, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + brandColumns + ` FROM brand_info WHERE id = ANY($1) AND is_active = TRUE ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("brand docs by ids: %w", err)
	}
	defer rows.Close()

	return scanBrandDocs(rows)
}

func scanBrandDocs(rows *sql.Rows) ([]domain.BrandDoc, error) {
	var docs []domain.BrandDoc
	for rows.Next() {
		var b domain.BrandDoc
		var jsonData []byte
		if err := rows.Scan(
			&b.ID, &b.BrandName, &b.Title, &b.Content, &jsonData,
			&b.Category, pq.Array(&b.Tags), &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan brand doc: %w", err)
		}
		if len(jsonData) > 0 && string(jsonData) != "null" {
			if err := json.Unmarshal(jsonData, &b.JSONData); err != nil {
				b.JSONData = nil
			}
		}
		docs = append(docs, b)
	}
	return docs, rows.Err()
}

// --- Query log ---

// Record upserts an analytics row for an executed search query. Unique on
// (query_text, user_id, source); re-running the same query from the same
// actor refreshes the row instead of duplicating it.
func (s *PostgresStore) Record(ctx context.Context, rec *domain.QueryEmbeddingRecord) (int64, error) {
	query := `INSERT INTO query_embeddings (query_text, embedding, user_id, source, results_count)
	          VALUES ($1, $2::vector, $3, $4, $5)
	          ON CONFLICT (query_text, user_id, source) DO UPDATE SET
	              embedding = EXCLUDED.embedding,
	              results_count = EXCLUDED.results_count,
	              created_at = NOW()
	          RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		rec.QueryText, vectorToString(rec.Vector), rec.UserID, rec.Source, rec.ResultsCount,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("record query: %w", err)
	}
	return id, nil
}
