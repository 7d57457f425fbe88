package domain

import "time"

// EntityEmbedding is one stored vector for one content facet of an entity.
// The (EntityType, EntityID, ContentType) triple is unique: re-embedding the
// same facet overwrites the previous row.
type EntityEmbedding struct {
	ID          int64      `json:"id"           db:"id"`
	EntityType  EntityType `json:"entity_type"  db:"entity_type"`
	EntityID    int64      `json:"entity_id"    db:"entity_id"`
	ContentType string     `json:"content_type" db:"content_type"`
	Content     string     `json:"content"      db:"content"`
	Vector      []float32  `json:"-"            db:"embedding"`
	UpdatedAt   time.Time  `json:"updated_at"   db:"updated_at"`
}

// VectorRow is the slim projection of an EntityEmbedding fed to the ranker.
type VectorRow struct {
	EntityID    int64
	ContentType string
	Content     string
	Vector      []float32
}

// EmbeddingRequest asks for one text to be embedded and stored. Type "query"
// records the vector in the analytics log instead of the entity store.
type EmbeddingRequest struct {
	Text        string     `json:"text"`
	Type        EntityType `json:"type"`
	EntityID    int64      `json:"entity_id,omitempty"`
	ContentType string     `json:"content_type,omitempty"`
	UserID      string     `json:"user_id,omitempty"`
	Source      string     `json:"source,omitempty"`
}

// EmbeddingResult is the per-item outcome of a single or batch embedding
// operation. Partial failure inside a batch is normal.
type EmbeddingResult struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// QueryEmbeddingRecord is an append-only analytics row for executed search
// queries. Unique on (QueryText, UserID, Source) so repeated queries from the
// same actor are not logged twice.
type QueryEmbeddingRecord struct {
	QueryText    string    `json:"query_text"    db:"query_text"`
	Vector       []float32 `json:"-"             db:"embedding"`
	UserID       string    `json:"user_id"       db:"user_id"`
	Source       string    `json:"source"        db:"source"`
	ResultsCount int       `json:"results_count" db:"results_count"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
}

// EmbeddingStats summarizes stored vector counts for the admin surface.
type EmbeddingStats struct {
	Products     int64 `json:"products"`
	Brands       int64 `json:"brands"`
	Queries      int64 `json:"queries"`
	CacheEntries int64 `json:"cache_entries"`
}
