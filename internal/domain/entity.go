package domain

import "time"

// EntityType distinguishes the two kinds of catalog entities that can be
// retrieved semantically.
type EntityType string

const (
	EntityProduct EntityType = "product"
	EntityBrand   EntityType = "brand"

	// EntityQuery is accepted by the embedding API but stored in the query
	// analytics log, not the entity embedding store.
	EntityQuery EntityType = "query"
)

// Valid reports whether t is a storable entity type.
func (t EntityType) Valid() bool {
	return t == EntityProduct || t == EntityBrand
}

// Product is a catalog product row. Structured attributes that do not fit the
// fixed columns live in Attributes (nested JSON from the catalog, e.g.
// caracteristicas, articulos_requeridos, imagenes).
type Product struct {
	ID          int64          `json:"id"          db:"id"`
	Name        string         `json:"name"        db:"name"`
	Description string         `json:"description" db:"description"`
	Category    string         `json:"category"    db:"category"`
	Type        string         `json:"type"        db:"type"`
	Brand       string         `json:"brand"       db:"brand"`
	Model       string         `json:"model"       db:"model"`
	Tags        []string       `json:"tags"        db:"tags"`
	Attributes  map[string]any `json:"attributes"  db:"attributes"`
	IsActive    bool           `json:"is_active"   db:"is_active"`
	CreatedAt   time.Time      `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"  db:"updated_at"`
}

// BrandDoc is a brand information document: free text plus an arbitrary
// JSON payload maintained by the admin UI.
type BrandDoc struct {
	ID        int64          `json:"id"         db:"id"`
	BrandName string         `json:"brand_name" db:"brand_name"`
	Title     string         `json:"title"      db:"title"`
	Content   string         `json:"content"    db:"content"`
	JSONData  map[string]any `json:"json_data"  db:"json_data"`
	Category  string         `json:"category"   db:"category"`
	Tags      []string       `json:"tags"       db:"tags"`
	IsActive  bool           `json:"is_active"  db:"is_active"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// RankedResult is one retrieval hit. Metadata carries the denormalized
// entity payload (a Product or a BrandDoc). Within one response results are
// sorted descending by Similarity, ties broken by EntityID ascending.
type RankedResult struct {
	EntityID   int64      `json:"id"`
	Similarity float64    `json:"similarity"`
	Content    string     `json:"content"`
	Metadata   any        `json:"metadata"`
	Type       EntityType `json:"type"`
}

// ChatMessage is one turn of the widget conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TranslationInfo reports whether the incoming message was translated before
// retrieval, and what language was detected.
type TranslationInfo struct {
	WasTranslated    bool   `json:"wasTranslated"`
	DetectedLanguage string `json:"detectedLanguage"`
}
