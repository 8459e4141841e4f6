// Package store persists the cross-session state: the curated asset library
// and the product library. Everything else in the system is session-scoped
// and lives in memory.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dqalex/OmniSpark/internal/model"
)

// Verify at compile time that Store implements all interfaces.
var (
	_ ProductStore = (*Store)(nil)
	_ LibraryStore = (*Store)(nil)
)

// Store provides data access to the SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and initialises the schema.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// currentSchemaVersion is bumped whenever the schema changes.
// Add a new migration function in the migrations slice below.
const currentSchemaVersion = 2

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	// migrations is an ordered list of migration functions.
	// Index 0 = migration from v0 to v1, etc.
	migrations := []func() error{
		s.migrateV1, // v0 → v1: initial schema
		s.migrateV2, // v1 → v2: add pinned flag to library assets
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", i, i+1, err)
		}
		if _, err := s.db.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			return fmt.Errorf("update schema version to %d: %w", i+1, err)
		}
	}

	return nil
}

// migrateV1 creates the initial schema (v0 → v1).
func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL,
		images_json TEXT NOT NULL,
		pinned      INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_order ON products(pinned DESC, updated_at DESC);

	CREATE TABLE IF NOT EXISTS library_assets (
		id            TEXT PRIMARY KEY,
		kind          TEXT NOT NULL,
		mime_type     TEXT NOT NULL,
		content       BLOB NOT NULL,
		product_name  TEXT NOT NULL,
		concept_title TEXT NOT NULL,
		direction     TEXT NOT NULL,
		mode          TEXT NOT NULL,
		created_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_library_kind ON library_assets(kind, created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// migrateV2 adds the pinned flag to library assets (v1 → v2).
func (s *Store) migrateV2() error {
	_, err := s.db.Exec(`ALTER TABLE library_assets ADD COLUMN pinned INTEGER NOT NULL DEFAULT 0`)
	return err
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// SaveProduct persists a brief. Uniqueness is exact match on (name,
// description, image-set): saving an existing product touches its timestamp
// instead of inserting a duplicate. Returns the stored record and whether it
// already existed.
func (s *Store) SaveProduct(ctx context.Context, record model.ProductRecord) (model.ProductRecord, bool, error) {
	imagesJSON, err := encodeImages(record.Images)
	if err != nil {
		return model.ProductRecord{}, false, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, images_json, pinned, created_at, updated_at
		 FROM products WHERE name = ? AND description = ? AND images_json = ?`,
		record.Name, record.Description, imagesJSON,
	)
	existing, err := scanProduct(row)
	if err == nil {
		now := time.Now().UTC().Format(time.RFC3339)
		if _, err := s.db.ExecContext(ctx, `UPDATE products SET updated_at = ? WHERE id = ?`, now, existing.ID); err != nil {
			return model.ProductRecord{}, false, err
		}
		existing.UpdatedAt = now
		return *existing, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.ProductRecord{}, false, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, images_json, pinned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Name, record.Description, imagesJSON,
		boolToInt(record.Pinned), record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return model.ProductRecord{}, false, err
	}
	return record, false, nil
}

// ListProducts returns all products, pinned first, then by last touch.
func (s *Store) ListProducts(ctx context.Context) ([]model.ProductRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, images_json, pinned, created_at, updated_at
		 FROM products ORDER BY pinned DESC, updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []model.ProductRecord
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// PinProduct sets the pinned flag.
func (s *Store) PinProduct(ctx context.Context, id string, pinned bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE products SET pinned = ? WHERE id = ?`, boolToInt(pinned), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteProduct removes a product record.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ---------------------------------------------------------------------------
// Library
// ---------------------------------------------------------------------------

// PromoteAsset inserts a promoted asset. The copy is independent of the
// originating history store: history deletions never reach the library.
func (s *Store) PromoteAsset(ctx context.Context, a model.LibraryAsset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO library_assets (id, kind, mime_type, content, product_name, concept_title, direction, mode, pinned, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Kind, a.MimeType, a.Content, a.ProductName, a.ConceptTitle,
		a.Direction, string(a.Mode), boolToInt(a.Pinned), a.CreatedAt,
	)
	return err
}

// LibraryFilter narrows a library listing. Zero values match everything.
type LibraryFilter struct {
	Kind string
	Mode model.Mode
}

// ListAssets returns library assets, pinned first, then newest first.
func (s *Store) ListAssets(ctx context.Context, f LibraryFilter) ([]model.LibraryAsset, error) {
	query := `SELECT id, kind, mime_type, content, product_name, concept_title, direction, mode, pinned, created_at FROM library_assets`
	var conditions []string
	var args []any
	if f.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Mode != "" {
		conditions = append(conditions, "mode = ?")
		args = append(args, string(f.Mode))
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY pinned DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []model.LibraryAsset
	for rows.Next() {
		var a model.LibraryAsset
		var mode string
		var pinned int
		if err := rows.Scan(&a.ID, &a.Kind, &a.MimeType, &a.Content, &a.ProductName, &a.ConceptTitle, &a.Direction, &mode, &pinned, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Mode = model.Mode(mode)
		a.Pinned = pinned != 0
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// PinAsset sets the pinned flag on a library asset.
func (s *Store) PinAsset(ctx context.Context, id string, pinned bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE library_assets SET pinned = ? WHERE id = ?`, boolToInt(pinned), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteAsset removes a promoted asset. This is the only deletion the
// persistence layer supports; history stores are append-only.
func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM library_assets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*model.ProductRecord, error) {
	var p model.ProductRecord
	var imagesJSON string
	var pinned int
	err := row.Scan(&p.ID, &p.Name, &p.Description, &imagesJSON, &pinned, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Pinned = pinned != 0
	if err := json.Unmarshal([]byte(imagesJSON), &p.Images); err != nil {
		return nil, fmt.Errorf("decode product images: %w", err)
	}
	return &p, nil
}

func encodeImages(images []model.MediaPayload) (string, error) {
	if images == nil {
		images = []model.MediaPayload{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("encode product images: %w", err)
	}
	return string(b), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
