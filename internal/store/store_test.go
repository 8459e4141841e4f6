package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dqalex/OmniSpark/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := New(db)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	return s
}

func testRecord(name string) model.ProductRecord {
	return model.NewProductRecord("id-"+name, model.ProductBrief{
		Name:        name,
		Description: "Description of " + name,
	})
}

func TestSaveProductDedupe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, existed, err := s.SaveProduct(ctx, testRecord("Mug"))
	if err != nil {
		t.Fatalf("SaveProduct: %v", err)
	}
	if existed {
		t.Error("first save should not report existing")
	}

	// Same (name, description, images) with a different id merges, it does
	// not duplicate.
	again := testRecord("Mug")
	again.ID = "another-id"
	merged, existed, err := s.SaveProduct(ctx, again)
	if err != nil {
		t.Fatalf("SaveProduct again: %v", err)
	}
	if !existed {
		t.Error("re-save should report existing")
	}
	if merged.ID != first.ID {
		t.Errorf("merged id = %q, want original %q", merged.ID, first.ID)
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 1 {
		t.Errorf("products = %d, want 1", len(products))
	}
}

func TestSaveProductDifferentDescriptionInserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, _, err := s.SaveProduct(ctx, testRecord("Mug")); err != nil {
		t.Fatal(err)
	}
	other := testRecord("Mug")
	other.ID = "id-2"
	other.Description = "A different description"
	if _, existed, err := s.SaveProduct(ctx, other); err != nil || existed {
		t.Fatalf("existed = %v, err = %v; want fresh insert", existed, err)
	}

	products, _ := s.ListProducts(ctx)
	if len(products) != 2 {
		t.Errorf("products = %d, want 2", len(products))
	}
}

func TestListProductsPinnedFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := testRecord("Older")
	older.CreatedAt = time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	older.UpdatedAt = older.CreatedAt
	if _, _, err := s.SaveProduct(ctx, older); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.SaveProduct(ctx, testRecord("Newer")); err != nil {
		t.Fatal(err)
	}

	if err := s.PinProduct(ctx, older.ID, true); err != nil {
		t.Fatalf("PinProduct: %v", err)
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 2 || products[0].Name != "Older" {
		t.Errorf("pinned product should sort first, got %+v", products)
	}
	if !products[0].Pinned {
		t.Error("pinned flag should round-trip")
	}
}

func TestPinAndDeleteMissingProduct(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PinProduct(ctx, "missing", true); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("PinProduct(missing) = %v, want ErrNoRows", err)
	}
	if err := s.DeleteProduct(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("DeleteProduct(missing) = %v, want ErrNoRows", err)
	}
}

func testAsset(id, kind string, mode model.Mode) model.LibraryAsset {
	return model.LibraryAsset{
		ID:           id,
		Kind:         kind,
		MimeType:     "image/png",
		Content:      []byte("bytes-" + id),
		ProductName:  "Mug",
		ConceptTitle: "Slow Sunday",
		Direction:    "cozy",
		Mode:         mode,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
}

func TestLibraryAssets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PromoteAsset(ctx, testAsset("a-1", model.AssetImage, model.ModeImage)); err != nil {
		t.Fatalf("PromoteAsset: %v", err)
	}
	if err := s.PromoteAsset(ctx, testAsset("a-2", model.AssetVideo, model.ModeVideo)); err != nil {
		t.Fatal(err)
	}
	if err := s.PromoteAsset(ctx, testAsset("a-3", model.AssetImage, model.ModeVideo)); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListAssets(ctx, LibraryFilter{})
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("assets = %d, want 3", len(all))
	}

	images, err := s.ListAssets(ctx, LibraryFilter{Kind: model.AssetImage})
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 2 {
		t.Errorf("image assets = %d, want 2", len(images))
	}

	videoMode, err := s.ListAssets(ctx, LibraryFilter{Kind: model.AssetImage, Mode: model.ModeVideo})
	if err != nil {
		t.Fatal(err)
	}
	if len(videoMode) != 1 || videoMode[0].ID != "a-3" {
		t.Errorf("combined filter = %+v", videoMode)
	}

	// Lineage round-trips through the database.
	if got := videoMode[0]; got.ProductName != "Mug" || got.ConceptTitle != "Slow Sunday" || got.Direction != "cozy" {
		t.Errorf("lineage = (%q, %q, %q)", got.ProductName, got.ConceptTitle, got.Direction)
	}
}

func TestPinAssetOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testAsset("a-1", model.AssetImage, model.ModeImage)
	a.CreatedAt = time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	if err := s.PromoteAsset(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.PromoteAsset(ctx, testAsset("a-2", model.AssetImage, model.ModeImage)); err != nil {
		t.Fatal(err)
	}

	if err := s.PinAsset(ctx, "a-1", true); err != nil {
		t.Fatalf("PinAsset: %v", err)
	}
	assets, err := s.ListAssets(ctx, LibraryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if assets[0].ID != "a-1" || !assets[0].Pinned {
		t.Errorf("pinned asset should sort first, got %+v", assets[0])
	}
}

func TestDeleteAsset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PromoteAsset(ctx, testAsset("a-1", model.AssetImage, model.ModeImage)); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteAsset(ctx, "a-1"); err != nil {
		t.Fatalf("DeleteAsset: %v", err)
	}
	if err := s.DeleteAsset(ctx, "a-1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("second delete = %v, want ErrNoRows", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := New(db); err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if _, err := New(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var version int
	if err := db.QueryRow(`SELECT version FROM schema_version`).Scan(&version); err != nil {
		t.Fatal(err)
	}
	if version != currentSchemaVersion {
		t.Errorf("version = %d, want %d", version, currentSchemaVersion)
	}
}
