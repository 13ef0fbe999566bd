// Copyright 2024 Adaptive Card Engine Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Logf("Failed to close store: %v", closeErr)
		}
	})
	return store
}

func TestNewStore(t *testing.T) {
	store := newTestStore(t)

	var tableName string
	err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='catalog_entries'").Scan(&tableName)
	if err != nil {
		t.Fatalf("Failed to find catalog_entries table: %v", err)
	}
	if tableName != "catalog_entries" {
		t.Errorf("Expected table name 'catalog_entries', got '%s'", tableName)
	}
}

func TestNewStoreWithFile(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "catalog.db")

	store, err := NewStore(dbPath, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Logf("Failed to close store: %v", closeErr)
		}
	}()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created: %s", dbPath)
	}
}

func TestPutAndGetAssetEntry(t *testing.T) {
	store := newTestStore(t)

	entry := Entry{
		Name: "onboarding",
		Kind: KindAsset,
		Path: "cards/onboarding.json",
	}
	if err := store.Put(entry); err != nil {
		t.Fatalf("Failed to put entry: %v", err)
	}

	got, found, err := store.Get("onboarding")
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if !found {
		t.Fatal("Expected entry to be found")
	}
	if got.Kind != KindAsset {
		t.Errorf("Expected kind %q, got %q", KindAsset, got.Kind)
	}
	if got.Path != "cards/onboarding.json" {
		t.Errorf("Expected path 'cards/onboarding.json', got %q", got.Path)
	}
	if len(got.InlineJSON) != 0 {
		t.Errorf("Expected no inline JSON on an asset entry, got %s", got.InlineJSON)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("Expected created_at/updated_at to be populated")
	}
}

func TestPutAndGetInlineEntry(t *testing.T) {
	store := newTestStore(t)

	card := json.RawMessage(`{"type":"AdaptiveCard","version":"1.6"}`)
	if err := store.Put(Entry{Name: "welcome", Kind: KindInline, InlineJSON: card}); err != nil {
		t.Fatalf("Failed to put entry: %v", err)
	}

	got, found, err := store.Get("welcome")
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if !found {
		t.Fatal("Expected entry to be found")
	}
	if got.Kind != KindInline {
		t.Errorf("Expected kind %q, got %q", KindInline, got.Kind)
	}
	if string(got.InlineJSON) != string(card) {
		t.Errorf("Inline JSON round-trip mismatch: got %s", got.InlineJSON)
	}
}

func TestPutReplacesExistingEntry(t *testing.T) {
	store := newTestStore(t)

	if err := store.Put(Entry{Name: "promo", Kind: KindAsset, Path: "v1.json"}); err != nil {
		t.Fatalf("Failed to put initial entry: %v", err)
	}
	if err := store.Put(Entry{Name: "promo", Kind: KindAsset, Path: "v2.json"}); err != nil {
		t.Fatalf("Failed to replace entry: %v", err)
	}

	got, found, err := store.Get("promo")
	if err != nil || !found {
		t.Fatalf("Failed to get replaced entry: found=%v err=%v", found, err)
	}
	if got.Path != "v2.json" {
		t.Errorf("Expected replaced path 'v2.json', got %q", got.Path)
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("Failed to list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry after replace, got %d", len(entries))
	}
}

func TestGetMissingEntry(t *testing.T) {
	store := newTestStore(t)

	_, found, err := store.Get("nope")
	if err != nil {
		t.Fatalf("Get on a missing name should not error: %v", err)
	}
	if found {
		t.Error("Expected missing entry to report found=false")
	}
}

func TestListOrdersByName(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := store.Put(Entry{Name: name, Kind: KindAsset, Path: name + ".json"}); err != nil {
			t.Fatalf("Failed to put %q: %v", name, err)
		}
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("Failed to list entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, entry := range entries {
		if entry.Name != want[i] {
			t.Errorf("Expected entry %d to be %q, got %q", i, want[i], entry.Name)
		}
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	if err := store.Put(Entry{Name: "gone", Kind: KindAsset, Path: "gone.json"}); err != nil {
		t.Fatalf("Failed to put entry: %v", err)
	}
	if err := store.Delete("gone"); err != nil {
		t.Fatalf("Failed to delete entry: %v", err)
	}

	_, found, err := store.Get("gone")
	if err != nil {
		t.Fatalf("Get after delete should not error: %v", err)
	}
	if found {
		t.Error("Expected entry to be gone after delete")
	}

	// Deleting a name that never existed is not an error.
	if err := store.Delete("never-existed"); err != nil {
		t.Errorf("Delete of a missing name should not error: %v", err)
	}
}

func TestLookup(t *testing.T) {
	store := newTestStore(t)

	card := json.RawMessage(`{"type":"AdaptiveCard","version":"1.6"}`)
	if err := store.Put(Entry{Name: "inline-card", Kind: KindInline, InlineJSON: card}); err != nil {
		t.Fatalf("Failed to put inline entry: %v", err)
	}
	if err := store.Put(Entry{Name: "asset-card", Kind: KindAsset, Path: "cards/asset.json"}); err != nil {
		t.Fatalf("Failed to put asset entry: %v", err)
	}

	path, inlineJSON, ok := store.Lookup("inline-card")
	if !ok {
		t.Fatal("Expected inline-card lookup to hit")
	}
	if path != "" || string(inlineJSON) != string(card) {
		t.Errorf("Unexpected inline lookup result: path=%q json=%s", path, inlineJSON)
	}

	path, inlineJSON, ok = store.Lookup("asset-card")
	if !ok {
		t.Fatal("Expected asset-card lookup to hit")
	}
	if path != "cards/asset.json" || len(inlineJSON) != 0 {
		t.Errorf("Unexpected asset lookup result: path=%q json=%s", path, inlineJSON)
	}

	if _, _, ok := store.Lookup("missing"); ok {
		t.Error("Expected lookup miss for an unregistered name")
	}
}
