package preferences

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoaderLoadEmbeddedDefaults(t *testing.T) {
	f, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := f.Filters.Flat["available"]; got != "stock=1" {
		t.Errorf("available filter = %q, want stock=1", got)
	}
	if f.Filters.CategoryParam != "pv264" {
		t.Errorf("CategoryParam = %q, want pv264", f.Filters.CategoryParam)
	}
	if len(f.Preferences.Mechanics.MostFavored) == 0 {
		t.Error("default mechanics buckets should not be empty")
	}
}

func TestLoaderLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "preferences.yaml")

	yamlContent := `
catalog:
  shop_path: /deskove-hry/
filters:
  baseline: [available]
  flat:
    available: stock=1
preferences:
  categories:
    favored: [Karetní]
`

	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	f, err := NewLoader(yamlPath).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(f.Preferences.Categories.Favored) != 1 {
		t.Errorf("Favored = %v", f.Preferences.Categories.Favored)
	}
}

func TestLoaderLoadMissingFile(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load(); err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	yamlContent := `
preferences:
  categories:
    favourite: [Karetní]
`
	if _, err := Parse([]byte(yamlContent)); err == nil {
		t.Fatal("Parse() expected error for unknown key")
	}
}
