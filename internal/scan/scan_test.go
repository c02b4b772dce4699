package scan_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/unbound-force/pest2phpunit/internal/config"
	"github.com/unbound-force/pest2phpunit/internal/scan"
)

// repoFixture builds a small Laravel-style project and returns its
// root.
func repoFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{
		"tests/Pest.php",
		"tests/Feature/OrderTest.php",
		"tests/Unit/MoneyTest.php",
		"tests/Unit/notes.md",
		"vendor/pestphp/pest/src/Functions.php",
		".cache/StaleTest.php",
		"app/Models/Order.php",
	} {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("<?php\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func rels(files []scan.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Rel)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestPaths_DefaultConfig verifies that vendor/, hidden directories,
// Pest.php and non-PHP files are skipped.
func TestPaths_DefaultConfig(t *testing.T) {
	root := repoFixture(t)
	files, err := scan.Paths(context.Background(), []string{root}, scan.Options{})
	if err != nil {
		t.Fatalf("Paths() error: %v", err)
	}
	want := []string{"app/Models/Order.php", "tests/Feature/OrderTest.php", "tests/Unit/MoneyTest.php"}
	if got := rels(files); !equal(got, want) {
		t.Errorf("Paths() = %v, want %v", got, want)
	}
	for _, f := range files {
		if !filepath.IsAbs(f.Path) {
			t.Errorf("Path %q should keep the absolute root", f.Path)
		}
	}
}

// TestPaths_IncludeOverride verifies that include patterns restrict
// the walk.
func TestPaths_IncludeOverride(t *testing.T) {
	root := repoFixture(t)
	cfg := config.DefaultConfig()
	cfg.Scan.Include = []string{"tests/**"}

	files, err := scan.Paths(context.Background(), []string{root}, scan.Options{Config: cfg})
	if err != nil {
		t.Fatalf("Paths() error: %v", err)
	}
	want := []string{"tests/Feature/OrderTest.php", "tests/Unit/MoneyTest.php"}
	if got := rels(files); !equal(got, want) {
		t.Errorf("Paths() = %v, want %v", got, want)
	}
}

// TestPaths_ExplicitFile verifies that a file root bypasses filtering
// and that duplicates collapse.
func TestPaths_ExplicitFile(t *testing.T) {
	root := repoFixture(t)
	pest := filepath.Join(root, "tests", "Pest.php")
	files, err := scan.Paths(context.Background(), []string{pest, pest}, scan.Options{})
	if err != nil {
		t.Fatalf("Paths() error: %v", err)
	}
	if len(files) != 1 || files[0].Path != pest {
		t.Errorf("Paths() = %+v, want just %s", files, pest)
	}
}

func TestPaths_MissingRoot(t *testing.T) {
	_, err := scan.Paths(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, scan.Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Paths() error = %v, want os.ErrNotExist", err)
	}
}

// TestPaths_CanceledContext verifies that an expired deadline aborts
// the walk.
func TestPaths_CanceledContext(t *testing.T) {
	root := repoFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := scan.Paths(ctx, []string{root}, scan.Options{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Paths() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestFilter(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scan.Exclude = append(cfg.Scan.Exclude, "tests/Browser/*.php", "*Helpers.php")

	tests := map[string]bool{
		"tests/Unit/MoneyTest.php":         true,
		"vendor/autoload.php":              false,
		"vendor":                           false,
		"tests/Pest.php":                   false,
		"tests/Browser/LoginTest.php":      false,
		"tests/Browser/Deep/LoginTest.php": true,
		"tests/Support/Helpers.php":        false,
		"tests/Support/MyHelpers.php":      false,
	}
	for rel, want := range tests {
		if got := scan.Filter(rel, cfg); got != want {
			t.Errorf("Filter(%q) = %v, want %v", rel, got, want)
		}
	}
}

func TestFilter_NilConfigUsesDefaults(t *testing.T) {
	if scan.Filter("vendor/x.php", nil) {
		t.Error("vendor/ should be excluded by default")
	}
	if !scan.Filter("tests/Unit/MoneyTest.php", nil) {
		t.Error("tests should be included by default")
	}
}
