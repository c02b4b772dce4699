// Package scan discovers the PHP test files a run converts.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/unbound-force/pest2phpunit/internal/config"
)

// File is a discovered PHP file.
type File struct {
	// Path is the path as given by the caller's root joined with the
	// file's location below it.
	Path string `json:"path"`

	// Rel is the path relative to the scanned root, with forward
	// slashes. Filters match against it.
	Rel string `json:"rel"`
}

// Options configures a Paths invocation.
type Options struct {
	// Config provides the include/exclude patterns and timeout. If nil,
	// DefaultConfig() is used.
	Config *config.Config
}

// Paths expands the given roots into the PHP files to convert. A root
// that is a file is returned as is, without filtering; a directory is
// walked and every .php file that passes Filter is returned. Hidden
// directories are skipped. The result is sorted by path and free of
// duplicates.
//
// If the configured scan timeout is non-zero, the walk is bounded by
// that deadline and an error wrapping context.DeadlineExceeded is
// returned when it is hit.
func Paths(ctx context.Context, roots []string, opts Options) ([]File, error) {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	timeout := opts.Config.Scan.Timeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	seen := make(map[string]bool)
	var files []File
	add := func(f File) {
		if !seen[f.Path] {
			seen[f.Path] = true
			files = append(files, f)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
		if !info.IsDir() {
			add(File{Path: root, Rel: filepath.ToSlash(filepath.Base(root))})
			continue
		}
		if err := walk(ctx, root, opts.Config, add); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("scan timed out after %s: %w", timeout, ctxErr)
			}
			return nil, err
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func walk(ctx context.Context, root string, cfg *config.Config, add func(File)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		// Check for context cancellation on every entry.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			base := d.Name()
			if strings.HasPrefix(base, ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(d.Name()), ".php") {
			return nil
		}
		if !Filter(rel, cfg) {
			return nil
		}
		add(File{Path: path, Rel: filepath.ToSlash(rel)})
		return nil
	})
}
