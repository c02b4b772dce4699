package scan

import (
	"path/filepath"
	"strings"

	"github.com/unbound-force/pest2phpunit/internal/config"
)

// Filter returns true if the given relative path should be converted,
// based on the include and exclude patterns in cfg.
//
// Logic:
//  1. If include patterns are set, the file must match at least one.
//  2. If the file matches any exclude pattern, it is excluded.
//  3. Otherwise, the file is included.
func Filter(rel string, cfg *config.Config) bool {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	rel = filepath.ToSlash(rel)

	if len(cfg.Scan.Include) > 0 {
		matched := false
		for _, pattern := range cfg.Scan.Include {
			if matchGlob(pattern, rel) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, pattern := range cfg.Scan.Exclude {
		if matchGlob(pattern, rel) {
			return false
		}
	}
	return true
}

// matchGlob matches a path against a glob pattern. It supports
// filepath.Match syntax and "dir/**" prefix patterns.
func matchGlob(pattern, rel string) bool {
	// "vendor/**" matches any file under vendor/.
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return rel == prefix || strings.HasPrefix(rel, prefix+"/")
	}

	matched, err := filepath.Match(pattern, rel)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Patterns without a separator also match the base name
	// ("Pest.php" matches tests/Pest.php).
	if !strings.Contains(pattern, "/") {
		matched, err = filepath.Match(pattern, filepath.Base(rel))
		return err == nil && matched
	}
	return false
}
