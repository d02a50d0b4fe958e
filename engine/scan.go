package engine

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oxhq/astrograph/plugin/registry"
)

// ScanOptions configures walkTree, grounded on internal/scanner/scanner.go's
// Config (MaxBytes, IncludeGlobs, ExcludeGlobs), adapted to doublestar
// patterns instead of filepath.Match basename matching so "**/*_test.go"
// style patterns work.
type ScanOptions struct {
	IncludeGlobs []string
	ExcludeGlobs []string
}

// walkTree enumerates every regular file under root claimed by some
// registered plugin, pruning each plugin's SkipDirs along the way
// (internal/scanner/scanner.go's shouldSkipDirectory, generalized from a
// single provider's aliases to the full registry). Walking stops early if
// ctx is canceled (spec §5's "a run is cancelable between ... per-file work
// items").
func walkTree(ctx context.Context, root string, reg *registry.Registry, opts ScanOptions) ([]string, error) {
	skipDirs := collectSkipDirs(reg)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		if _, err := reg.GetForFile(path); err != nil {
			return nil // unsupported_language: skipped silently (spec §7)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		if !matchesIncludeExclude(rel, opts) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func collectSkipDirs(reg *registry.Registry) map[string]bool {
	skip := make(map[string]bool)
	for _, p := range reg.All() {
		for _, dir := range p.SkipDirs() {
			skip[dir] = true
		}
	}
	return skip
}

func matchesIncludeExclude(relPath string, opts ScanOptions) bool {
	if len(opts.IncludeGlobs) > 0 {
		matched := false
		for _, pattern := range opts.IncludeGlobs {
			if ok, _ := doublestar.Match(pattern, relPath); ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, pattern := range opts.ExcludeGlobs {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return false
		}
	}
	return true
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
