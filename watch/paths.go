package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// absPatterns makes every pattern absolute, keeping glob characters.
func absPatterns(patterns []string) ([]string, error) {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if !doublestar.ValidatePathPattern(p) {
			return nil, fmt.Errorf("invalid watch pattern %q", p)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", p, err)
		}
		out = append(out, abs)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("nothing to watch")
	}
	return out, nil
}

// watchDirs lists the directories whose events can match the patterns.
// Files are watched through their directory so editors that replace files
// on save keep being seen. Recursive patterns watch the whole tree below
// their static prefix.
func watchDirs(patterns []string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}

	for _, p := range patterns {
		if !containsGlob(p) {
			add(filepath.Dir(p))
			continue
		}

		base, _ := doublestar.SplitPattern(filepath.ToSlash(p))
		base = filepath.FromSlash(base)
		info, err := os.Stat(base)
		if err != nil {
			return nil, fmt.Errorf("watch pattern %q: %w", p, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("watch pattern %q: %s is not a directory", p, base)
		}

		if !strings.Contains(p, "**") {
			// Single-level wildcards may still span several directories.
			parents, err := doublestar.FilepathGlob(filepath.Dir(p))
			if err != nil {
				return nil, fmt.Errorf("glob error: %w", err)
			}
			add(base)
			for _, m := range parents {
				if isDir(m) {
					add(m)
				}
			}
			continue
		}

		err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != base && skipDir(path) {
				return filepath.SkipDir
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return dirs, nil
}

// matches reports whether path is selected by any of the patterns.
func matches(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.PathMatch(p, path); ok {
			return true
		}
	}
	return false
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func skipDir(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
