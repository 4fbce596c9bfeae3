package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ParseSkip checks a "proc:cat" skip entry. The category part may be a glob
// pattern ("ggH:1*", "*:12").
func ParseSkip(entry string) error {
	proc, cat, ok := strings.Cut(entry, ":")
	if !ok || proc == "" || cat == "" || strings.Contains(cat, ":") {
		return fmt.Errorf("skip entry %q: want proc:cat", entry)
	}
	if !doublestar.ValidatePattern(entry) {
		return fmt.Errorf("skip entry %q: invalid pattern", entry)
	}
	if !containsGlob(cat) {
		if _, err := strconv.Atoi(cat); err != nil {
			return fmt.Errorf("skip entry %q: category is not a number", entry)
		}
	}
	return nil
}

// skipper answers whether a (process, category) cell is dropped from the card.
type skipper struct {
	exact    map[string]bool
	patterns []string
}

func newSkipper(entries []string) (*skipper, error) {
	s := &skipper{exact: make(map[string]bool)}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if err := ParseSkip(e); err != nil {
			return nil, err
		}
		if containsGlob(e) {
			s.patterns = append(s.patterns, e)
			continue
		}
		s.exact[e] = true
	}
	return s, nil
}

func (s *skipper) skipped(proc string, cat int) bool {
	key := fmt.Sprintf("%s:%d", proc, cat)
	if s.exact[key] {
		return true
	}
	for _, p := range s.patterns {
		// Patterns were validated in newSkipper.
		if ok, _ := doublestar.Match(p, key); ok {
			return true
		}
	}
	return false
}

func containsGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
