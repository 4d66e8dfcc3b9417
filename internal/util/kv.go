package util

import (
	"fmt"
	"strings"
)

// ParseKeyValues parses key=value pairs as given to --context and --labels.
// Later duplicates win.
func ParseKeyValues(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid key=value pair %q", pair)
		}
		result[key] = strings.TrimSpace(value)
	}
	return result, nil
}

// Truncate shortens s to max runes, marking the cut with "..."
func Truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 3 || len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
