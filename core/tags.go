package core

import (
	"fmt"
	"strings"
)

// Tag builds a canonical "key:value" tag string. Keys must not contain ':'
// and neither side may be empty after trimming.
func Tag(key, value string) (string, error) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return "", fmt.Errorf("tag key/value cannot be empty")
	}
	if strings.Contains(key, ":") {
		return "", fmt.Errorf("tag key %q must not include ':'", key)
	}
	return key + ":" + value, nil
}

// MustTag is Tag for compile-time constant inputs; it panics on malformed
// input and is intended for literal tag construction only.
func MustTag(key, value string) string {
	t, err := Tag(key, value)
	if err != nil {
		panic(err)
	}
	return t
}

// ValidTag reports whether t matches the "key:value" format.
func ValidTag(t string) bool {
	i := strings.Index(t, ":")
	return i > 0 && i < len(t)-1
}

// TagKey returns the key portion of a "key:value" tag, or "" when malformed.
func TagKey(t string) string {
	i := strings.Index(t, ":")
	if i <= 0 {
		return ""
	}
	return t[:i]
}

// NormalizeTags validates every tag and de-duplicates while preserving the
// first-seen order. A nil or empty input yields an empty slice.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if !ValidTag(t) {
			return nil, fmt.Errorf("invalid tag %q: expected format 'key:value'", t)
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}
