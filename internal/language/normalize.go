package language

import "strings"

// NormalizeTag lowercases a language tag and joins its subtags with "-" (for example "pt_BR" -> "pt-br").
// Blank tags and tags with non-letter subtags normalize to "".
func NormalizeTag(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}

	trimmed = strings.ReplaceAll(trimmed, "_", "-")
	parts := strings.Split(trimmed, "-")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !isAlphaLower(part) {
			return ""
		}
		normalized = append(normalized, part)
	}

	if len(normalized) == 0 || len(normalized[0]) < 2 || len(normalized[0]) > 3 {
		return ""
	}
	return strings.Join(normalized, "-")
}

// Primary returns the primary language subtag ("pt" for "pt-br").
func Primary(raw string) string {
	tag := NormalizeTag(raw)
	if dash := strings.IndexByte(tag, '-'); dash >= 0 {
		return tag[:dash]
	}
	return tag
}

// SamePrimary reports whether two tags share a primary subtag. Invalid tags never match.
func SamePrimary(a, b string) bool {
	pa := Primary(a)
	return pa != "" && pa == Primary(b)
}

func isAlphaLower(value string) bool {
	for _, r := range value {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
