package utils

import (
	"errors"
	"strings"
	"time"
)

// NormalizeLabel приводит свободный текст (тип операции, культура) к виду для сравнения:
// без крайних пробелов, в нижнем регистре, с "ё" заменённой на "е" и схлопнутыми пробелами
func NormalizeLabel(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = strings.ToLower(normalized)
	normalized = strings.ReplaceAll(normalized, "ё", "е")
	normalized = strings.Join(strings.Fields(normalized), " ")
	return normalized
}

// ParseDate accepts a calendar date or a full timestamp and returns the date
// at UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			y, m, d := parsed.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, errors.New("invalid date format")
}
