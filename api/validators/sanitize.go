package validators

import "strings"

// SanitizeString trims input and caps it at maxLen runes.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return trimmed
}

// SanitizeOptional applies SanitizeString to an optional value.
func SanitizeOptional(input *string, maxLen int) *string {
	if input == nil {
		return nil
	}
	out := SanitizeString(*input, maxLen)
	return &out
}
