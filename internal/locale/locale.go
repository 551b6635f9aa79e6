package locale

import "strings"

const (
	LanguageRussian = "ru"
	LanguageEnglish = "en"
)

func NormalizeLanguage(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "ru") {
		return LanguageRussian
	}
	if strings.HasPrefix(trimmed, "en") {
		return LanguageEnglish
	}
	return ""
}

func LanguageFromAcceptLanguage(header string) string {
	trimmed := strings.ToLower(strings.TrimSpace(header))
	if trimmed == "" {
		return ""
	}
	if strings.Contains(trimmed, "ru") {
		return LanguageRussian
	}
	if strings.Contains(trimmed, "en") {
		return LanguageEnglish
	}
	return ""
}

// Resolve picks the first supported language, falling back to Russian.
func Resolve(candidates ...string) string {
	for _, c := range candidates {
		if lang := NormalizeLanguage(c); lang != "" {
			return lang
		}
	}
	return LanguageRussian
}
