package i18n

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
)

var matcher = language.NewMatcher(supportedTags())

func supportedTags() []language.Tag {
	tags := make([]language.Tag, 0, len(Supported))
	for _, s := range Supported {
		tags = append(tags, language.MustParse(s))
	}
	return tags
}

// IsSupported reports whether lang is one of the shipped languages.
func IsSupported(lang string) bool {
	return slices.Contains(Supported, lang)
}

// Match maps a locale such as "de_AT.UTF-8" or "en-GB" onto a supported
// language. It returns false when nothing matches with any confidence.
func Match(locale string) (string, bool) {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" || strings.EqualFold(locale, "C") || strings.EqualFold(locale, "POSIX") {
		return "", false
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return "", false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return "", false
	}
	return Supported[idx], true
}

// Resolve picks the first candidate that is supported, exactly or by
// matching, and falls back to DefaultLanguage.
func Resolve(candidates ...string) string {
	for _, c := range candidates {
		if IsSupported(c) {
			return c
		}
		if lang, ok := Match(c); ok {
			return lang
		}
	}
	return DefaultLanguage
}
