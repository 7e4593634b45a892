package localization

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

func (c contextKey) String() string {
	return "l10n/localization/" + string(c)
}

const (
	ctxKeyLanguage = contextKey("languageKey")

	metadataKeyLanguage = "lang"
)

// ToContext adds the caller's preferred languages to the supplied context.
func ToContext(ctx context.Context, lang []string) context.Context {
	return context.WithValue(ctx, ctxKeyLanguage, lang)
}

// FromContext extracts the caller's preferred languages from the supplied context if any exist.
func FromContext(ctx context.Context) []string {
	languages, ok := ctx.Value(ctxKeyLanguage).([]string)
	if !ok {
		return nil
	}

	return languages
}

func ToMap(m map[string]string, lang []string) map[string]string {
	m[metadataKeyLanguage] = strings.Join(lang, ",")
	return m
}

func FromMap(m map[string]string) []string {
	lang, ok := m[metadataKeyLanguage]
	if !ok || lang == "" {
		return nil
	}
	return strings.Split(lang, ",")
}

// ExtractLanguageFromHTTPRequest returns the ?lang= query value followed by the
// Accept-Language entries, stripped of quality weights.
func ExtractLanguageFromHTTPRequest(req *http.Request) []string {
	var languages []string
	if lang := strings.TrimSpace(req.URL.Query().Get(metadataKeyLanguage)); lang != "" {
		languages = append(languages, lang)
	}

	return append(languages, ExtractLanguageFromHTTPHeader(req.Header)...)
}

func ExtractLanguageFromHTTPHeader(header http.Header) []string {
	acceptLanguageHeader := header.Get("Accept-Language")
	if acceptLanguageHeader == "" {
		return nil
	}

	var languages []string
	for _, part := range strings.Split(acceptLanguageHeader, ",") {
		lang, _, _ := strings.Cut(part, ";")
		if lang = strings.TrimSpace(lang); lang != "" {
			languages = append(languages, lang)
		}
	}
	return languages
}
