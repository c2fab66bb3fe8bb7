package language

import "strings"

// Default is the language used when a request names none.
const Default = "en"

// Language is a supported content language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// catalog order is the order batch translation walks target languages.
var catalog = []Language{
	{Code: "en", Name: "English"},
	{Code: "fr", Name: "Français"},
	{Code: "es", Name: "Español"},
	{Code: "ht", Name: "Kreyòl Ayisyen"},
}

// Supported returns a copy of the catalog in its fixed order.
func Supported() []Language {
	out := make([]Language, len(catalog))
	copy(out, catalog)
	return out
}

// Codes returns the supported language codes in catalog order.
func Codes() []string {
	codes := make([]string, len(catalog))
	for i, l := range catalog {
		codes[i] = l.Code
	}
	return codes
}

func IsSupported(code string) bool {
	for _, l := range catalog {
		if l.Code == code {
			return true
		}
	}
	return false
}

// Name returns the display name for code, or code itself when unknown.
func Name(code string) string {
	for _, l := range catalog {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// Targets returns every supported code except original, in catalog order.
func Targets(original string) []string {
	targets := make([]string, 0, len(catalog))
	for _, l := range catalog {
		if l.Code != original {
			targets = append(targets, l.Code)
		}
	}
	return targets
}

// Normalize lowercases code and drops any region suffix ("fr-CA" -> "fr").
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}
