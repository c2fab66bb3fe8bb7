package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"touchline/backend/internal/model"
)

var markdownCodeBlock = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*\\n?(.*?)\\n?\\s*```$")

// ParsedTranslation is the validated result of a model response.
type ParsedTranslation struct {
	Fields model.TranslationFields
	// Fallbacks lists the keys that were missing or invalid and kept the source value.
	Fallbacks []string
}

// Complete reports whether every field came from the model.
func (p ParsedTranslation) Complete() bool {
	return len(p.Fallbacks) == 0
}

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := markdownCodeBlock.FindStringSubmatch(raw); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return raw
}

// ParseTranslationResponse validates raw model output against the translation
// JSON contract. Any field that is missing, of the wrong type, or empty where
// the source had a value falls back to the source value. It never fails.
func ParseTranslationResponse(raw string, source model.TranslationFields) ParsedTranslation {
	result := ParsedTranslation{Fields: source}
	result.Fields.Keywords = append([]string(nil), source.Keywords...)

	content := StripCodeFence(raw)
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start >= 0 && end > start {
		content = content[start : end+1]
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		result.Fallbacks = append([]string(nil), TranslationKeys...)
		return result
	}

	text := func(key, src string, dst *string) {
		v, ok := decodeString(doc[key])
		if !ok || (v == "" && src != "") {
			result.Fallbacks = append(result.Fallbacks, key)
			return
		}
		*dst = v
	}
	text("title", source.Title, &result.Fields.Title)
	text("subtitle", source.Subtitle, &result.Fields.Subtitle)
	text("summary", source.Summary, &result.Fields.Summary)
	text("content", source.Content, &result.Fields.Content)

	keywords, ok := decodeStrings(doc["keywords"])
	if !ok || (len(keywords) == 0 && len(source.Keywords) > 0) {
		result.Fallbacks = append(result.Fallbacks, "keywords")
	} else {
		result.Fields.Keywords = keywords
	}

	return result
}

func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func decodeStrings(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, true
}
