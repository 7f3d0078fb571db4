package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// Recognition runtimes answer in several shapes: a list of result objects, a
// single object with direct text or nested segment/sentence collections, or a
// bare string. Normalize flattens any of them into one text string. It is
// total: malformed input degrades to "" and never panics, so one bad engine
// response cannot abort a batch or a stream.
func Normalize(raw any) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	var parts []string
	appendPart := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}

	switch v := raw.(type) {
	case nil:
		return ""
	case []any:
		for _, item := range v {
			switch it := item.(type) {
			case map[string]any:
				appendPart(textField(it, "text", "output", "sentence"))
			case string:
				appendPart(it)
			}
		}
	case map[string]any:
		if t, ok := v["text"].(string); ok {
			appendPart(t)
		}
		if segments, ok := v["segments"].([]any); ok {
			for _, seg := range segments {
				if m, ok := seg.(map[string]any); ok {
					appendPart(textField(m, "text", "content"))
				}
			}
		}
		if sentences, ok := v["sentence_info"].([]any); ok {
			for _, s := range sentences {
				if m, ok := s.(map[string]any); ok {
					appendPart(textField(m, "text", "sentence"))
				}
			}
		}
	case string:
		appendPart(v)
	default:
		appendPart(fmt.Sprint(v))
	}

	return strings.Join(parts, " ")
}

// textField returns the first non-empty string value among keys.
func textField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

var (
	markupRe     = regexp.MustCompile(`<\|[^|>]+?\|>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// StripMarkup removes rich-transcription annotation tokens such as <|zh|>,
// <|NEUTRAL|> or <|withitn|> and collapses the leftover whitespace. It is
// idempotent.
func StripMarkup(s string) string {
	s = markupRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
