package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// DecodeLLMJSON decodes JSON from an LLM response. A strict parse is tried
// first; on failure the first top-level {...} or [...] span is extracted from
// the surrounding prose or code fence and parsed instead.
func DecodeLLMJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := ExtractJSONSpan(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, summarizePayloadSnippet(trimmed))
	}

	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("%w (sanitized payload snippet: %s)", err, summarizePayloadSnippet(sanitized))
	}
	return nil
}

// ExtractJSONSpan returns the first top-level JSON object or array embedded
// in content: it starts at whichever of '{' or '[' appears first and runs to
// the last matching closer. Returns "" when no span exists.
func ExtractJSONSpan(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	if trimmed == "" {
		return ""
	}
	objStart := strings.Index(trimmed, "{")
	arrStart := strings.Index(trimmed, "[")

	tryObject := func() string {
		if objStart < 0 {
			return ""
		}
		if end := strings.LastIndex(trimmed, "}"); end > objStart {
			return strings.TrimSpace(trimmed[objStart : end+1])
		}
		return ""
	}
	tryArray := func() string {
		if arrStart < 0 {
			return ""
		}
		if end := strings.LastIndex(trimmed, "]"); end > arrStart {
			return strings.TrimSpace(trimmed[arrStart : end+1])
		}
		return ""
	}

	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		if span := tryArray(); span != "" {
			return span
		}
		return tryObject()
	}
	if span := tryObject(); span != "" {
		return span
	}
	return tryArray()
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "```")
	if start < 0 {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[start+3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.Index(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
