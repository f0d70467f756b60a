package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MalformedResponseError reports a response that contained no decodable
// JSON object. Callers recover with their defined fallback record.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	snippet := e.Raw
	if len(snippet) > 120 {
		snippet = snippet[:120] + "..."
	}
	return fmt.Sprintf("malformed oracle response: %v (raw: %q)", e.Err, snippet)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// DecodeObject extracts and unmarshals the first JSON object found in a
// free-form model response. Providers are asked for structured output, but
// not all honor it, so this also strips markdown fences and scans for the
// first balanced {...} block before giving up.
func DecodeObject(text string, v any) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &MalformedResponseError{Raw: text, Err: fmt.Errorf("empty response")}
	}

	candidate := stripFences(text)
	if err := json.Unmarshal([]byte(candidate), v); err == nil {
		return nil
	}

	obj, ok := firstObject(candidate)
	if !ok {
		return &MalformedResponseError{Raw: text, Err: fmt.Errorf("no JSON object found")}
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return &MalformedResponseError{Raw: text, Err: err}
	}
	return nil
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	endIdx := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	return strings.Join(lines[1:endIdx], "\n")
}

// firstObject returns the first balanced top-level {...} block, tracking
// string literals and escapes so braces inside values don't break the scan.
func firstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
