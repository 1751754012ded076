package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a wrapping Markdown code fence from model output.
// Models in JSON mode still occasionally wrap their response in ```json
// fences; parsing must tolerate that.
func StripFences(s string) string {
	out := strings.TrimSpace(s)
	if !strings.HasPrefix(out, "```") {
		return out
	}
	out = strings.TrimPrefix(out, "```")
	// Drop the optional language tag on the opening fence.
	if idx := strings.IndexByte(out, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(out[:idx])
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{}[]") {
			out = out[idx+1:]
		}
	}
	out = strings.TrimSuffix(strings.TrimSpace(out), "```")
	return strings.TrimSpace(out)
}

// ParseObject decodes a single JSON object from model output, tolerating code
// fences and surrounding prose. It never panics; any shape deviation comes
// back as an error for the caller to map to its documented fallback.
func ParseObject[T any](raw string) (T, error) {
	var out T

	text := StripFences(raw)
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, nil
	}

	// Fall back to the outermost {...} span in case the model added prose
	// around the object.
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return out, fmt.Errorf("no JSON object in model output")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return out, fmt.Errorf("parse model output: %w", err)
	}
	return out, nil
}
