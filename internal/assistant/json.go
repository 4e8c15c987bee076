package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a model reply contains no JSON object or array.
var ErrNoJSON = errors.New("no JSON found in model reply")

// ExtractJSON pulls the JSON document out of a model reply. Models wrap JSON
// in markdown fences or prose despite instructions, so fences are stripped
// and the text from the first opening brace or bracket to the last matching
// closer is returned.
func ExtractJSON(text string) (string, error) {
	s := stripFences(strings.TrimSpace(text))
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", ErrNoJSON
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return "", ErrNoJSON
	}
	return s[start : end+1], nil
}

func stripFences(s string) string {
	i := strings.Index(s, "```")
	if i < 0 {
		return s
	}
	rest := s[i+3:]
	// Drop the language tag of the opening fence.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "{[") {
		rest = rest[nl+1:]
	}
	if j := strings.Index(rest, "```"); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

// decodeReply extracts and unmarshals the JSON in a model reply.
func decodeReply(content string, v any) error {
	raw, err := ExtractJSON(content)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("json parse: %w", err)
	}
	return nil
}
