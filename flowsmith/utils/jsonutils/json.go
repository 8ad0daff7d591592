package jsonutils

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"flowsmith/flowsmith/utils/types"
)

var reFence = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// ExtractWorkflow recovers a workflow definition embedded in model output.
//
// Priority:
// 1. The first triple-backtick fenced ```json ... ``` block
// 2. The span from the first '{' to the last '}' in the text
//
// The span in (2) is not brace balanced: two separate objects in one reply
// yield the text between them as well, which usually fails to parse.
// Any failure yields ok == false.
func ExtractWorkflow(text string) (types.Definition, bool) {
	if match := reFence.FindStringSubmatch(text); len(match) > 1 {
		if def, ok := parseObject(match[1]); ok {
			return def, true
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, false
	}
	return parseObject(text[start : end+1])
}

// parseObject accepts only a single, non-empty JSON object.
func parseObject(s string) (types.Definition, bool) {
	s = strings.TrimSpace(s)
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var def types.Definition
	if err := dec.Decode(&def); err != nil || len(def) == 0 {
		return nil, false
	}
	// trailing text after the object means the span was not one document
	if strings.TrimSpace(s[dec.InputOffset():]) != "" {
		return nil, false
	}
	return def, true
}

// ToJSON serializes a Go value to a JSON string with indentation.
// Returns an empty string if serialization fails.
func ToJSON(v interface{}) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}
