// Package extract pulls structured decisions out of model answers.
//
// Players are asked to answer with a JSON object, but models wrap it in
// prose, code fences or both. Object scans for the first balanced object
// that decodes, skipping braces inside string literals.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Object returns the first JSON object embedded in answer.
func Object(answer string) (string, error) {
	for _, candidate := range candidates(answer) {
		if obj, ok := firstObject(candidate); ok {
			return obj, nil
		}
	}

	preview := answer
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return "", fmt.Errorf("no JSON object in answer: %q", preview)
}

// Into decodes the first JSON object embedded in answer into a T.
func Into[T any](answer string) (T, error) {
	var result T
	obj, err := Object(answer)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return result, fmt.Errorf("failed to decode answer object: %w", err)
	}
	return result, nil
}

// candidates lists the fenced blocks of answer first, then the whole answer.
func candidates(answer string) []string {
	var blocks []string
	rest := answer
	for {
		open := strings.Index(rest, "```")
		if open == -1 {
			break
		}
		body := rest[open+3:]
		// Drop the info string ("json", "JSON", ...) on the fence line.
		if nl := strings.IndexByte(body, '\n'); nl != -1 && !strings.ContainsAny(body[:nl], "{}") {
			body = body[nl+1:]
		}
		end := strings.Index(body, "```")
		if end == -1 {
			blocks = append(blocks, body)
			break
		}
		blocks = append(blocks, body[:end])
		rest = body[end+3:]
	}
	return append(blocks, answer)
}

// firstObject returns the first balanced {...} span of s that is valid JSON.
func firstObject(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start != -1; {
		if end, ok := matchBrace(s, start); ok && json.Valid([]byte(s[start:end+1])) {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next == -1 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchBrace finds the brace closing the one at s[start].
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
