// Package llmjson extracts structured JSON from language-model answers.
//
// Models are asked for JSON but often wrap it in prose or markdown fences.
// Parse accepts exactly three shapes: a bare JSON document, a fenced code
// block, or the first balanced JSON object/array embedded in text. Anything
// else is reported as Malformed so callers can fall back explicitly.
package llmjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
)

// ParseResult is either Ok(value) or Malformed(raw text).
type ParseResult[T any] struct {
	value T
	raw   string
	ok    bool
}

// Ok wraps a successfully decoded value.
func Ok[T any](v T) ParseResult[T] { return ParseResult[T]{value: v, ok: true} }

// Malformed wraps text that could not be decoded.
func Malformed[T any](raw string) ParseResult[T] { return ParseResult[T]{raw: raw} }

// IsOk reports whether decoding succeeded.
func (r ParseResult[T]) IsOk() bool { return r.ok }

// Value returns the decoded value and whether it is valid.
func (r ParseResult[T]) Value() (T, bool) { return r.value, r.ok }

// Raw returns the original text for a Malformed result.
func (r ParseResult[T]) Raw() string { return r.raw }

var fenced = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// Parse decodes text into T.
func Parse[T any](text string) ParseResult[T] {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Malformed[T](text)
	}

	candidates := []string{trimmed}
	if m := fenced.FindStringSubmatch(trimmed); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if s, ok := firstBalanced(trimmed); ok {
		candidates = append(candidates, s)
	}

	for _, c := range candidates {
		var v T
		if decodeStrict(c, &v) {
			return Ok(v)
		}
	}
	return Malformed[T](text)
}

// decodeStrict decodes exactly one JSON document with nothing after it.
func decodeStrict(s string, v any) bool {
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(v); err != nil {
		return false
	}
	var extra json.RawMessage
	return errors.Is(dec.Decode(&extra), io.EOF)
}

// firstBalanced returns the first {...} or [...] span whose brackets balance,
// ignoring brackets inside JSON strings.
func firstBalanced(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	for start >= 0 {
		if end, ok := matchFrom(s, start); ok {
			span := s[start : end+1]
			if json.Valid([]byte(span)) {
				return span, true
			}
		}
		next := strings.IndexAny(s[start+1:], "{[")
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchFrom(s string, start int) (int, bool) {
	var stack bytes.Buffer
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
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
			stack.WriteByte('}')
		case '[':
			stack.WriteByte(']')
		case '}', ']':
			b := stack.Bytes()
			if len(b) == 0 || b[len(b)-1] != c {
				return 0, false
			}
			stack.Truncate(len(b) - 1)
			if stack.Len() == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
