package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrEmptyResponse is returned when the model produced no usable text
	ErrEmptyResponse = errors.New("empty model response")
	// ErrMalformedList is returned when a bracketed label list cannot be parsed
	ErrMalformedList = errors.New("malformed label list")
	// ErrUnknownTone is returned when the response is not one of the fixed tones
	ErrUnknownTone = errors.New("unknown tone")
	// ErrUnexpectedResponse is returned when the response has the wrong shape
	ErrUnexpectedResponse = errors.New("unexpected model response")
)

const maxLanguageNameLength = 40

// parseLanguage accepts a single language name such as "Spanish"
func parseLanguage(text string) (string, error) {
	line := firstLine(stripCodeFence(text))
	line = strings.TrimPrefix(line, "Language:")
	line = strings.Trim(line, " \t\"'`.")
	if line == "" {
		return "", ErrEmptyResponse
	}
	if utf8.RuneCountInString(line) > maxLanguageNameLength {
		return "", fmt.Errorf("%w: language name too long", ErrUnexpectedResponse)
	}
	// Casers are stateful, so one per call
	return cases.Title(language.English).String(strings.ToLower(line)), nil
}

// parseText accepts any non-empty response
func parseText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyResponse
	}
	return trimmed, nil
}

// parseTone matches the response case-insensitively against the fixed tones
func parseTone(text string) (Tone, error) {
	word := strings.ToLower(strings.Trim(firstLine(text), " \t\"'`.!"))
	for _, t := range Tones {
		if word == string(t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTone, word)
}

// commandParser returns a parser for bracketed label lists such as ["a", "b"].
// A response that is not a list at all is an empty classification. Labels outside
// the taxonomy are dropped and an empty result becomes no_action.
func commandParser(tax *Taxonomy) func(string) ([]Command, error) {
	return func(text string) ([]Command, error) {
		s := strings.TrimSpace(stripCodeFence(text))
		if !strings.HasPrefix(s, "[") {
			return []Command{CommandNoAction}, nil
		}
		if !strings.HasSuffix(s, "]") {
			return nil, fmt.Errorf("%w: missing closing bracket", ErrMalformedList)
		}

		inner := strings.TrimSpace(s[1 : len(s)-1])
		var out []Command
		seen := make(map[Command]bool)
		if inner != "" {
			items := strings.Split(inner, ",")
			for i, item := range items {
				item = strings.TrimSpace(item)
				if item == "" && i == len(items)-1 {
					// trailing comma
					continue
				}
				label, ok := unquote(item)
				if !ok {
					return nil, fmt.Errorf("%w: %q", ErrMalformedList, item)
				}
				cmd := Command(strings.TrimSpace(label))
				if !tax.Contains(cmd) || seen[cmd] {
					continue
				}
				seen[cmd] = true
				out = append(out, cmd)
			}
		}

		if len(out) == 0 {
			return []Command{CommandNoAction}, nil
		}
		return out, nil
	}
}

// unquote strips one level of matching single or double quotes
func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	q := s[0]
	if (q != '"' && q != '\'') || s[len(s)-1] != q {
		return "", false
	}
	inner := s[1 : len(s)-1]
	if strings.IndexByte(inner, q) >= 0 {
		return "", false
	}
	return inner, true
}

// stripCodeFence removes a surrounding markdown code fence
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			return l
		}
	}
	return ""
}
