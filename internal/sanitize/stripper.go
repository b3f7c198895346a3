// Package sanitize removes model-internal reasoning from AI output before it
// is stored or shown.
package sanitize

import (
	"regexp"
	"strings"
)

const (
	ReasoningOpen  = "<think>"
	ReasoningClose = "</think>"
	ResultOpen     = "<RESULT>"
	ResultClose    = "</RESULT>"
)

var (
	// reasoningTagRegex matches <think>...</think> blocks, across newlines.
	reasoningTagRegex = regexp.MustCompile(`(?s)<think>.*?</think>`)

	// resultTagRegex matches <RESULT>...</RESULT> blocks and captures the payload.
	resultTagRegex = regexp.MustCompile(`(?s)<RESULT>(.*?)</RESULT>`)
)

// StripReasoning removes all <think>...</think> content from text.
// Unpaired markers are left in place.
func StripReasoning(text string) string {
	return reasoningTagRegex.ReplaceAllString(text, "")
}

// FindResult returns the last <RESULT>...</RESULT> block in text, including
// its delimiters, and whether one was found.
func FindResult(text string) (string, bool) {
	locs := resultTagRegex.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return "", false
	}
	last := locs[len(locs)-1]
	return text[last[0]:last[1]], true
}

// ResultPayload returns the trimmed inner text of the last result block.
func ResultPayload(text string) (string, bool) {
	matches := resultTagRegex.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", false
	}
	return strings.TrimSpace(matches[len(matches)-1][1]), true
}

// ReplaceResult swaps the last result block in text for block.
// Text without a result block is returned unchanged.
func ReplaceResult(text, block string) string {
	locs := resultTagRegex.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	last := locs[len(locs)-1]
	return text[:last[0]] + block + text[last[1]:]
}

// HasResult reports whether text carries a result block.
func HasResult(text string) bool {
	return resultTagRegex.MatchString(text)
}

// Clean performs full sanitization of raw model output.
// This is the function to use before storing any AI response.
//
// Reasoning blocks are removed. Result blocks that only existed inside a
// removed reasoning block are appended back in their original order, each
// after a blank line.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}

	results := resultTagRegex.FindAllString(raw, -1)
	text := strings.TrimSpace(StripReasoning(raw))

	for _, result := range results {
		if strings.Contains(text, result) {
			continue
		}
		if text == "" {
			text = result
			continue
		}
		text = text + "\n\n" + result
	}
	return text
}

// IsEntirelyReasoning checks if the text has nothing left once reasoning is removed.
func IsEntirelyReasoning(text string) bool {
	return strings.TrimSpace(StripReasoning(text)) == ""
}
