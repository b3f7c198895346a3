package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripReasoning(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no tags",
			input:    "Hello world",
			expected: "Hello world",
		},
		{
			name:     "single reasoning block",
			input:    "Hello <think>secret</think> world",
			expected: "Hello  world",
		},
		{
			name:     "multiple reasoning blocks",
			input:    "<think>a</think>Hello <think>b</think>world",
			expected: "Hello world",
		},
		{
			name:     "multiline reasoning",
			input:    "<think>\nstep one\nstep two\n</think>Answer",
			expected: "Answer",
		},
		{
			name:     "unmatched opening tag",
			input:    "Hello <think>unclosed",
			expected: "Hello <think>unclosed",
		},
		{
			name:     "unmatched closing tag",
			input:    "Hello </think> world",
			expected: "Hello </think> world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripReasoning(tt.input))
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text is trimmed",
			input:    "  Halo, ceritakan pengalaman Anda.  \n",
			expected: "Halo, ceritakan pengalaman Anda.",
		},
		{
			name:     "reasoning removed",
			input:    "<think>secret</think>visible",
			expected: "visible",
		},
		{
			name:     "result outside reasoning is kept in place",
			input:    "<think>hmm</think>Terima kasih.\n<RESULT>{\"area_fungsi\":\"Layanan TI\",\"level\":3}</RESULT>",
			expected: "Terima kasih.\n<RESULT>{\"area_fungsi\":\"Layanan TI\",\"level\":3}</RESULT>",
		},
		{
			name:     "result buried in reasoning is recovered",
			input:    `<think><RESULT>{"a":1}</RESULT></think>done`,
			expected: "done\n\n<RESULT>{\"a\":1}</RESULT>",
		},
		{
			name:     "only reasoning with result",
			input:    "<think>analysis <RESULT>{\"level\":2}</RESULT></think>",
			expected: "<RESULT>{\"level\":2}</RESULT>",
		},
		{
			name:     "every buried result recovered in order",
			input:    `<think>a <RESULT>{"x":1}</RESULT> b <RESULT>{"y":2}</RESULT></think>done`,
			expected: "done\n\n<RESULT>{\"x\":1}</RESULT>\n\n<RESULT>{\"y\":2}</RESULT>",
		},
		{
			name:     "buried result appended after visible one",
			input:    `<think><RESULT>{"x":1}</RESULT></think>ok <RESULT>{"y":2}</RESULT>`,
			expected: "ok <RESULT>{\"y\":2}</RESULT>\n\n<RESULT>{\"x\":1}</RESULT>",
		},
		{
			name:     "unterminated reasoning left as is",
			input:    "<think>never closed",
			expected: "<think>never closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.input))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"<think>secret</think>visible",
		`<think><RESULT>{"a":1}</RESULT></think>done`,
		"plain",
		"<think>a<think>b</think>c</think> tail",
		"  <RESULT>{\"level\":1}</RESULT>  ",
		`<think><RESULT>{"x":1}</RESULT><RESULT>{"y":2}</RESULT></think>done`,
	}

	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "input %q", in)
	}
}

func TestClean_NoReasoningFragments(t *testing.T) {
	out := Clean(`<think><RESULT>{"a":1}</RESULT></think>done`)

	assert.Contains(t, out, `<RESULT>{"a":1}</RESULT>`)
	assert.Contains(t, out, "done")
	assert.False(t, strings.Contains(out, ReasoningOpen))
	assert.False(t, strings.Contains(out, ReasoningClose))
}

func TestFindResult_UsesLastBlock(t *testing.T) {
	text := "<RESULT>{\"level\":1}</RESULT> then <RESULT>{\"level\":4}</RESULT>"

	block, ok := FindResult(text)
	assert.True(t, ok)
	assert.Equal(t, "<RESULT>{\"level\":4}</RESULT>", block)

	payload, ok := ResultPayload(text)
	assert.True(t, ok)
	assert.Equal(t, "{\"level\":4}", payload)

	_, ok = FindResult("nothing here")
	assert.False(t, ok)
}

func TestReplaceResult(t *testing.T) {
	text := "Terima kasih.\n<RESULT>{\"level\":1}</RESULT>"
	got := ReplaceResult(text, "<RESULT>{\"level\":1,\"status\":\"Lulus\"}</RESULT>")
	assert.Equal(t, "Terima kasih.\n<RESULT>{\"level\":1,\"status\":\"Lulus\"}</RESULT>", got)

	assert.Equal(t, "no tag", ReplaceResult("no tag", "<RESULT>{}</RESULT>"))
}

func TestIsEntirelyReasoning(t *testing.T) {
	assert.True(t, IsEntirelyReasoning("<think>all of it</think>  "))
	assert.False(t, IsEntirelyReasoning("<think>x</think> answer"))
}
