package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no markup", "@foo\n", "@foo\n"},
		{"delimiters removed", "/** @a */", " @a "},
		{"delimiters anywhere", "x/**y*/z", "xyz"},
		{"opener removed before closer", "*/**", "*"},
		{"crlf unified", "a\r\nb\rc\n", "a\nb\nc\n"},
		{"continuation with space", "x\n   * y", "x\ny"},
		{"continuation without space", "x\n   *y", "x\ny"},
		{"star needs leading whitespace", "x\n*y", "x\n*y"},
		{"blank continuation lines", "a\n *\n * b", "a\n\nb"},
		{"indentation without star kept", "a\n    b", "a\n    b"},
		{"nested continuation collapses", "\n *  * x", "\nx"},
		{"tab before second star", "\n *\t* x", "\nx"},
		{
			name:     "full block",
			input:    "/**\n * @author angus\n *\n * @go()\n */",
			expected: "\n@author angus\n\n@go()\n ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"/**\n * @a\n */",
		"/*/**/**/",
		"\n *  * x",
		"\n *\t* x",
		"a\r\n\r\n * b\r",
		"x\n \t\n   * * * y",
	}

	for _, input := range inputs {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once), "input %q", input)
	}
}
