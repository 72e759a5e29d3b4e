package annotation

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyed(key, value string) Arg {
	return Arg{Key: key, Keyed: true, Value: value}
}

func positional(value string) Arg {
	return Arg{Value: value}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string][]Value
	}{
		{
			name:     "no annotations",
			input:    "just a plain comment\nwith two lines\n",
			expected: map[string][]Value{},
		},
		{
			name:     "empty input",
			input:    "",
			expected: map[string][]Value{},
		},
		{
			name:     "bare tag",
			input:    "@foo\n",
			expected: map[string][]Value{"foo": {Bool()}},
		},
		{
			name:     "empty parentheses equal bare tag",
			input:    "@foo()\n",
			expected: map[string][]Value{"foo": {Bool()}},
		},
		{
			name:     "whitespace only parentheses",
			input:    "@foo(   )\n",
			expected: map[string][]Value{"foo": {Bool()}},
		},
		{
			name:     "repeated tags accumulate",
			input:    "@a\n@a\n",
			expected: map[string][]Value{"a": {Bool(), Bool()}},
		},
		{
			name:     "one line text is trimmed",
			input:    "@foo   bar baz  \n",
			expected: map[string][]Value{"foo": {String("bar baz")}},
		},
		{
			name:     "tab separates name from text",
			input:    "@foo\tbar\n",
			expected: map[string][]Value{"foo": {String("bar")}},
		},
		{
			name:  "keyed arguments",
			input: `@route(method=GET, path="/x/y")`,
			expected: map[string][]Value{
				"route": {ArgsValue(Args{keyed("method", "GET"), keyed("path", "/x/y")})},
			},
		},
		{
			name:  "escaped quote",
			input: `@t(msg="a\"b")`,
			expected: map[string][]Value{
				"t": {ArgsValue(Args{keyed("msg", `a"b`)})},
			},
		},
		{
			name:  "escaped backslash",
			input: `@t(path="C:\\dir")`,
			expected: map[string][]Value{
				"t": {ArgsValue(Args{keyed("path", `C:\dir`)})},
			},
		},
		{
			name:  "unquoted trimmed quoted preserved",
			input: `@hello( speak = yes , to=   "world ")`,
			expected: map[string][]Value{
				"hello": {ArgsValue(Args{keyed("speak", "yes"), keyed("to", "world ")})},
			},
		},
		{
			name:  "positional arguments",
			input: `@tags(a, b , "c d")` + "\n",
			expected: map[string][]Value{
				"tags": {ArgsValue(Args{positional("a"), positional("b"), positional("c d")})},
			},
		},
		{
			name:  "duplicate key overwrites in place",
			input: "@x(k=1, j=2, k=3)\n",
			expected: map[string][]Value{
				"x": {ArgsValue(Args{keyed("k", "3"), keyed("j", "2")})},
			},
		},
		{
			name:  "keys never merge across occurrences",
			input: "@x(k=1)\n@x(k=2)\n",
			expected: map[string][]Value{
				"x": {
					ArgsValue(Args{keyed("k", "1")}),
					ArgsValue(Args{keyed("k", "2")}),
				},
			},
		},
		{
			name:  "second equals belongs to the value",
			input: "@x(a=b=c)\n",
			expected: map[string][]Value{
				"x": {ArgsValue(Args{keyed("a", "b=c")})},
			},
		},
		{
			name:  "equals inside quotes is not a separator",
			input: `@x("a=b", q="c=d")`,
			expected: map[string][]Value{
				"x": {ArgsValue(Args{positional("a=b"), keyed("q", "c=d")})},
			},
		},
		{
			name:  "pending key carries over an empty item",
			input: "@x(a=, b)\n",
			expected: map[string][]Value{
				"x": {ArgsValue(Args{keyed("a", "b")})},
			},
		},
		{
			name:  "leading equals is part of a positional value",
			input: "@x(=v)\n",
			expected: map[string][]Value{
				"x": {ArgsValue(Args{positional("=v")})},
			},
		},
		{
			name:  "multi line argument list",
			input: "@x(\n  a = 1,\n  b = \"two\"\n)\n@y\n",
			expected: map[string][]Value{
				"x": {ArgsValue(Args{keyed("a", "1"), keyed("b", "two")})},
				"y": {Bool()},
			},
		},
		{
			name:  "text after closing paren is discarded",
			input: "@a(x) @b\n@c\n",
			expected: map[string][]Value{
				"a": {ArgsValue(Args{positional("x")})},
				"c": {Bool()},
			},
		},
		{
			name:  "free text lines are skipped",
			input: "Mail me at user@example.com @nope\n@real\n",
			expected: map[string][]Value{
				"real": {Bool()},
			},
		},
		{
			name:  "name charset",
			input: "@a.b-c_d1 x\n@foo: bar\n",
			expected: map[string][]Value{
				"a.b-c_d1": {String("x")},
				"foo":      {String(": bar")},
			},
		},
		{
			name:  "names are case sensitive",
			input: "@Foo\n@foo\n",
			expected: map[string][]Value{
				"Foo": {Bool()},
				"foo": {Bool()},
			},
		},
		{
			name:  "empty name",
			input: "@ x\n",
			expected: map[string][]Value{
				"": {String("x")},
			},
		},
		{
			name:     "bare tag at end of input is dropped",
			input:    "@foo",
			expected: map[string][]Value{},
		},
		{
			name:     "one line text at end of input is dropped",
			input:    "@foo bar",
			expected: map[string][]Value{},
		},
		{
			name:     "unterminated argument list swallows the rest",
			input:    "@x(a, b\n@y\n",
			expected: map[string][]Value{},
		},
		{
			name:     "unterminated string swallows the rest",
			input:    "@x(\"abc\n@y\n",
			expected: map[string][]Value{},
		},
		{
			name:  "tags before an unterminated one survive",
			input: "@ok\n@x(\"abc",
			expected: map[string][]Value{
				"ok": {Bool()},
			},
		},
		{
			name:  "carriage returns",
			input: "/**\r\n * @a\r\n * @b 1\r\n */",
			expected: map[string][]Value{
				"a": {Bool()},
				"b": {String("1")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.input)
			assert.Equal(t, tt.expected, result.Map())
		})
	}
}

func TestParse_DocComment(t *testing.T) {
	input := `/**
 * @author angus
 *
 * @test ( comment=1 )
 * @hello( speak = yes , to=   "world ")
 * @go()
 */`

	result := Parse(input)

	assert.Equal(t, []string{"author", "test", "hello", "go"}, result.Names())
	assert.Equal(t, []Value{String("angus")}, result.Get("author"))
	assert.Equal(t, []Value{ArgsValue(Args{keyed("comment", "1")})}, result.Get("test"))
	assert.Equal(t, []Value{ArgsValue(Args{keyed("speak", "yes"), keyed("to", "world ")})}, result.Get("hello"))
	assert.Equal(t, []Value{Bool()}, result.Get("go"))

	data, err := result.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"author": ["angus"],
		"test": [{"comment": "1"}],
		"hello": [{"speak": "yes", "to": "world "}],
		"go": [true]
	}`, string(data))
}

func TestParse_ClassComment(t *testing.T) {
	input := "/**\n * @package litert/annotation\n *\n * @author Angus.Fenying\n */"

	result := Parse(input)

	first, ok := result.First("package")
	require.True(t, ok)
	assert.Equal(t, KindString, first.Kind())
	assert.Equal(t, "litert/annotation", first.Text())

	first, ok = result.First("author")
	require.True(t, ok)
	assert.Equal(t, "Angus.Fenying", first.Text())
}

func TestParse_GoLineComments(t *testing.T) {
	// Line comments arrive with their "//" markers already stripped
	input := " Handler serves users.\n\n @route(method = GET, path = \"/users\")\n @auth admin\n"

	result := Parse(input)

	route, ok := result.First("route")
	require.True(t, ok)
	method, ok := route.Args().Get("method")
	require.True(t, ok)
	assert.Equal(t, "GET", method)
	path, _ := route.Args().Get("path")
	assert.Equal(t, "/users", path)

	auth, ok := result.First("auth")
	require.True(t, ok)
	assert.Equal(t, "admin", auth.Text())
}

func TestParse_LargeInput(t *testing.T) {
	var b strings.Builder
	b.WriteString("/**\n")
	for i := 0; i < 1000; i++ {
		b.WriteString(" * @item(n = x, \"quoted \\\" value\")\n")
	}

	result := Parse(b.String())
	assert.Len(t, result.Get("item"), 1000)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "READY", stateReady.String())
	assert.Equal(t, "READING_ITEM_STR_ESCAPING", stateReadingItemStrEscaping.String())
	assert.Equal(t, "UNKNOWN", state(42).String())
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "plain"},
		{`a\"b`, `a"b`},
		{`a\\b`, `a\b`},
		{`\n`, "n"},
		{`trailing\`, "trailing"},
		{`\\\"`, `\"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, unescape(tt.input))
		})
	}
}

func TestParse_ArbitraryBytes(t *testing.T) {
	withoutTags := []string{
		"\x00",
		"\xff\xfe\xfd",
		"\"",
		"\\",
		"(",
		")",
		"\"\\\"(\n\x00)",
		"/**/*/*/**",
		"\r\r\n\n\t \x0b",
		"a=b, \"c\" (d) \\e",
		"\xc3\x28 \xe2\x82 \xf0\x9f\x98",
	}

	for _, input := range withoutTags {
		t.Run("no tag "+strconv.Quote(input), func(t *testing.T) {
			assert.True(t, Parse(input).IsEmpty())

			result, _ := ParseStrict(input)
			assert.True(t, result.IsEmpty())
		})
	}

	withTags := []string{
		"@",
		"@@",
		"@\x00",
		"@(",
		"@\"",
		"@\\",
		"@x(\"",
		"@x(\"\\",
		"@x(\\\")",
		"@x(=",
		"@x(a=\"\x00\xff\")\n",
		"@x(((((",
		"@\xff\xfe(a)\n",
		"@x)\n@y(\n)",
		"@x(\"a\"\"b\")\n",
	}

	for _, input := range withTags {
		t.Run("tag "+strconv.Quote(input), func(t *testing.T) {
			var result Result
			require.NotPanics(t, func() { result = Parse(input) })

			var strict Result
			require.NotPanics(t, func() { strict, _ = ParseStrict(input) })
			assert.Equal(t, result.Map(), strict.Map())
		})
	}
}
