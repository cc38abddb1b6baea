package json5

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "plain json", src: `{"name": "test", "age": 30, "tags": ["a", "b"]}`},
		{name: "comments", src: "// header\n{\n  // leading\n  \"a\": 1, /* inline */\n  b: 2 // tail\n}\n"},
		{name: "trailing commas", src: "{\n  a: [1, 2, 3,],\n  b: {c: 1,},\n}"},
		{name: "single quotes", src: `{'name': 'it\'s'}`},
		{name: "numbers", src: `[0x1F, +1, -.5, 5., 1e10, Infinity, -Infinity, NaN, -0]`},
		{name: "scalar root", src: `  "just a string"  `},
		{name: "empty containers", src: `{ a: {}, b: [ ], c: { /* empty */ } }`},
		{name: "crlf", src: "{\r\n  \"a\": 1,\r\n  \"b\": 2\r\n}\r\n"},
		{name: "bom", src: "\ufeff{\"a\": true}"},
		{name: "line continuation", src: "'line \\\nnext'"},
		{name: "unicode identifiers", src: "{ caf\u00e9: 1, $x_1: 2, ab: 3 }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.src, doc.String())
		})
	}
}

func TestParseValues(t *testing.T) {
	doc, err := Parse(`{
		// comment
		name: 'test',
		"quoted": "a\tbA\x42",
		count: 0x10,
		ratio: .5,
		flag: true,
		nothing: null,
		list: [1, 'two', [3]],
	}`)
	require.NoError(t, err)

	root := doc.Root
	require.Equal(t, KindObject, root.Kind())
	assert.Equal(t, 7, root.Len())
	assert.True(t, root.TrailingComma())

	name, ok := root.Get("name")
	require.True(t, ok)
	s, _ := name.StringValue()
	assert.Equal(t, "test", s)

	quoted, _ := root.Get("quoted")
	s, _ = quoted.StringValue()
	assert.Equal(t, "a\tbAB", s)

	count, _ := root.Get("count")
	f, ok := count.NumberValue()
	require.True(t, ok)
	assert.Equal(t, 16.0, f)

	flag, _ := root.Get("flag")
	b, ok := flag.BoolValue()
	require.True(t, ok)
	assert.True(t, b)

	nothing, _ := root.Get("nothing")
	assert.Equal(t, KindNull, nothing.Kind())

	list, _ := root.Get("list")
	require.Equal(t, KindArray, list.Kind())
	inner, ok := list.Index(2)
	require.True(t, ok)
	assert.Equal(t, KindArray, inner.Kind())
	_, ok = list.Index(3)
	assert.False(t, ok)

	keys := []string{}
	for _, m := range root.Members() {
		keys = append(keys, m.Key())
	}
	assert.Equal(t, []string{"name", "quoted", "count", "ratio", "flag", "nothing", "list"}, keys)
}

func TestParseInterface(t *testing.T) {
	root, err := ParseValue(`{a: 1, b: [true, null, 'x'], c: 1.5, d: 0xff, e: -Infinity, a: 2}`)
	require.NoError(t, err)
	got := root.Interface().(map[string]any)
	assert.Equal(t, int64(2), got["a"])
	assert.Equal(t, []any{true, nil, "x"}, got["b"])
	assert.Equal(t, 1.5, got["c"])
	assert.Equal(t, int64(255), got["d"])
	assert.True(t, math.IsInf(got["e"].(float64), -1))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		line    int
		column  int
		message string
	}{
		{name: "empty", src: "", line: 1, column: 1, message: "unexpected end of input"},
		{name: "whitespace only", src: "  \n ", line: 2, column: 2, message: "unexpected end of input"},
		{name: "unquoted value", src: "{ name: test }", line: 1, column: 9, message: `invalid value "test"`},
		{name: "missing comma", src: "{\n  \"a\": 1\n  \"b\": 2\n}", line: 3, column: 3, message: "expected ',' or '}'"},
		{name: "missing quotes", src: `{"key": missing_quotes}`, line: 1, column: 9, message: "invalid value"},
		{name: "unterminated object", src: `{"a": 1`, line: 1, column: 8, message: "unexpected end of input"},
		{name: "unterminated string", src: `{"a": "abc`, line: 1, column: 7, message: "unterminated string"},
		{name: "unterminated comment", src: "{ /* open", line: 1, column: 3, message: "unterminated block comment"},
		{name: "leading zero", src: "[01]", line: 1, column: 2, message: "leading zeros"},
		{name: "octal escape", src: `"\01"`, line: 1, column: 2, message: "octal"},
		{name: "garbage after value", src: "{} x", line: 1, column: 4, message: "after top-level value"},
		{name: "bad key", src: "{ 1: 2 }", line: 1, column: 3, message: "expected property name"},
		{name: "missing colon", src: "{ a 1 }", line: 1, column: 5, message: "expected ':'"},
		{name: "lone comma", src: "[,]", line: 1, column: 2, message: "unexpected character"},
		{name: "newline in string", src: "'a\nb'", line: 1, column: 3, message: "unterminated string"},
		{name: "bad hex", src: "0x", line: 1, column: 1, message: "hexadecimal"},
		{name: "number then ident", src: "[1a]", line: 1, column: 3, message: "in number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			se, ok := AsSyntaxError(err)
			require.True(t, ok, "expected *SyntaxError, got %T", err)
			assert.Equal(t, tt.line, se.Line)
			assert.Equal(t, tt.column, se.Column)
			assert.Contains(t, se.Msg, tt.message)
			assert.Contains(t, err.Error(), "json5: line")
		})
	}
}

func TestParseMaxDepth(t *testing.T) {
	deep := strings.Repeat("[", 20) + strings.Repeat("]", 20)

	_, err := Parse(deep)
	require.NoError(t, err)

	_, err = Parse(deep, WithMaxDepth(10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum nesting depth 10")

	_, err = Parse(strings.Repeat("[", DefaultMaxDepth+1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum nesting depth")
}

func TestParseSurrogatePairs(t *testing.T) {
	n, err := ParseValue(`"\ud83d\ude00 \ud800"`)
	require.NoError(t, err)
	s, _ := n.StringValue()
	assert.Equal(t, "\U0001F600 \ufffd", s)
}
