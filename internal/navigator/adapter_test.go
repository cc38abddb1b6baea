package navigator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvedit/pkg/json5"
)

func mustParse(t *testing.T, src string) *json5.Document {
	t.Helper()
	doc, err := json5.Parse(src)
	require.NoError(t, err)
	return doc
}

func TestAdaptChildren(t *testing.T) {
	doc := mustParse(t, `{b: 1, a: [true, null], 'c/d': "x"}`)
	src := Adapt(doc.Root)
	require.NotNil(t, src)
	assert.Equal(t, json5.KindObject, src.Kind())

	children := src.Children()
	require.Len(t, children, 3)
	assert.Equal(t, "b", children[0].DisplayKey())
	assert.Equal(t, "a", children[1].DisplayKey())
	assert.Equal(t, "c/d", children[2].DisplayKey())
	assert.False(t, children[0].IsIndex)

	elems := children[1].Node.Children()
	require.Len(t, elems, 2)
	assert.True(t, elems[1].IsIndex)
	assert.Equal(t, 1, elems[1].Index)
	assert.Equal(t, "[1]", elems[1].DisplayKey())
	assert.Equal(t, json5.KindNull, elems[1].Node.Kind())
	assert.Nil(t, elems[0].Node.Children())

	n, ok := Unwrap(children[2].Node)
	require.True(t, ok)
	assert.Equal(t, `"x"`, n.Raw())

	assert.Nil(t, Adapt(nil))
}

func TestAdaptChildrenDuplicateKeys(t *testing.T) {
	doc := mustParse(t, `{a: 1, b: 2, a: 3}`)
	children := Adapt(doc.Root).Children()
	require.Len(t, children, 2)
	assert.Equal(t, "b", children[0].Key)
	assert.Equal(t, "a", children[1].Key)
	n, ok := Unwrap(children[1].Node)
	require.True(t, ok)
	assert.Equal(t, "3", n.Raw())
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("\u00e9", 60)
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "object", src: `{a: 1, b: 2}`, want: "{2}"},
		{name: "empty object", src: `{}`, want: "{0}"},
		{name: "array", src: `[1, 2, 3]`, want: "[3]"},
		{name: "empty array", src: `[]`, want: "[0]"},
		{name: "string", src: `'hi'`, want: `"hi"`},
		{name: "escaped string", src: `"a\nb"`, want: "\"a\nb\""},
		{name: "exact limit", src: `"` + strings.Repeat("x", 50) + `"`, want: `"` + strings.Repeat("x", 50) + `"`},
		{name: "truncated", src: `"` + long + `"`, want: `"` + strings.Repeat("\u00e9", 50) + `..."`},
		{name: "escapes count decoded", src: `"` + strings.Repeat(`\u0041`, 50) + `"`, want: `"` + strings.Repeat("A", 50) + `"`},
		{name: "integer", src: `42`, want: "42"},
		{name: "hex", src: `0x10`, want: "16"},
		{name: "float", src: `1.50`, want: "1.5"},
		{name: "infinity", src: `-Infinity`, want: "-Infinity"},
		{name: "bool", src: `false`, want: "false"},
		{name: "null", src: `null`, want: "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.src)
			assert.Equal(t, tt.want, Adapt(doc.Root).Preview())
		})
	}
	assert.Equal(t, "", Preview(nil))
}

func TestPropertyAccess(t *testing.T) {
	doc := mustParse(t, "{\n  // keep me\n  \"name\": \"test\",\n  \"n\": 1\n}")

	v, ok := GetProperty(doc.Root, "name")
	require.True(t, ok)
	assert.Equal(t, "test", v)
	_, ok = GetProperty(doc.Root, "missing")
	assert.False(t, ok)

	assert.True(t, SetProperty(doc.Root, "name", "new"))
	assert.True(t, SetProperty(doc.Root, "extra", map[string]any{"x": 1}))
	out := Serialize(doc.Root)
	assert.Contains(t, out, "// keep me")
	assert.Contains(t, out, `"name": "new"`)
	assert.Contains(t, out, `"extra": {"x": 1}`)

	n, _ := doc.Root.Get("n")
	assert.False(t, SetProperty(n, "x", 1))
	assert.False(t, SetProperty(doc.Root, "bad", make(chan int)))
}
