package json5

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// ValueOf builds a detached node for a Go value. Maps are emitted with
// sorted keys; nested containers are written on a single line.
func ValueOf(v any) (*Node, error) {
	switch t := v.(type) {
	case nil:
		return &Node{kind: KindNull, raw: "null"}, nil
	case *Node:
		if t == nil {
			return &Node{kind: KindNull, raw: "null"}, nil
		}
		return t.Clone(), nil
	case bool:
		return &Node{kind: KindBoolean, raw: strconv.FormatBool(t)}, nil
	case string:
		return &Node{kind: KindString, raw: quote(t, '"'), str: t}, nil
	case json.Number:
		if _, err := strconv.ParseFloat(string(t), 64); err != nil {
			return nil, fmt.Errorf("json5: invalid number %q", string(t))
		}
		return &Node{kind: KindNumber, raw: string(t)}, nil
	case float64:
		return &Node{kind: KindNumber, raw: FormatNumber(t)}, nil
	case float32:
		return &Node{kind: KindNumber, raw: FormatNumber(float64(t))}, nil
	case int:
		return &Node{kind: KindNumber, raw: strconv.FormatInt(int64(t), 10)}, nil
	case int64:
		return &Node{kind: KindNumber, raw: strconv.FormatInt(t, 10)}, nil
	case uint64:
		return &Node{kind: KindNumber, raw: strconv.FormatUint(t, 10)}, nil
	case []any:
		n := &Node{kind: KindArray}
		for _, item := range t {
			child, err := ValueOf(item)
			if err != nil {
				return nil, err
			}
			n.appendInline(child)
		}
		return n, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		n := &Node{kind: KindObject}
		for _, k := range keys {
			child, err := ValueOf(t[k])
			if err != nil {
				return nil, err
			}
			n.setInline(k, child)
		}
		return n, nil
	}
	return valueOfReflect(reflect.ValueOf(v))
}

func valueOfReflect(rv reflect.Value) (*Node, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &Node{kind: KindNumber, raw: strconv.FormatInt(rv.Int(), 10)}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &Node{kind: KindNumber, raw: strconv.FormatUint(rv.Uint(), 10)}, nil
	case reflect.Float32, reflect.Float64:
		return &Node{kind: KindNumber, raw: FormatNumber(rv.Float())}, nil
	case reflect.String:
		return ValueOf(rv.String())
	case reflect.Bool:
		return ValueOf(rv.Bool())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ValueOf(nil)
		}
		return ValueOf(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return ValueOf(nil)
		}
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return ValueOf(items)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("json5: unsupported map key type %s", rv.Type().Key())
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return ValueOf(m)
	}
	if !rv.IsValid() {
		return ValueOf(nil)
	}
	return nil, fmt.Errorf("json5: unsupported value type %s", rv.Type())
}

func (n *Node) appendInline(child *Node) {
	e := &Element{Value: child}
	if len(n.elems) > 0 {
		e.Leading = " "
	}
	n.elems = append(n.elems, e)
}

func (n *Node) setInline(key string, child *Node) {
	m := &Member{RawKey: quote(key, '"'), key: key, AfterColon: " ", Value: child}
	if len(n.members) > 0 {
		m.Leading = " "
	}
	n.members = append(n.members, m)
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.members != nil {
		c.members = make([]*Member, len(n.members))
		for i, m := range n.members {
			mc := *m
			mc.Value = m.Value.Clone()
			c.members[i] = &mc
		}
	}
	if n.elems != nil {
		c.elems = make([]*Element, len(n.elems))
		for i, e := range n.elems {
			ec := *e
			ec.Value = e.Value.Clone()
			c.elems[i] = &ec
		}
	}
	return &c
}

// FormatNumber renders f the way JavaScript's Number#toString does, which is
// also a valid JSON5 literal.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	mant, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s
	}
	sign := exp[0]
	exp = strings.TrimLeft(exp[1:], "0")
	return mant + "e" + string(sign) + exp
}

// Quote returns s as a double quoted JSON5 string literal.
func Quote(s string) string { return quote(s, '"') }

func quote(s string, q byte) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	for _, r := range s {
		switch r {
		case rune(q):
			b.WriteByte('\\')
			b.WriteByte(q)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028':
			b.WriteString(`\u2028`)
		case '\u2029':
			b.WriteString(`\u2029`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}
