package json5

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Interface decodes n into plain Go values: nil, bool, string, int64 for
// integral literals that fit, float64 for other numbers, []any and
// map[string]any. Duplicate object keys resolve to the last declaration.
func (n *Node) Interface() any {
	switch n.Kind() {
	case KindBoolean:
		return n.raw == "true"
	case KindString:
		return n.str
	case KindNumber:
		if i, ok := parseInteger(n.raw); ok {
			return i
		}
		return parseNumber(n.raw)
	case KindArray:
		out := make([]any, len(n.elems))
		for i, e := range n.elems {
			out[i] = e.Value.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(n.members))
		for _, m := range n.members {
			out[m.key] = m.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// parseInteger decodes decimal and hexadecimal integer literals that fit in
// an int64.
func parseInteger(raw string) (int64, bool) {
	neg := false
	s := raw
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	} else if strings.ContainsAny(s, ".eEIN") {
		return 0, false
	}
	u, err := strconv.ParseUint(s, base, 63)
	if err != nil {
		return 0, false
	}
	if neg {
		return -int64(u), true
	}
	return int64(u), true
}

func parseNumber(raw string) float64 {
	s := raw
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	var f float64
	switch {
	case s == "Infinity":
		f = math.Inf(1)
	case s == "NaN":
		return math.NaN()
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		i, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return math.NaN()
		}
		f, _ = new(big.Float).SetInt(i).Float64()
	default:
		// out of range literals still yield +Inf, -Inf or 0, which is what we want
		f, _ = strconv.ParseFloat(s, 64)
	}
	if neg {
		return -f
	}
	return f
}
