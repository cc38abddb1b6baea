package json5

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxDepth bounds container nesting during Parse.
const DefaultMaxDepth = 1000

// Option configures Parse.
type Option func(*options)

type options struct {
	maxDepth int
}

// WithMaxDepth overrides DefaultMaxDepth. Values below 1 are ignored.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// Parse parses a complete JSON5 text. The returned document serializes back
// to exactly src until it is modified.
func Parse(src string, opts ...Option) (*Document, error) {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	p := &parser{src: src, maxDepth: o.maxDepth}

	doc := &Document{}
	var err error
	if doc.Leading, err = p.trivia(); err != nil {
		return nil, err
	}
	if p.eof() {
		return nil, p.errorf(p.pos, "unexpected end of input")
	}
	if doc.Root, err = p.value(); err != nil {
		return nil, err
	}
	if doc.Trailing, err = p.trivia(); err != nil {
		return nil, err
	}
	if !p.eof() {
		r, _ := utf8.DecodeRuneInString(src[p.pos:])
		return nil, p.errorf(p.pos, "unexpected character %q after top-level value", r)
	}
	return doc, nil
}

// ParseValue parses a single JSON5 value, discarding surrounding trivia.
func ParseValue(src string) (*Node, error) {
	doc, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return doc.Root, nil
}

type parser struct {
	src      string
	pos      int
	depth    int
	maxDepth int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune {
	if p.eof() {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return r
}

func (p *parser) errorf(offset int, format string, args ...any) error {
	return newSyntaxError(p.src, offset, format, args...)
}

// trivia consumes whitespace and comments and returns them verbatim.
func (p *parser) trivia() (string, error) {
	start := p.pos
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		switch {
		case isSpace(r):
			p.pos += size
		case strings.HasPrefix(p.src[p.pos:], "//"):
			end := strings.IndexAny(p.src[p.pos:], "\n\r\u2028\u2029")
			if end < 0 {
				p.pos = len(p.src)
			} else {
				p.pos += end
			}
		case strings.HasPrefix(p.src[p.pos:], "/*"):
			end := strings.Index(p.src[p.pos+2:], "*/")
			if end < 0 {
				return "", p.errorf(p.pos, "unterminated block comment")
			}
			p.pos += end + 4
		default:
			return p.src[start:p.pos], nil
		}
	}
	return p.src[start:p.pos], nil
}

func (p *parser) value() (*Node, error) {
	if p.eof() {
		return nil, p.errorf(p.pos, "unexpected end of input")
	}
	r := p.peek()
	switch {
	case r == '{':
		return p.object()
	case r == '[':
		return p.array()
	case r == '"' || r == '\'':
		raw, str, err := p.stringToken()
		if err != nil {
			return nil, err
		}
		return &Node{kind: KindString, raw: raw, str: str}, nil
	case r == '-' || r == '+' || r == '.' || (r >= '0' && r <= '9'):
		raw, err := p.number()
		if err != nil {
			return nil, err
		}
		return &Node{kind: KindNumber, raw: raw}, nil
	case isIdentStart(r):
		start := p.pos
		word := p.word()
		switch word {
		case "true", "false":
			return &Node{kind: KindBoolean, raw: word}, nil
		case "null":
			return &Node{kind: KindNull, raw: word}, nil
		case "Infinity", "NaN":
			return &Node{kind: KindNumber, raw: word}, nil
		}
		return nil, p.errorf(start, "invalid value %q", word)
	default:
		return nil, p.errorf(p.pos, "unexpected character %q", r)
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		return p.errorf(p.pos, "maximum nesting depth %d exceeded", p.maxDepth)
	}
	return nil
}

func (p *parser) object() (*Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	n := &Node{kind: KindObject}
	p.pos++
	for {
		lead, err := p.trivia()
		if err != nil {
			return nil, err
		}
		if p.eof() {
			return nil, p.errorf(p.pos, "unexpected end of input, expected '}'")
		}
		if p.peek() == '}' {
			p.pos++
			n.closing = lead
			return n, nil
		}

		m := &Member{Leading: lead}
		keyStart := p.pos
		switch r := p.peek(); {
		case r == '"' || r == '\'':
			m.RawKey, m.key, err = p.stringToken()
		case isIdentStart(r) || r == '\\':
			m.key, err = p.identifier()
			m.RawKey = p.src[keyStart:p.pos]
		default:
			return nil, p.errorf(p.pos, "expected property name or '}', found %q", r)
		}
		if err != nil {
			return nil, err
		}

		if m.BeforeColon, err = p.trivia(); err != nil {
			return nil, err
		}
		if p.peek() != ':' {
			return nil, p.errorf(p.pos, "expected ':' after property name %q", m.key)
		}
		p.pos++
		if m.AfterColon, err = p.trivia(); err != nil {
			return nil, err
		}
		if m.Value, err = p.value(); err != nil {
			return nil, err
		}
		after, err := p.trivia()
		if err != nil {
			return nil, err
		}
		n.members = append(n.members, m)

		switch p.peek() {
		case ',':
			p.pos++
			m.Trailing = after
			n.trailingComma = true
		case '}':
			p.pos++
			n.closing = after
			n.trailingComma = false
			return n, nil
		case -1:
			return nil, p.errorf(p.pos, "unexpected end of input, expected ',' or '}'")
		default:
			return nil, p.errorf(p.pos, "expected ',' or '}' after object member")
		}
	}
}

func (p *parser) array() (*Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	n := &Node{kind: KindArray}
	p.pos++
	for {
		lead, err := p.trivia()
		if err != nil {
			return nil, err
		}
		if p.eof() {
			return nil, p.errorf(p.pos, "unexpected end of input, expected ']'")
		}
		if p.peek() == ']' {
			p.pos++
			n.closing = lead
			return n, nil
		}

		e := &Element{Leading: lead}
		if e.Value, err = p.value(); err != nil {
			return nil, err
		}
		after, err := p.trivia()
		if err != nil {
			return nil, err
		}
		n.elems = append(n.elems, e)

		switch p.peek() {
		case ',':
			p.pos++
			e.Trailing = after
			n.trailingComma = true
		case ']':
			p.pos++
			n.closing = after
			n.trailingComma = false
			return n, nil
		case -1:
			return nil, p.errorf(p.pos, "unexpected end of input, expected ',' or ']'")
		default:
			return nil, p.errorf(p.pos, "expected ',' or ']' after array element")
		}
	}
}

// word consumes a run of identifier characters without escapes.
func (p *parser) word() string {
	start := p.pos
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !isIdentPart(r) {
			break
		}
		p.pos += size
	}
	return p.src[start:p.pos]
}

// identifier consumes an ECMAScript IdentifierName used as a property key,
// decoding \uXXXX escapes.
func (p *parser) identifier() (string, error) {
	var b strings.Builder
	first := true
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		at := p.pos
		if r == '\\' {
			if !strings.HasPrefix(p.src[p.pos:], `\u`) {
				return "", p.errorf(at, "invalid escape in identifier")
			}
			p.pos += 2
			cp, ok := p.hex(4)
			if !ok {
				return "", p.errorf(at, "invalid unicode escape in identifier")
			}
			r = rune(cp)
			if (first && !isIdentStart(r)) || (!first && !isIdentPart(r)) {
				return "", p.errorf(at, "invalid identifier character %q", r)
			}
		} else {
			if (first && !isIdentStart(r)) || (!first && !isIdentPart(r)) {
				break
			}
			p.pos += size
		}
		b.WriteRune(r)
		first = false
	}
	return b.String(), nil
}

// hex consumes exactly n hexadecimal digits.
func (p *parser) hex(n int) (uint32, bool) {
	if p.pos+n > len(p.src) {
		return 0, false
	}
	var v uint32
	for i := 0; i < n; i++ {
		d, ok := hexDigit(p.src[p.pos+i])
		if !ok {
			return 0, false
		}
		v = v<<4 | uint32(d)
	}
	p.pos += n
	return v, true
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// stringToken consumes a single or double quoted string and returns both its
// source text and decoded value.
func (p *parser) stringToken() (raw, value string, err error) {
	start := p.pos
	q := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for {
		if p.eof() {
			return "", "", p.errorf(start, "unterminated string")
		}
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		switch {
		case r == rune(q):
			p.pos++
			return p.src[start:p.pos], b.String(), nil
		case r == '\n' || r == '\r':
			return "", "", p.errorf(p.pos, "unterminated string")
		case r == '\\':
			if err := p.escape(&b); err != nil {
				return "", "", err
			}
		default:
			b.WriteRune(r)
			p.pos += size
		}
	}
}

func (p *parser) escape(b *strings.Builder) error {
	at := p.pos
	p.pos++
	if p.eof() {
		return p.errorf(at, "unterminated string")
	}
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	switch r {
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'v':
		b.WriteByte('\v')
	case '0':
		if c := p.peek(); c >= '0' && c <= '9' {
			return p.errorf(at, "octal escape sequences are not allowed")
		}
		b.WriteByte(0)
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return p.errorf(at, "invalid escape sequence \\%c", r)
	case 'x':
		v, ok := p.hex(2)
		if !ok {
			return p.errorf(at, "invalid hexadecimal escape")
		}
		b.WriteRune(rune(v))
	case 'u':
		v, ok := p.hex(4)
		if !ok {
			return p.errorf(at, "invalid unicode escape")
		}
		cp := rune(v)
		if cp >= 0xD800 && cp < 0xDC00 && strings.HasPrefix(p.src[p.pos:], `\u`) {
			save := p.pos
			p.pos += 2
			if lo, ok := p.hex(4); ok && lo >= 0xDC00 && lo < 0xE000 {
				cp = (cp-0xD800)<<10 + (rune(lo) - 0xDC00) + 0x10000
			} else {
				p.pos = save
			}
		}
		if cp >= 0xD800 && cp < 0xE000 {
			cp = utf8.RuneError
		}
		b.WriteRune(cp)
	case '\r':
		// line continuation; CRLF counts once
		if p.peek() == '\n' {
			p.pos++
		}
	case '\n', '\u2028', '\u2029':
		// line continuation
	default:
		b.WriteRune(r)
	}
	return nil
}

// number consumes a JSON5 numeric literal and returns its source text.
func (p *parser) number() (string, error) {
	start := p.pos
	if c := p.src[p.pos]; c == '+' || c == '-' {
		p.pos++
	}
	rest := p.src[p.pos:]
	switch {
	case strings.HasPrefix(rest, "Infinity"):
		p.pos += len("Infinity")
	case strings.HasPrefix(rest, "NaN"):
		p.pos += len("NaN")
	case strings.HasPrefix(rest, "0x") || strings.HasPrefix(rest, "0X"):
		p.pos += 2
		digits := p.pos
		for !p.eof() {
			if _, ok := hexDigit(p.src[p.pos]); !ok {
				break
			}
			p.pos++
		}
		if p.pos == digits {
			return "", p.errorf(start, "invalid hexadecimal number")
		}
	default:
		intDigits := p.digits()
		if intDigits > 1 && p.src[p.pos-intDigits] == '0' {
			return "", p.errorf(start, "leading zeros are not allowed")
		}
		fracDigits := 0
		if p.peek() == '.' {
			p.pos++
			fracDigits = p.digits()
		}
		if intDigits == 0 && fracDigits == 0 {
			return "", p.errorf(start, "invalid number")
		}
		if c := p.peek(); c == 'e' || c == 'E' {
			p.pos++
			if c := p.peek(); c == '+' || c == '-' {
				p.pos++
			}
			if p.digits() == 0 {
				return "", p.errorf(start, "invalid number exponent")
			}
		}
	}
	if r := p.peek(); r != -1 && (isIdentPart(r) || r == '.') {
		return "", p.errorf(p.pos, "unexpected character %q in number", r)
	}
	return p.src[start:p.pos], nil
}

func (p *parser) digits() int {
	n := 0
	for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
		n++
	}
	return n
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u00a0', '\u2028', '\u2029', '\ufeff':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isIdentStart(r rune) bool {
	return r == '$' || r == '_' || unicode.IsLetter(r) || unicode.Is(unicode.Nl, r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) ||
		unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc) ||
		r == '\u200c' || r == '\u200d'
}
