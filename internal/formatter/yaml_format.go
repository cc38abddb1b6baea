package formatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/kvedit/pkg/json5"
)

// YAMLFormatOptions control YAML rendering.
type YAMLFormatOptions struct {
	Indent              int
	LiteralBlockStrings bool
	// NoComments drops the JSON5 comments instead of carrying them over.
	NoComments bool
}

// FormatYAML renders a document node as YAML. Object keys keep their source
// order and JSON5 comments become YAML comments.
func FormatYAML(n *json5.Node, opts YAMLFormatOptions) (string, error) {
	if n == nil {
		return "", fmt.Errorf("no document")
	}
	node, err := toYAML(n, opts)
	if err != nil {
		return "", err
	}
	if opts.LiteralBlockStrings {
		applyLiteralStyle(node)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	indent := opts.Indent
	if indent <= 0 {
		indent = 2
	}
	enc.SetIndent(indent)
	if err := enc.Encode(node); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toYAML(n *json5.Node, opts YAMLFormatOptions) (*yaml.Node, error) {
	switch n.Kind() {
	case json5.KindObject:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		members := n.Members()
		for i, m := range members {
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key()}
			value, err := toYAML(m.Value, opts)
			if err != nil {
				return nil, err
			}
			if !opts.NoComments {
				key.HeadComment = headComment(m.Leading, i == 0)
				key.LineComment = lineComment(members, i)
			}
			out.Content = append(out.Content, key, value)
		}
		if len(members) == 0 {
			out.Style = yaml.FlowStyle
		}
		return out, nil
	case json5.KindArray:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		elems := n.Elements()
		for i, e := range elems {
			value, err := toYAML(e.Value, opts)
			if err != nil {
				return nil, err
			}
			if !opts.NoComments {
				value.HeadComment = headComment(e.Leading, i == 0)
			}
			out.Content = append(out.Content, value)
		}
		if len(elems) == 0 {
			out.Style = yaml.FlowStyle
		}
		return out, nil
	default:
		var out yaml.Node
		if err := out.Encode(n.Interface()); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", n.Raw(), err)
		}
		return &out, nil
	}
}

// headComment collects the comments in the trivia before a child. Unless
// the child is the first one, a comment on the same line as the previous
// sibling is left to lineComment.
func headComment(leading string, first bool) string {
	if !first {
		nl := strings.Index(leading, "\n")
		if nl < 0 {
			return joinComments(commentsIn(leading))
		}
		leading = leading[nl+1:]
	}
	return joinComments(commentsIn(leading))
}

// lineComment returns the comment that trails member i on its own line,
// which the parser stores in the member's trailing trivia or in the leading
// trivia of the next member.
func lineComment(members []*json5.Member, i int) string {
	texts := commentsIn(members[i].Trailing)
	if i+1 < len(members) {
		next := members[i+1].Leading
		if nl := strings.Index(next, "\n"); nl >= 0 {
			texts = append(texts, commentsIn(next[:nl])...)
		}
	}
	return joinComments(texts)
}

func joinComments(texts []string) string {
	if len(texts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(texts))
	for _, t := range texts {
		lines = append(lines, "# "+t)
	}
	return strings.Join(lines, "\n")
}

// commentsIn extracts the text of every // and /* */ comment in trivia.
// Block comments spanning several lines yield one entry per line.
func commentsIn(trivia string) []string {
	var out []string
	for i := 0; i < len(trivia); {
		switch {
		case strings.HasPrefix(trivia[i:], "//"):
			end := strings.IndexAny(trivia[i:], "\r\n")
			if end < 0 {
				end = len(trivia) - i
			}
			if t := strings.TrimSpace(trivia[i+2 : i+end]); t != "" {
				out = append(out, t)
			}
			i += end
		case strings.HasPrefix(trivia[i:], "/*"):
			end := strings.Index(trivia[i+2:], "*/")
			if end < 0 {
				end = len(trivia) - i - 2
			}
			body := trivia[i+2 : i+2+end]
			for _, line := range strings.Split(body, "\n") {
				line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
				if line != "" {
					out = append(out, line)
				}
			}
			i += end + 4
		default:
			i++
		}
	}
	return out
}

func applyLiteralStyle(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.Contains(n.Value, "\n") {
		n.Style = yaml.LiteralStyle
	}
	for _, c := range n.Content {
		applyLiteralStyle(c)
	}
}
