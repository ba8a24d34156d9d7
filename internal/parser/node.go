package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// ParseError is returned when the input is not structurally valid markup.
// Missing fields never produce a ParseError; only unparseable documents do.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Msg, e.Err)
	}
	return "parse error: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Node is a generic markup tree node. The extraction tables are evaluated
// against this shape only, so candidate-path policy stays independent of the
// underlying decoder.
type Node struct {
	Name     string
	Attr     map[string]string
	Text     string
	Children []*Node
}

// parseTree decodes raw markup into a Node tree. Namespace prefixes are
// dropped; only local names are kept since bureau schemas are matched by tag
// name, not namespace.
func parseTree(raw []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))

	var root *Node
	stack := make([]*Node, 0, 8)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Msg: "malformed markup", Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			for _, a := range t.Attr {
				if n.Attr == nil {
					n.Attr = make(map[string]string, len(t.Attr))
				}
				n.Attr[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, &ParseError{Msg: "multiple root elements"}
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, &ParseError{Msg: "no recognizable root element"}
	}
	return root, nil
}

// text returns the node's own character data, trimmed.
func (n *Node) text() string {
	return strings.TrimSpace(n.Text)
}

// first returns the first descendant (document order, depth-first) whose local
// name matches, or nil. Matching is case-insensitive because vendors are not
// consistent about tag casing.
func (n *Node) first(name string) *Node {
	for _, c := range n.Children {
		if strings.EqualFold(c.Name, name) {
			return c
		}
		if m := c.first(name); m != nil {
			return m
		}
	}
	return nil
}

// all returns every descendant with the given local name in document order.
func (n *Node) all(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if strings.EqualFold(c.Name, name) {
			out = append(out, c)
		}
		out = append(out, c.all(name)...)
	}
	return out
}

// findPath walks a candidate path segment by segment. Each segment matches the
// first descendant with that name, so paths survive intermediate wrapper
// elements that differ between bureaus.
func findPath(n *Node, path []string) *Node {
	cur := n
	for _, seg := range path {
		if cur = cur.first(seg); cur == nil {
			return nil
		}
	}
	return cur
}
