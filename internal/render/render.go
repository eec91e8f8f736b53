// Package render implements the placeholder engine used for template
// documents. Syntax is the double-brace subset stored in existing documents:
// {{name}} substitutions, {{#name}}...{{/name}} sections (iteration or
// conditional) and {{^name}}...{{/name}} inverted sections. The syntax is a
// wire-compatible contract: changing it would break stored content.
package render

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// placeholderRe matches a single non-overlapping {{...}} occurrence. The
// inner text may not contain a closing brace and must be non-empty, so
// unbalanced or empty braces are simply left unmatched.
var placeholderRe = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// SyntaxError reports structurally invalid placeholder markup, such as a
// section that is never closed. Unresolved names are not errors.
type SyntaxError struct {
	Block string // name of the offending section
	msg   string
}

func (e *SyntaxError) Error() string { return e.msg }

// ExtractPlaceholders returns the inner text of every placeholder in content
// in first-to-last order, duplicates included. Section markers (#, ^, /) are
// part of the captured text: "{{#items}}{{/items}}" yields "#items","/items".
// Callers use the result to advertise required substitution keys.
func ExtractPlaceholders(content string) []string {
	matches := placeholderRe.FindAllStringSubmatch(content, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// Render expands content against data. Missing names render as empty text;
// rendering fails only when the markup itself is invalid, in which case a
// *SyntaxError is returned.
func Render(content string, data map[string]any) (string, error) {
	nodes, err := parse(content)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(content))
	writeNodes(&b, nodes, &scope{val: data})
	return b.String(), nil
}

type nodeKind int

const (
	nodeText nodeKind = iota
	nodeVar
	nodeSection
	nodeInverted
)

type node struct {
	kind     nodeKind
	text     string // literal text, or placeholder name
	children []node
}

// parse builds the node tree for content, validating section nesting.
func parse(content string) ([]node, error) {
	type frame struct {
		name     string
		inverted bool
		nodes    []node
	}
	stack := []frame{{}}
	last := 0
	for _, m := range placeholderRe.FindAllStringSubmatchIndex(content, -1) {
		if m[0] > last {
			top := &stack[len(stack)-1]
			top.nodes = append(top.nodes, node{kind: nodeText, text: content[last:m[0]]})
		}
		last = m[1]
		tag := content[m[2]:m[3]]
		switch tag[0] {
		case '#', '^':
			stack = append(stack, frame{name: tag[1:], inverted: tag[0] == '^'})
		case '/':
			name := tag[1:]
			if len(stack) == 1 {
				return nil, &SyntaxError{Block: name, msg: fmt.Sprintf("unexpected {{/%s}}: no open section", name)}
			}
			top := stack[len(stack)-1]
			if top.name != name {
				return nil, &SyntaxError{Block: top.name, msg: fmt.Sprintf("section {{%c%s}} closed by {{/%s}}", markerOf(top.inverted), top.name, name)}
			}
			stack = stack[:len(stack)-1]
			kind := nodeSection
			if top.inverted {
				kind = nodeInverted
			}
			parent := &stack[len(stack)-1]
			parent.nodes = append(parent.nodes, node{kind: kind, text: top.name, children: top.nodes})
		default:
			top := &stack[len(stack)-1]
			top.nodes = append(top.nodes, node{kind: nodeVar, text: tag})
		}
	}
	if len(stack) > 1 {
		top := stack[len(stack)-1]
		return nil, &SyntaxError{Block: top.name, msg: fmt.Sprintf("unterminated section {{%c%s}}", markerOf(top.inverted), top.name)}
	}
	if last < len(content) {
		stack[0].nodes = append(stack[0].nodes, node{kind: nodeText, text: content[last:]})
	}
	return stack[0].nodes, nil
}

func markerOf(inverted bool) byte {
	if inverted {
		return '^'
	}
	return '#'
}

// scope is one frame of the lookup chain. Inner frames shadow outer ones.
type scope struct {
	val    any
	parent *scope
}

func (s *scope) lookup(name string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		rv := reflect.ValueOf(cur.val)
		if rv.IsValid() && rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
			if mv := rv.MapIndex(reflect.ValueOf(name)); mv.IsValid() {
				return mv.Interface(), true
			}
		}
	}
	return nil, false
}

func writeNodes(b *strings.Builder, nodes []node, sc *scope) {
	for _, n := range nodes {
		switch n.kind {
		case nodeText:
			b.WriteString(n.text)
		case nodeVar:
			if v, ok := sc.lookup(n.text); ok {
				b.WriteString(stringify(v))
			}
		case nodeSection:
			v, _ := sc.lookup(n.text)
			if !truthy(v) {
				continue
			}
			rv := reflect.ValueOf(v)
			if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
				for i := 0; i < rv.Len(); i++ {
					writeNodes(b, n.children, &scope{val: rv.Index(i).Interface(), parent: sc})
				}
			} else {
				writeNodes(b, n.children, &scope{val: v, parent: sc})
			}
		case nodeInverted:
			if v, _ := sc.lookup(n.text); !truthy(v) {
				writeNodes(b, n.children, sc)
			}
		}
	}
}

// truthy reports whether a section bound to v renders. Absent, nil, false,
// empty strings and empty collections do not; everything else (including
// numeric zero) does.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		// JSON-decoded numbers arrive as float64; print whole values without
		// a trailing ".0"
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}
