package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// PathSegment is one step of an attribute path: either a field name or an
// integer index.
type PathSegment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Path is a parsed attribute path.
//
// Grammar:
//
//	path    = first { "." name | bracket }
//	first   = name | bracket
//	bracket = "[" digits "]" | "[" quoted "]"
//	quoted  = '"' chars '"' | "'" chars "'"
//	name    = one or more characters other than ".", "[", "]", quotes
type Path []PathSegment

// ParsePath parses an attribute path such as "address.city",
// "tags[0]" or `["first name"]`. Anything outside the grammar is rejected.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("empty path")
	}

	var path Path
	i := 0
	expectName := true
	for i < len(s) {
		switch c := s[i]; {
		case c == '[':
			seg, next, err := parseBracket(s, i)
			if err != nil {
				return nil, err
			}
			path = append(path, seg)
			i = next
			expectName = false
		case c == '.':
			if expectName {
				return nil, fmt.Errorf("path %q: unexpected '.' at %d", s, i)
			}
			i++
			if i >= len(s) {
				return nil, fmt.Errorf("path %q: trailing '.'", s)
			}
			if s[i] == '[' || s[i] == '.' {
				return nil, fmt.Errorf("path %q: expected name after '.' at %d", s, i)
			}
			expectName = true
		default:
			if !expectName {
				return nil, fmt.Errorf("path %q: expected '.' or '[' at %d", s, i)
			}
			start := i
			for i < len(s) && !isPathDelimiter(s[i]) {
				i++
			}
			if start == i {
				return nil, fmt.Errorf("path %q: invalid character %q at %d", s, s[i], i)
			}
			path = append(path, PathSegment{Key: s[start:i]})
			expectName = false
		}
	}
	if expectName {
		return nil, fmt.Errorf("path %q: incomplete", s)
	}
	return path, nil
}

func isPathDelimiter(c byte) bool {
	return c == '.' || c == '[' || c == ']' || c == '"' || c == '\''
}

// parseBracket parses a bracket segment starting at s[i] == '['.
func parseBracket(s string, i int) (PathSegment, int, error) {
	end := strings.IndexByte(s[i:], ']')
	if end < 0 {
		return PathSegment{}, 0, fmt.Errorf("path %q: unterminated '[' at %d", s, i)
	}
	inner := s[i+1 : i+end]
	next := i + end + 1

	if len(inner) >= 2 && (inner[0] == '"' || inner[0] == '\'') && inner[len(inner)-1] == inner[0] {
		key := inner[1 : len(inner)-1]
		if strings.ContainsAny(key, `"'`) {
			return PathSegment{}, 0, fmt.Errorf("path %q: quote inside key at %d", s, i)
		}
		return PathSegment{Key: key}, next, nil
	}

	n, err := strconv.Atoi(inner)
	if err != nil || n < 0 || inner == "" || inner[0] == '+' {
		return PathSegment{}, 0, fmt.Errorf("path %q: index %q is not a non-negative integer", s, inner)
	}
	return PathSegment{Index: n, IsIndex: true}, next, nil
}

// MustParsePath is like ParsePath but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Lookup walks the path against v. A missing key, an out of range index or
// a step through a scalar yields undefined (nil). Integer indexes also
// address object keys spelled as numbers.
func (p Path) Lookup(v IRValue) IRValue {
	cur := v
	for _, seg := range p {
		switch node := cur.(type) {
		case IRObject:
			key := seg.Key
			if seg.IsIndex {
				key = strconv.Itoa(seg.Index)
			}
			next, ok := node[key]
			if !ok {
				return nil
			}
			cur = next
		case IRArray:
			if !seg.IsIndex || seg.Index >= len(node) {
				return nil
			}
			cur = node[seg.Index]
		default:
			return nil
		}
	}
	return cur
}

// String renders the path back into its canonical textual form.
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		switch {
		case seg.IsIndex:
			fmt.Fprintf(&b, "[%d]", seg.Index)
		case strings.ContainsAny(seg.Key, ".[]"):
			fmt.Fprintf(&b, "[%q]", seg.Key)
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(seg.Key)
		}
	}
	return b.String()
}
