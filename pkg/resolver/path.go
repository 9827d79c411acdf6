// Package resolver reads and writes values inside nested map/list contexts
// using dotted path expressions like "order.items[0].price". Reads never
// fail: a missing path yields the caller's default. Writes are
// copy-on-write and return a new context, leaving the input untouched.
package resolver

import (
	"strconv"
	"strings"

	"github.com/quickdata/qexpr/pkg/types"
)

// Segment is one step of a parsed path: either a map key or a list index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// ParsePath splits a path string into segments. Supported syntax:
//
//	a.b.c          map keys separated by dots
//	items[0]       list index
//	m['key']       quoted map key (single or double quotes)
//
// An empty path yields no segments. A malformed path returns a ValueError.
func ParsePath(path string) ([]Segment, error) {
	if path == "" {
		return nil, nil
	}

	var segments []Segment
	i := 0
	for i < len(path) {
		switch path[i] {
		case '.':
			if i == 0 || i == len(path)-1 || path[i+1] == '.' {
				return nil, types.NewValueError("malformed path %q", path)
			}
			i++
		case '[':
			seg, next, err := parseBracket(path, i)
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
			i = next
		default:
			start := i
			for i < len(path) && path[i] != '.' && path[i] != '[' {
				i++
			}
			segments = append(segments, Segment{Key: path[start:i]})
		}
	}
	return segments, nil
}

// parseBracket parses a bracketed segment starting at path[start] == '['
// and returns the segment and the index just past the closing bracket.
func parseBracket(path string, start int) (Segment, int, error) {
	end := strings.IndexByte(path[start:], ']')
	if end < 0 {
		return Segment{}, 0, types.NewValueError("unclosed bracket in path %q", path)
	}
	end += start
	inner := path[start+1 : end]
	if inner == "" {
		return Segment{}, 0, types.NewValueError("empty bracket in path %q", path)
	}

	// Quoted map key.
	if inner[0] == '\'' || inner[0] == '"' {
		if len(inner) < 2 || inner[len(inner)-1] != inner[0] {
			return Segment{}, 0, types.NewValueError("unterminated quoted key in path %q", path)
		}
		return Segment{Key: inner[1 : len(inner)-1]}, end + 1, nil
	}

	idx, err := strconv.Atoi(inner)
	if err != nil {
		return Segment{}, 0, types.NewValueError("invalid list index %q in path %q", inner, path)
	}
	return Segment{Index: idx, IsIndex: true}, end + 1, nil
}

// BuildPath renders segments back into path syntax. Keys containing dots,
// brackets, or quotes are emitted in bracketed quoted form so the result
// reparses to the same segments.
func BuildPath(segments []Segment) string {
	var sb strings.Builder
	for i, seg := range segments {
		if seg.IsIndex {
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(seg.Index))
			sb.WriteByte(']')
			continue
		}
		if strings.ContainsAny(seg.Key, ".[]'\"") {
			sb.WriteString("['")
			sb.WriteString(seg.Key)
			sb.WriteString("']")
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(seg.Key)
	}
	return sb.String()
}
