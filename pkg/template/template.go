// Package template renders strings containing ${...} expression
// placeholders against a context. Everything outside a placeholder passes
// through verbatim; each placeholder is evaluated by the engine and
// replaced by the result's string form.
package template

import (
	"strings"

	"github.com/quickdata/qexpr/pkg/engine"
	"github.com/quickdata/qexpr/pkg/types"
)

// Renderer renders templates using a shared engine. The engine's cache
// makes repeated renders of the same template cheap.
type Renderer struct {
	engine *engine.Engine
}

// NewRenderer creates a renderer backed by the given engine.
func NewRenderer(e *engine.Engine) *Renderer {
	return &Renderer{engine: e}
}

// Render substitutes every ${expr} placeholder in the template. A template
// that is exactly one placeholder returns the raw result's string form as
// well; templates with surrounding text always produce strings.
func (r *Renderer) Render(tmpl string, ctx types.Value) (string, error) {
	var sb strings.Builder
	i := 0
	for i < len(tmpl) {
		start := strings.Index(tmpl[i:], "${")
		if start < 0 {
			sb.WriteString(tmpl[i:])
			break
		}
		start += i
		sb.WriteString(tmpl[i:start])

		// Escaped placeholder: $${ emits a literal ${.
		if start > 0 && tmpl[start-1] == '$' {
			sb.WriteString("{")
			i = start + 2
			continue
		}

		end, ok := findClose(tmpl, start+2)
		if !ok {
			return "", types.NewParseError(start, "unterminated placeholder in template")
		}

		result, err := r.engine.Evaluate(tmpl[start+2:end], ctx)
		if err != nil {
			return "", err
		}
		sb.WriteString(result.String())
		i = end + 1
	}
	return sb.String(), nil
}

// RenderValue renders a template that is exactly one placeholder to its
// typed result. Mixed templates fall back to Render and return a string.
func (r *Renderer) RenderValue(tmpl string, ctx types.Value) (types.Value, error) {
	trimmed := strings.TrimSpace(tmpl)
	if strings.HasPrefix(trimmed, "${") && !strings.HasPrefix(trimmed, "$${") {
		if end, ok := findClose(trimmed, 2); ok && end == len(trimmed)-1 {
			return r.engine.Evaluate(trimmed[2:end], ctx)
		}
	}
	s, err := r.Render(tmpl, ctx)
	if err != nil {
		return types.Null, err
	}
	return types.NewString(s), nil
}

// findClose scans from the first byte after "${" to the matching "}",
// tracking nested braces and skipping string literals so map literals and
// quoted braces inside placeholders work.
func findClose(s string, from int) (int, bool) {
	depth := 1
	var quote byte
	for i := from; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == '\\' {
				i++
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
