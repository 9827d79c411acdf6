// Package sandbox statically validates expression ASTs before evaluation.
// Validation is a pure syntactic walk over the parsed tree: it inspects
// names and literals only and never evaluates, reflects, or calls host code.
package sandbox

import (
	"fmt"
	"strings"
	"time"

	"github.com/quickdata/qexpr/pkg/expr"
	"github.com/quickdata/qexpr/pkg/types"
)

// minimalBlocked is the set of names that can never be referenced or
// called, regardless of configuration. AllowedImports cannot re-admit any
// of these.
var minimalBlocked = map[string]bool{
	"eval":       true,
	"exec":       true,
	"execfile":   true,
	"compile":    true,
	"import":     true,
	"__import__": true,
	"open":       true,
	"file":       true,
	"input":      true,
	"raw_input":  true,
	"getattr":    true,
	"setattr":    true,
	"delattr":    true,
	"hasattr":    true,
	"globals":    true,
	"locals":     true,
	"vars":       true,
	"dir":        true,
	"type":       true,
	"os":         true,
	"sys":        true,
	"subprocess": true,
	"shutil":     true,
	"socket":     true,
	"pickle":     true,
	"marshal":    true,
	"ctypes":     true,
}

// Config controls validation and the limits the evaluator enforces.
type Config struct {
	MaxRecursionDepth int
	MaxExecutionTime  time.Duration
	MaxStringLength   int
	AllowedImports    []string // names removed from BlockedNames, never from the minimal set
	BlockedNames      []string // extra names to block on top of the minimal set
}

// DefaultConfig returns the standard sandbox limits.
func DefaultConfig() Config {
	return Config{
		MaxRecursionDepth: 100,
		MaxExecutionTime:  5 * time.Second,
		MaxStringLength:   1_000_000,
	}
}

// Registry answers whether a function name is known. The validator rejects
// calls to names the registry does not have.
type Registry interface {
	Has(name string) bool
}

// Validator checks ASTs against a sandbox configuration.
type Validator struct {
	cfg      Config
	registry Registry
	blocked  map[string]bool
}

// NewValidator builds a validator. The effective block set is the minimal
// set plus cfg.BlockedNames minus cfg.AllowedImports; allowed imports never
// unblock a name in the minimal set.
func NewValidator(cfg Config, registry Registry) *Validator {
	allowed := make(map[string]bool, len(cfg.AllowedImports))
	for _, name := range cfg.AllowedImports {
		allowed[name] = true
	}

	blocked := make(map[string]bool, len(minimalBlocked)+len(cfg.BlockedNames))
	for name := range minimalBlocked {
		blocked[name] = true
	}
	for _, name := range cfg.BlockedNames {
		if !allowed[name] {
			blocked[name] = true
		}
	}

	return &Validator{cfg: cfg, registry: registry, blocked: blocked}
}

// Validate checks the tree and returns a security error carrying every
// violation found, or nil if the tree is clean.
func (v *Validator) Validate(node expr.Node) error {
	violations := v.Check(node)
	if len(violations) > 0 {
		return types.NewSecurityError(violations)
	}
	return nil
}

// Check walks the tree and collects every violation in visit order. An
// empty result means the expression is safe to evaluate.
func (v *Validator) Check(node expr.Node) []string {
	var violations []string
	v.walk(node, 1, &violations)
	return violations
}

func (v *Validator) walk(node expr.Node, depth int, violations *[]string) {
	if node == nil {
		return
	}

	if v.cfg.MaxRecursionDepth > 0 && depth > v.cfg.MaxRecursionDepth {
		*violations = append(*violations,
			fmt.Sprintf("expression nesting exceeds depth limit %d", v.cfg.MaxRecursionDepth))
		return
	}

	switch n := node.(type) {
	case *expr.IdentNode:
		v.checkName(n.Name, "variable", violations)
	case *expr.PropertyNode:
		v.checkName(n.Property, "property", violations)
	case *expr.CallNode:
		v.checkCall(n.Name, violations)
	case *expr.LiteralNode:
		if n.TokenType == expr.TokenString && v.cfg.MaxStringLength > 0 &&
			len(n.StrVal) > v.cfg.MaxStringLength {
			*violations = append(*violations,
				fmt.Sprintf("string literal length %d exceeds limit %d",
					len(n.StrVal), v.cfg.MaxStringLength))
		}
	}

	for _, child := range expr.Children(node) {
		v.walk(child, depth+1, violations)
	}
}

func (v *Validator) checkName(name, role string, violations *[]string) {
	if v.blocked[name] {
		*violations = append(*violations,
			fmt.Sprintf("use of blocked name '%s' as %s", name, role))
	}
	if strings.HasPrefix(name, "__") {
		*violations = append(*violations,
			fmt.Sprintf("access to private name '%s'", name))
	}
}

// checkCall validates a call target. Each segment of a dotted name is
// checked against the block set, and the whole name must be registered.
func (v *Validator) checkCall(name string, violations *[]string) {
	for _, segment := range strings.Split(name, ".") {
		if v.blocked[segment] {
			*violations = append(*violations,
				fmt.Sprintf("call to blocked function '%s'", name))
			return
		}
		if strings.HasPrefix(segment, "__") {
			*violations = append(*violations,
				fmt.Sprintf("call to private name '%s'", name))
			return
		}
	}
	if v.registry != nil && !v.registry.Has(name) {
		*violations = append(*violations,
			fmt.Sprintf("call to unknown function '%s'", name))
	}
}
