// Package engine ties the expression pipeline together: parse, sandbox
// validation, compiled-form caching, and evaluation against a context.
package engine

import (
	"math"
	"sync/atomic"

	"github.com/quickdata/qexpr/pkg/expr"
	"github.com/quickdata/qexpr/pkg/sandbox"
	"github.com/quickdata/qexpr/pkg/stdlib"
	"github.com/quickdata/qexpr/pkg/types"
)

// Engine is the evaluation façade. A single Engine is safe for concurrent
// use: compiled expressions are immutable and the registry and cache
// synchronize internally.
type Engine struct {
	cfg       Config
	registry  *stdlib.Registry
	validator *sandbox.Validator
	cache     *lruCache
}

// CompiledExpression is a parsed and validated expression ready for
// repeated evaluation. Instances are immutable and shareable. IDs are
// assigned monotonically across all engines in the process.
type CompiledExpression struct {
	Source string
	Root   expr.Node
	ID     uint64
	engine *Engine
}

var nextID atomic.Uint64

// New creates an engine with the given configuration and the full builtin
// function library.
func New(cfg Config) *Engine {
	e := &Engine{
		cfg:      cfg,
		registry: stdlib.NewDefaultRegistry(),
	}
	e.validator = sandbox.NewValidator(e.sandboxConfig(), e.registry)
	if cfg.EnableCache && cfg.CacheSize > 0 {
		e.cache = newLRUCache(cfg.CacheSize)
	}
	return e
}

// NewDefault creates an engine with DefaultConfig.
func NewDefault() *Engine {
	return New(DefaultConfig())
}

func (e *Engine) sandboxConfig() sandbox.Config {
	return sandbox.Config{
		MaxRecursionDepth: e.cfg.MaxRecursionDepth,
		MaxExecutionTime:  e.cfg.MaxExecutionTime,
		MaxStringLength:   e.cfg.MaxStringLength,
		AllowedImports:    e.cfg.AllowedImports,
		BlockedNames:      e.cfg.BlockedNames,
	}
}

// Compile parses and validates an expression, consulting the cache first.
// Only expressions that pass validation are cached, so registering a new
// function immediately unblocks expressions that previously failed
// validation for calling it.
func (e *Engine) Compile(source string) (*CompiledExpression, error) {
	if e.cache != nil {
		if compiled, ok := e.cache.Get(source); ok {
			return compiled, nil
		}
	}

	root, err := expr.Parse(source)
	if err != nil {
		return nil, err
	}
	if e.cfg.EnableSandbox {
		if err := e.validator.Validate(root); err != nil {
			return nil, err
		}
	}

	compiled := &CompiledExpression{
		Source: source,
		Root:   root,
		ID:     nextID.Add(1),
		engine: e,
	}
	if e.cache != nil {
		e.cache.Put(source, compiled)
	}
	return compiled, nil
}

// Evaluate compiles (or fetches from cache) and evaluates an expression
// against a context. The context must be a map value or Null.
func (e *Engine) Evaluate(source string, ctx types.Value) (types.Value, error) {
	compiled, err := e.Compile(source)
	if err != nil {
		return types.Null, err
	}
	return compiled.Evaluate(ctx)
}

// Evaluate runs the compiled expression against a context.
func (c *CompiledExpression) Evaluate(ctx types.Value) (types.Value, error) {
	scope := &evalScope{engine: c.engine, ctx: ctx}
	limits := expr.Limits{
		MaxDepth:        c.engine.cfg.MaxRecursionDepth,
		MaxStringLength: c.engine.cfg.MaxStringLength,
		Budget:          c.engine.cfg.MaxExecutionTime,
	}
	return expr.EvaluateWithLimits(c.Root, scope, limits)
}

// Variables returns the variable names the compiled expression reads, in
// first-use order without duplicates. Dotted call targets count as
// function references, not variables.
func (c *CompiledExpression) Variables() []string {
	var names []string
	seen := make(map[string]bool)
	walkNames(c.Root, func(n expr.Node) {
		if ident, ok := n.(*expr.IdentNode); ok && !seen[ident.Name] {
			seen[ident.Name] = true
			names = append(names, ident.Name)
		}
	})
	return names
}

// Functions returns the function names the compiled expression calls, in
// first-use order without duplicates.
func (c *CompiledExpression) Functions() []string {
	var names []string
	seen := make(map[string]bool)
	walkNames(c.Root, func(n expr.Node) {
		if call, ok := n.(*expr.CallNode); ok && !seen[call.Name] {
			seen[call.Name] = true
			names = append(names, call.Name)
		}
	})
	return names
}

func walkNames(node expr.Node, visit func(expr.Node)) {
	visit(node)
	for _, child := range expr.Children(node) {
		walkNames(child, visit)
	}
}

// Variables compiles an expression and reports the variables it reads.
// Useful for checking a context has everything an expression needs before
// evaluating it.
func (e *Engine) Variables(source string) ([]string, error) {
	compiled, err := e.Compile(source)
	if err != nil {
		return nil, err
	}
	return compiled.Variables(), nil
}

// RegisterFunction adds a caller-provided function to the engine. The name
// becomes callable from expressions immediately.
func (e *Engine) RegisterFunction(name string, fn stdlib.Function, info stdlib.Info) {
	e.registry.Register(name, fn, info)
}

// UnregisterFunction removes a function from the engine.
func (e *Engine) UnregisterFunction(name string) {
	e.registry.Unregister(name)
}

// Functions returns metadata for every registered function.
func (e *Engine) Functions() []stdlib.Info {
	return e.registry.List()
}

// CheckExpression parses an expression and returns every sandbox violation
// found. A parse failure reports as a single violation. An empty result
// means the expression is safe.
func (e *Engine) CheckExpression(source string) []string {
	root, err := expr.Parse(source)
	if err != nil {
		return []string{err.Error()}
	}
	return e.validator.Check(root)
}

// IsSafe reports whether an expression parses and passes validation.
func (e *Engine) IsSafe(source string) bool {
	return len(e.CheckExpression(source)) == 0
}

// ValidateExpression returns the parse or security error a submission
// would fail with, or nil for a clean expression. Unlike Compile it never
// touches the cache.
func (e *Engine) ValidateExpression(source string) error {
	root, err := expr.Parse(source)
	if err != nil {
		return err
	}
	return e.validator.Validate(root)
}

// CacheStats returns cache counters. A disabled cache reports zero for
// every field.
func (e *Engine) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}

// ClearCache drops every cached compiled expression.
func (e *Engine) ClearCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

// evalScope resolves variables from the evaluation context and dispatches
// function calls to the registry. The math constants pi, e, inf, and nan
// are available unless the context shadows them.
type evalScope struct {
	engine *Engine
	ctx    types.Value
}

func (s *evalScope) GetVariable(name string) (types.Value, error) {
	if s.ctx.Type() == types.TypeMap {
		if v, ok := s.ctx.AsMap().Get(name); ok {
			return v, nil
		}
	}
	switch name {
	case "pi":
		return types.NewDouble(math.Pi), nil
	case "e":
		return types.NewDouble(math.E), nil
	case "inf":
		return types.NewDouble(math.Inf(1)), nil
	case "nan":
		return types.NewDouble(math.NaN()), nil
	}
	return types.Null, types.NewUndefinedVariableError(name)
}

func (s *evalScope) CallFunction(name string, args []types.Value) (types.Value, error) {
	return s.engine.registry.Call(name, args)
}
