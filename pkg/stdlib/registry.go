// Package stdlib implements the built-in function library and the
// registry that hosts it alongside caller-registered functions.
package stdlib

import (
	"sort"
	"sync"

	"github.com/quickdata/qexpr/pkg/types"
)

// Function is a callable registered in the registry. It receives
// already-evaluated argument values and returns a value or an error.
type Function func(args []types.Value) (types.Value, error)

// Info describes a registered function for introspection. It has no
// effect on dispatch.
type Info struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Registry holds named functions. Lookup is case-sensitive and
// registration is last-write-wins. All methods are safe for concurrent
// use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Function
	infos map[string]Info
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]Function),
		infos: make(map[string]Info),
	}
}

// NewDefaultRegistry creates a registry preloaded with every builtin.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	registerMath(r)
	registerText(r)
	registerList(r)
	registerLogic(r)
	registerDatetime(r)
	registerMisc(r)
	return r
}

// Register adds or replaces a function.
func (r *Registry) Register(name string, fn Function, info Info) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info.Name = name
	r.funcs[name] = fn
	r.infos[name] = info
}

// Unregister removes a function. Removing an unknown name is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.funcs, name)
	delete(r.infos, name)
}

// Has reports whether a function is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[name]
	return ok
}

// Call invokes a registered function. An unknown name is an
// UndefinedFunction error.
func (r *Registry) Call(name string, args []types.Value) (types.Value, error) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()
	if !ok {
		return types.Null, types.NewUndefinedFunctionError(name)
	}
	return fn(args)
}

// List returns info for every registered function, sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.infos))
	for _, info := range r.infos {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// requireArgs checks an exact argument count.
func requireArgs(name string, args []types.Value, n int) error {
	if len(args) != n {
		return types.NewTypeMismatchError("%s() expects %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

// requireArgRange checks an argument count within [min, max].
func requireArgRange(name string, args []types.Value, min, max int) error {
	if len(args) < min || len(args) > max {
		return types.NewTypeMismatchError("%s() expects %d to %d arguments, got %d", name, min, max, len(args))
	}
	return nil
}

// argNumber extracts a numeric argument as float64.
func argNumber(name string, args []types.Value, i int) (float64, error) {
	n, ok := args[i].AsNumber()
	if !ok {
		return 0, types.NewTypeMismatchError(
			"%s() argument %d must be a number, got %s", name, i+1, args[i].Type())
	}
	return n, nil
}

// argString extracts a string argument.
func argString(name string, args []types.Value, i int) (string, error) {
	if args[i].Type() != types.TypeString {
		return "", types.NewTypeMismatchError(
			"%s() argument %d must be a string, got %s", name, i+1, args[i].Type())
	}
	return args[i].AsString(), nil
}

// argList extracts a list argument.
func argList(name string, args []types.Value, i int) ([]types.Value, error) {
	if args[i].Type() != types.TypeList {
		return nil, types.NewTypeMismatchError(
			"%s() argument %d must be a list, got %s", name, i+1, args[i].Type())
	}
	return args[i].AsList(), nil
}

// argInt extracts an integer argument.
func argInt(name string, args []types.Value, i int) (int64, error) {
	if args[i].Type() != types.TypeInt {
		return 0, types.NewTypeMismatchError(
			"%s() argument %d must be an integer, got %s", name, i+1, args[i].Type())
	}
	return args[i].AsInt(), nil
}
