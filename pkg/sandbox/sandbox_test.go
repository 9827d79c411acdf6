package sandbox

import (
	"errors"
	"strings"
	"testing"

	"github.com/quickdata/qexpr/pkg/expr"
	"github.com/quickdata/qexpr/pkg/types"
)

// testRegistry knows a fixed set of function names.
type testRegistry struct {
	names map[string]bool
}

func (r *testRegistry) Has(name string) bool {
	return r.names[name]
}

func newTestRegistry(names ...string) *testRegistry {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return &testRegistry{names: m}
}

func mustParse(t *testing.T, input string) expr.Node {
	t.Helper()
	node, err := expr.Parse(input)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return node
}

func TestBlockedNamesRejected(t *testing.T) {
	v := NewValidator(DefaultConfig(), newTestRegistry("abs"))

	tests := []string{
		`eval("hack")`,
		`exec("rm -rf /")`,
		"__import__('os')",
		`open("/etc/passwd")`,
		"getattr(x, 'y')",
		"globals()",
		"os",
		"sys",
		"subprocess",
		"x + eval",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			violations := v.Check(mustParse(t, input))
			if len(violations) == 0 {
				t.Error("expected at least one violation")
			}
		})
	}
}

func TestPrivateNamesRejected(t *testing.T) {
	v := NewValidator(DefaultConfig(), newTestRegistry())

	tests := []string{
		"__secret",
		"obj.__class__",
		"__dict__",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			violations := v.Check(mustParse(t, input))
			if len(violations) == 0 {
				t.Error("expected at least one violation")
			}
		})
	}
}

func TestUnknownFunctionRejected(t *testing.T) {
	v := NewValidator(DefaultConfig(), newTestRegistry("abs"))

	violations := v.Check(mustParse(t, "abs(-1)"))
	if len(violations) != 0 {
		t.Errorf("registered function rejected: %v", violations)
	}

	violations = v.Check(mustParse(t, "mystery(1)"))
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1: %v", len(violations), violations)
	}
	if !strings.Contains(violations[0], "mystery") {
		t.Errorf("violation should name the function: %q", violations[0])
	}
}

func TestAllViolationsCollected(t *testing.T) {
	v := NewValidator(DefaultConfig(), newTestRegistry())

	// Three independent problems in one expression.
	violations := v.Check(mustParse(t, "os + __x + mystery(1)"))
	if len(violations) != 3 {
		t.Fatalf("got %d violations, want 3: %v", len(violations), violations)
	}
	// Visit order is left to right.
	if !strings.Contains(violations[0], "os") {
		t.Errorf("first violation = %q, want the blocked name", violations[0])
	}
	if !strings.Contains(violations[1], "__x") {
		t.Errorf("second violation = %q, want the private name", violations[1])
	}
	if !strings.Contains(violations[2], "mystery") {
		t.Errorf("third violation = %q, want the unknown function", violations[2])
	}
}

func TestSafeExpressionsPass(t *testing.T) {
	v := NewValidator(DefaultConfig(), newTestRegistry("abs", "len"))

	tests := []string{
		"1 + 2 * 3",
		"price * quantity",
		"user.name == 'admin'",
		"abs(-5) + len(items)",
		"a ? b : c",
		"[1, 2, 3][0]",
		`{"k": v}`,
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			if violations := v.Check(mustParse(t, input)); len(violations) != 0 {
				t.Errorf("unexpected violations: %v", violations)
			}
		})
	}
}

func TestCustomBlockedNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlockedNames = []string{"secret_var"}
	v := NewValidator(cfg, newTestRegistry())

	if violations := v.Check(mustParse(t, "secret_var")); len(violations) == 0 {
		t.Error("configured blocked name not rejected")
	}
}

func TestAllowedImportsCannotUnblockMinimalSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlockedNames = []string{"custom_blocked"}
	cfg.AllowedImports = []string{"custom_blocked", "eval"}
	v := NewValidator(cfg, newTestRegistry())

	// The configured name is re-admitted.
	if violations := v.Check(mustParse(t, "custom_blocked")); len(violations) != 0 {
		t.Errorf("allowed import still blocked: %v", violations)
	}
	// The minimal set is not.
	if violations := v.Check(mustParse(t, "eval")); len(violations) == 0 {
		t.Error("minimal block set must not be overridable")
	}
}

func TestDepthLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRecursionDepth = 5
	v := NewValidator(cfg, newTestRegistry())

	if violations := v.Check(mustParse(t, "((((((((1))))))))")); len(violations) != 0 {
		// Parens collapse during parsing; this tree is shallow.
		t.Errorf("unexpected violations: %v", violations)
	}
	if violations := v.Check(mustParse(t, "a.b.c.d.e.f.g.h")); len(violations) == 0 {
		t.Error("deep tree should exceed the depth limit")
	}
}

func TestStringLiteralLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxStringLength = 8
	v := NewValidator(cfg, newTestRegistry())

	if violations := v.Check(mustParse(t, `"short"`)); len(violations) != 0 {
		t.Errorf("unexpected violations: %v", violations)
	}
	if violations := v.Check(mustParse(t, `"much too long"`)); len(violations) == 0 {
		t.Error("oversized string literal not rejected")
	}
}

func TestValidateReturnsSecurityError(t *testing.T) {
	v := NewValidator(DefaultConfig(), newTestRegistry())

	err := v.Validate(mustParse(t, `eval("x")`))
	if !types.IsKind(err, types.KindSecurity) {
		t.Fatalf("error = %v, want a security error", err)
	}
	var se *types.Error
	if !errors.As(err, &se) || len(se.Violations) == 0 {
		t.Error("security error should carry its violations")
	}

	if err := v.Validate(mustParse(t, "1 + 1")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
