package stdlib

import (
	"regexp"
	"testing"

	"github.com/quickdata/qexpr/pkg/types"
)

func call(t *testing.T, r *Registry, name string, args ...types.Value) types.Value {
	t.Helper()
	got, err := r.Call(name, args)
	if err != nil {
		t.Fatalf("%s() error: %v", name, err)
	}
	return got
}

func list(vals ...types.Value) types.Value {
	return types.NewList(vals)
}

func ints(ns ...int64) types.Value {
	out := make([]types.Value, len(ns))
	for i, n := range ns {
		out[i] = types.NewInt(n)
	}
	return types.NewList(out)
}

func TestMathBuiltins(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		name string
		args []types.Value
		want types.Value
	}{
		{"abs", []types.Value{types.NewInt(-5)}, types.NewInt(5)},
		{"abs", []types.Value{types.NewDouble(-2.5)}, types.NewDouble(2.5)},
		{"round", []types.Value{types.NewDouble(2.6)}, types.NewInt(3)},
		{"round", []types.Value{types.NewDouble(3.14159), types.NewInt(2)}, types.NewDouble(3.14)},
		{"floor", []types.Value{types.NewDouble(2.9)}, types.NewInt(2)},
		{"ceil", []types.Value{types.NewDouble(2.1)}, types.NewInt(3)},
		{"sqrt", []types.Value{types.NewInt(16)}, types.NewDouble(4)},
		{"pow", []types.Value{types.NewInt(2), types.NewInt(10)}, types.NewDouble(1024)},
		{"min", []types.Value{types.NewInt(3), types.NewInt(1), types.NewInt(2)}, types.NewInt(1)},
		{"min", []types.Value{ints(3, 1, 2)}, types.NewInt(1)},
		{"max", []types.Value{ints(3, 1, 2)}, types.NewInt(3)},
		{"sum", []types.Value{ints(1, 2, 3)}, types.NewInt(6)},
		{"sum", []types.Value{list(types.NewInt(1), types.NewDouble(0.5))}, types.NewDouble(1.5)},
		{"avg", []types.Value{ints(1, 2, 3)}, types.NewDouble(2)},
		{"mod", []types.Value{types.NewInt(10), types.NewInt(3)}, types.NewInt(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := call(t, r, tt.name, tt.args...)
			if !got.Equal(tt.want) {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestMathErrors(t *testing.T) {
	r := NewDefaultRegistry()

	if _, err := r.Call("sqrt", []types.Value{types.NewInt(-1)}); !types.IsKind(err, types.KindValue) {
		t.Errorf("sqrt(-1) error = %v, want value error", err)
	}
	if _, err := r.Call("mod", []types.Value{types.NewInt(1), types.NewInt(0)}); !types.IsKind(err, types.KindDivisionByZero) {
		t.Errorf("mod(1, 0) error = %v, want division by zero", err)
	}
	if _, err := r.Call("abs", nil); !types.IsKind(err, types.KindTypeMismatch) {
		t.Errorf("abs() error = %v, want arity error", err)
	}
	if _, err := r.Call("avg", []types.Value{ints()}); !types.IsKind(err, types.KindValue) {
		t.Errorf("avg([]) error = %v, want value error", err)
	}
	if _, err := r.Call("abs", []types.Value{types.NewString("x")}); !types.IsKind(err, types.KindTypeMismatch) {
		t.Errorf("abs(\"x\") error = %v, want type mismatch", err)
	}
}

func TestStringBuiltins(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		name string
		args []types.Value
		want types.Value
	}{
		{"upper", []types.Value{types.NewString("abc")}, types.NewString("ABC")},
		{"lower", []types.Value{types.NewString("ABC")}, types.NewString("abc")},
		{"trim", []types.Value{types.NewString("  x  ")}, types.NewString("x")},
		{"len", []types.Value{types.NewString("abcd")}, types.NewInt(4)},
		{"len", []types.Value{ints(1, 2)}, types.NewInt(2)},
		{"concat", []types.Value{types.NewString("a"), types.NewInt(1), types.NewBool(true)}, types.NewString("a1true")},
		{"str", []types.Value{types.NewInt(42)}, types.NewString("42")},
		{"str", []types.Value{types.NewDouble(2)}, types.NewString("2.0")},
		{"substring", []types.Value{types.NewString("hello"), types.NewInt(1), types.NewInt(3)}, types.NewString("el")},
		{"substring", []types.Value{types.NewString("hello"), types.NewInt(-3)}, types.NewString("llo")},
		{"replace", []types.Value{types.NewString("a-b-c"), types.NewString("-"), types.NewString("+")}, types.NewString("a+b+c")},
		{"split", []types.Value{types.NewString("a,b"), types.NewString(",")}, list(types.NewString("a"), types.NewString("b"))},
		{"join", []types.Value{list(types.NewString("a"), types.NewString("b")), types.NewString("-")}, types.NewString("a-b")},
		{"contains", []types.Value{types.NewString("hello"), types.NewString("ell")}, types.NewBool(true)},
		{"starts_with", []types.Value{types.NewString("hello"), types.NewString("he")}, types.NewBool(true)},
		{"ends_with", []types.Value{types.NewString("hello"), types.NewString("lo")}, types.NewBool(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := call(t, r, tt.name, tt.args...)
			if !got.Equal(tt.want) {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestListBuiltins(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		name string
		args []types.Value
		want types.Value
	}{
		{"first", []types.Value{ints(1, 2, 3)}, types.NewInt(1)},
		{"first", []types.Value{ints()}, types.Null},
		{"last", []types.Value{ints(1, 2, 3)}, types.NewInt(3)},
		{"count", []types.Value{ints(1, 2, 3)}, types.NewInt(3)},
		{"reverse", []types.Value{ints(1, 2, 3)}, ints(3, 2, 1)},
		{"sort", []types.Value{ints(3, 1, 2)}, ints(1, 2, 3)},
		{"unique", []types.Value{ints(1, 2, 1, 3, 2)}, ints(1, 2, 3)},
		{"range_list", []types.Value{types.NewInt(3)}, ints(0, 1, 2)},
		{"range_list", []types.Value{types.NewInt(2), types.NewInt(5)}, ints(2, 3, 4)},
		{"flatten_list", []types.Value{list(ints(1, 2), types.NewInt(3))}, ints(1, 2, 3)},
		{"append_list", []types.Value{ints(1, 2), types.NewInt(3)}, ints(1, 2, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := call(t, r, tt.name, tt.args...)
			if !got.Equal(tt.want) {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestSortStrings(t *testing.T) {
	r := NewDefaultRegistry()
	got := call(t, r, "sort", list(types.NewString("b"), types.NewString("a")))
	want := list(types.NewString("a"), types.NewString("b"))
	if !got.Equal(want) {
		t.Errorf("sort = %v, want %v", got, want)
	}

	if _, err := r.Call("sort", []types.Value{list(types.NewString("a"), types.NewInt(1))}); err == nil {
		t.Error("mixed-type sort should fail")
	}
}

func TestLogicBuiltins(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		name string
		args []types.Value
		want types.Value
	}{
		{"if_else", []types.Value{types.NewBool(true), types.NewInt(1), types.NewInt(2)}, types.NewInt(1)},
		{"if_else", []types.Value{types.NewInt(0), types.NewInt(1), types.NewInt(2)}, types.NewInt(2)},
		{"coalesce", []types.Value{types.Null, types.Null, types.NewInt(3)}, types.NewInt(3)},
		{"coalesce", []types.Value{types.Null}, types.Null},
		{"default", []types.Value{types.Null, types.NewInt(9)}, types.NewInt(9)},
		{"default", []types.Value{types.NewInt(1), types.NewInt(9)}, types.NewInt(1)},
		{"is_null", []types.Value{types.Null}, types.NewBool(true)},
		{"is_null", []types.Value{types.NewInt(0)}, types.NewBool(false)},
		{"is_empty", []types.Value{types.NewString("")}, types.NewBool(true)},
		{"is_empty", []types.Value{ints(1)}, types.NewBool(false)},
		{"bool", []types.Value{types.NewString("x")}, types.NewBool(true)},
		{"not_fn", []types.Value{types.NewInt(0)}, types.NewBool(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := call(t, r, tt.name, tt.args...)
			if !got.Equal(tt.want) {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestDatetimeBuiltins(t *testing.T) {
	r := NewDefaultRegistry()

	if got := call(t, r, "date_format", types.NewString("2024-03-15T10:30:00Z"), types.NewString("%Y/%m/%d")); !got.Equal(types.NewString("2024/03/15")) {
		t.Errorf("date_format = %v", got)
	}
	if got := call(t, r, "date_parse", types.NewString("2024-03-15")); !got.Equal(types.NewString("2024-03-15T00:00:00Z")) {
		t.Errorf("date_parse = %v", got)
	}
	if got := call(t, r, "date_add", types.NewString("2024-03-15"), types.NewInt(17)); !got.Equal(types.NewString("2024-04-01T00:00:00Z")) {
		t.Errorf("date_add = %v", got)
	}
	if got := call(t, r, "date_diff", types.NewString("2024-03-15"), types.NewString("2024-03-10")); !got.Equal(types.NewInt(5)) {
		t.Errorf("date_diff = %v", got)
	}
	if got := call(t, r, "year", types.NewString("2024-03-15")); !got.Equal(types.NewInt(2024)) {
		t.Errorf("year = %v", got)
	}
	if got := call(t, r, "month", types.NewString("2024-03-15")); !got.Equal(types.NewInt(3)) {
		t.Errorf("month = %v", got)
	}
	if got := call(t, r, "day", types.NewString("2024-03-15")); !got.Equal(types.NewInt(15)) {
		t.Errorf("day = %v", got)
	}
	if _, err := r.Call("date_parse", []types.Value{types.NewString("not a date")}); !types.IsKind(err, types.KindValue) {
		t.Errorf("date_parse error = %v, want value error", err)
	}
}

func TestMiscBuiltins(t *testing.T) {
	r := NewDefaultRegistry()

	uuidRe := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	got := call(t, r, "uuid")
	if !uuidRe.MatchString(got.AsString()) {
		t.Errorf("uuid() = %q, not a v4 UUID", got.AsString())
	}
	if a, b := call(t, r, "uuid"), call(t, r, "uuid"); a.Equal(b) {
		t.Error("uuid() returned the same value twice")
	}

	if got := call(t, r, "type_of", types.NewInt(1)); !got.Equal(types.NewString("int")) {
		t.Errorf("type_of = %v", got)
	}
	if got := call(t, r, "int", types.NewString("42")); !got.Equal(types.NewInt(42)) {
		t.Errorf("int = %v", got)
	}
	if got := call(t, r, "int", types.NewDouble(3.9)); !got.Equal(types.NewInt(3)) {
		t.Errorf("int truncation = %v", got)
	}
	if got := call(t, r, "float", types.NewInt(2)); !got.Equal(types.NewDouble(2)) {
		t.Errorf("float = %v", got)
	}
}

func TestRegistryBasics(t *testing.T) {
	r := NewRegistry()

	if r.Has("custom") {
		t.Error("empty registry should have nothing")
	}

	r.Register("custom", func(args []types.Value) (types.Value, error) {
		return types.NewInt(1), nil
	}, Info{Category: "test", Description: "first"})
	if !r.Has("custom") {
		t.Error("registered function not found")
	}

	// Last write wins.
	r.Register("custom", func(args []types.Value) (types.Value, error) {
		return types.NewInt(2), nil
	}, Info{Category: "test", Description: "second"})
	got, err := r.Call("custom", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(types.NewInt(2)) {
		t.Errorf("got %v, want the replacement", got)
	}

	// Lookup is case-sensitive.
	if r.Has("Custom") {
		t.Error("lookup should be case-sensitive")
	}

	if _, err := r.Call("nope", nil); !types.IsKind(err, types.KindUndefinedFunction) {
		t.Errorf("error = %v, want undefined function", err)
	}

	r.Unregister("custom")
	if r.Has("custom") {
		t.Error("unregistered function still present")
	}
}

func TestListSorted(t *testing.T) {
	r := NewDefaultRegistry()
	infos := r.List()
	if len(infos) == 0 {
		t.Fatal("default registry should not be empty")
	}
	for i := 1; i < len(infos); i++ {
		if infos[i-1].Name > infos[i].Name {
			t.Fatalf("List() not sorted: %s before %s", infos[i-1].Name, infos[i].Name)
		}
	}
}
