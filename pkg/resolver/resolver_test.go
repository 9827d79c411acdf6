package resolver

import (
	"testing"

	"github.com/quickdata/qexpr/pkg/types"
)

// testContext builds {"user": {"name": "ada", "tags": ["x", "y"]}, "items": [{"price": 5}]}
func testContext() types.Value {
	user := types.NewOrderedMap()
	user.Set("name", types.NewString("ada"))
	user.Set("tags", types.NewList([]types.Value{
		types.NewString("x"), types.NewString("y"),
	}))

	item := types.NewOrderedMap()
	item.Set("price", types.NewInt(5))

	root := types.NewOrderedMap()
	root.Set("user", types.NewMap(user))
	root.Set("items", types.NewList([]types.Value{types.NewMap(item)}))
	return types.NewMap(root)
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		path string
		want []Segment
	}{
		{"a", []Segment{{Key: "a"}}},
		{"a.b.c", []Segment{{Key: "a"}, {Key: "b"}, {Key: "c"}}},
		{"items[0]", []Segment{{Key: "items"}, {Index: 0, IsIndex: true}}},
		{"items[-1]", []Segment{{Key: "items"}, {Index: -1, IsIndex: true}}},
		{"a[0].b", []Segment{{Key: "a"}, {Index: 0, IsIndex: true}, {Key: "b"}}},
		{"m['dotted.key']", []Segment{{Key: "m"}, {Key: "dotted.key"}}},
		{`m["quoted"]`, []Segment{{Key: "m"}, {Key: "quoted"}}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ParsePath(tt.path)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d segments, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("segment %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParsePathErrors(t *testing.T) {
	tests := []string{
		".a",
		"a.",
		"a..b",
		"a[",
		"a[]",
		"a[x]",
		"a['unterminated]",
	}

	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			if _, err := ParsePath(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBuildPathRoundTrip(t *testing.T) {
	paths := []string{
		"a.b.c",
		"items[0].price",
		"a[2][3]",
		"m['dotted.key'].x",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			segs, err := ParsePath(path)
			if err != nil {
				t.Fatal(err)
			}
			rebuilt := BuildPath(segs)
			segs2, err := ParsePath(rebuilt)
			if err != nil {
				t.Fatalf("rebuilt path %q does not reparse: %v", rebuilt, err)
			}
			if len(segs) != len(segs2) {
				t.Fatalf("reparse changed segment count: %v vs %v", segs, segs2)
			}
			for i := range segs {
				if segs[i] != segs2[i] {
					t.Errorf("segment %d changed: %+v vs %+v", i, segs[i], segs2[i])
				}
			}
		})
	}
}

func TestResolve(t *testing.T) {
	ctx := testContext()

	tests := []struct {
		path string
		want types.Value
	}{
		{"user.name", types.NewString("ada")},
		{"user.tags[1]", types.NewString("y")},
		{"user.tags[-1]", types.NewString("y")},
		{"items[0].price", types.NewInt(5)},
		{"", ctx},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := Resolve(ctx, tt.path, types.Null)
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveMissReturnsDefault(t *testing.T) {
	ctx := testContext()
	def := types.NewString("fallback")

	tests := []string{
		"missing",
		"user.missing",
		"a.b.c",
		"user.tags[9]",
		"items[0].missing",
		"user.name.too_deep", // descend through a scalar
		// Malformed paths behave exactly like absent ones.
		"a..b",
		".a",
		"a.",
		"a[",
		"a[]",
		"a[x]",
		"a['unterminated]",
	}

	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			got := Resolve(ctx, path, def)
			if !got.Equal(def) {
				t.Errorf("got %v, want default", got)
			}
		})
	}
}

func TestHas(t *testing.T) {
	ctx := testContext()

	if !Has(ctx, "user.name") {
		t.Error("user.name should exist")
	}
	if Has(ctx, "user.missing") {
		t.Error("user.missing should not exist")
	}
	if !Has(ctx, "items[0].price") {
		t.Error("items[0].price should exist")
	}
	// Malformed paths report false, never an error.
	for _, path := range []string{"a..b", ".a", "a[", "a[]", "a['x]"} {
		if Has(ctx, path) {
			t.Errorf("Has(%q) = true, want false", path)
		}
	}
}

func TestSetDoesNotMutateInput(t *testing.T) {
	ctx := testContext()

	updated, err := Set(ctx, "user.name", types.NewString("bob"))
	if err != nil {
		t.Fatal(err)
	}

	if orig := Resolve(ctx, "user.name", types.Null); !orig.Equal(types.NewString("ada")) {
		t.Error("Set mutated the input context")
	}
	if got := Resolve(updated, "user.name", types.Null); !got.Equal(types.NewString("bob")) {
		t.Errorf("updated context has %v, want bob", got)
	}
}

func TestSetCreatesIntermediateMaps(t *testing.T) {
	ctx := types.NewMap(types.NewOrderedMap())

	updated, err := Set(ctx, "a.b.c", types.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	if got := Resolve(updated, "a.b.c", types.Null); !got.Equal(types.NewInt(1)) {
		t.Errorf("got %v, want 1", got)
	}
}

func TestSetListElement(t *testing.T) {
	ctx := testContext()

	updated, err := Set(ctx, "user.tags[0]", types.NewString("z"))
	if err != nil {
		t.Fatal(err)
	}
	if got := Resolve(updated, "user.tags[0]", types.Null); !got.Equal(types.NewString("z")) {
		t.Errorf("got %v, want z", got)
	}

	// One past the end appends.
	updated, err = Set(ctx, "user.tags[2]", types.NewString("w"))
	if err != nil {
		t.Fatal(err)
	}
	if got := Resolve(updated, "user.tags[2]", types.Null); !got.Equal(types.NewString("w")) {
		t.Errorf("got %v, want w", got)
	}

	// Further past the end is an error.
	if _, err := Set(ctx, "user.tags[9]", types.NewString("nope")); err == nil {
		t.Error("expected an index error")
	}
}

func TestDelete(t *testing.T) {
	ctx := testContext()

	updated, err := Delete(ctx, "user.name")
	if err != nil {
		t.Fatal(err)
	}
	if Has(updated, "user.name") {
		t.Error("deleted key still present")
	}
	if !Has(ctx, "user.name") {
		t.Error("Delete mutated the input context")
	}

	// Missing path is a no-op.
	if _, err := Delete(ctx, "no.such.path"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMerge(t *testing.T) {
	base := testContext()

	overlayUser := types.NewOrderedMap()
	overlayUser.Set("name", types.NewString("bob"))
	overlayUser.Set("role", types.NewString("admin"))
	overlay := types.NewOrderedMap()
	overlay.Set("user", types.NewMap(overlayUser))
	overlay.Set("extra", types.NewInt(1))

	merged := Merge(base, types.NewMap(overlay))

	if got := Resolve(merged, "user.name", types.Null); !got.Equal(types.NewString("bob")) {
		t.Errorf("user.name = %v, want bob", got)
	}
	if got := Resolve(merged, "user.role", types.Null); !got.Equal(types.NewString("admin")) {
		t.Errorf("user.role = %v, want admin", got)
	}
	// Keys only in base survive.
	if !Has(merged, "user.tags") {
		t.Error("merge dropped base-only key user.tags")
	}
	if got := Resolve(merged, "extra", types.Null); !got.Equal(types.NewInt(1)) {
		t.Errorf("extra = %v, want 1", got)
	}
}

func TestFlattenUnflattenInverse(t *testing.T) {
	ctx := testContext()

	flat := Flatten(ctx)
	back, err := Unflatten(flat)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(ctx) {
		t.Errorf("round trip changed context:\n got %v\nwant %v", back, ctx)
	}
}

func TestFlattenKeys(t *testing.T) {
	ctx := testContext()
	flat := Flatten(ctx)

	for _, want := range []string{"user.name", "user.tags[0]", "user.tags[1]", "items[0].price"} {
		if _, ok := flat.Get(want); !ok {
			t.Errorf("flatten missing key %q (have %v)", want, flat.Keys())
		}
	}
}

func TestFlattenEmptyContainers(t *testing.T) {
	root := types.NewOrderedMap()
	root.Set("empty_map", types.NewMap(types.NewOrderedMap()))
	root.Set("empty_list", types.NewList(nil))
	ctx := types.NewMap(root)

	flat := Flatten(ctx)
	if v, ok := flat.Get("empty_map"); !ok || v.Type() != types.TypeMap {
		t.Error("empty map not preserved as itself")
	}
	if v, ok := flat.Get("empty_list"); !ok || v.Type() != types.TypeList {
		t.Error("empty list not preserved as itself")
	}

	back, err := Unflatten(flat)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(ctx) {
		t.Errorf("round trip with empty containers changed context: %v", back)
	}
}
