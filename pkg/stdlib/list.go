package stdlib

import (
	"sort"

	"github.com/quickdata/qexpr/pkg/types"
)

func registerList(r *Registry) {
	r.Register("first", listFirst, Info{Category: "list", Description: "First element of a list"})
	r.Register("last", listLast, Info{Category: "list", Description: "Last element of a list"})
	r.Register("count", listCount, Info{Category: "list", Description: "Number of elements in a list"})
	r.Register("reverse", listReverse, Info{Category: "list", Description: "List with elements in reverse order"})
	r.Register("sort", listSort, Info{Category: "list", Description: "List sorted ascending (numbers or strings)"})
	r.Register("unique", listUnique, Info{Category: "list", Description: "List with duplicates removed, first occurrence kept"})
	r.Register("range_list", listRange, Info{Category: "list", Description: "List of integers from start (inclusive) to end (exclusive)"})
	r.Register("flatten_list", listFlatten, Info{Category: "list", Description: "Flatten one level of nested lists"})
	r.Register("append_list", listAppend, Info{Category: "list", Description: "List with a value appended"})
}

func listFirst(args []types.Value) (types.Value, error) {
	if err := requireArgs("first", args, 1); err != nil {
		return types.Null, err
	}
	items, err := argList("first", args, 0)
	if err != nil {
		return types.Null, err
	}
	if len(items) == 0 {
		return types.Null, nil
	}
	return items[0], nil
}

func listLast(args []types.Value) (types.Value, error) {
	if err := requireArgs("last", args, 1); err != nil {
		return types.Null, err
	}
	items, err := argList("last", args, 0)
	if err != nil {
		return types.Null, err
	}
	if len(items) == 0 {
		return types.Null, nil
	}
	return items[len(items)-1], nil
}

func listCount(args []types.Value) (types.Value, error) {
	if err := requireArgs("count", args, 1); err != nil {
		return types.Null, err
	}
	items, err := argList("count", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.NewInt(int64(len(items))), nil
}

func listReverse(args []types.Value) (types.Value, error) {
	if err := requireArgs("reverse", args, 1); err != nil {
		return types.Null, err
	}
	items, err := argList("reverse", args, 0)
	if err != nil {
		return types.Null, err
	}
	out := make([]types.Value, len(items))
	for i, v := range items {
		out[len(items)-1-i] = v
	}
	return types.NewList(out), nil
}

func listSort(args []types.Value) (types.Value, error) {
	if err := requireArgs("sort", args, 1); err != nil {
		return types.Null, err
	}
	items, err := argList("sort", args, 0)
	if err != nil {
		return types.Null, err
	}
	if len(items) == 0 {
		return types.NewList(nil), nil
	}

	out := make([]types.Value, len(items))
	copy(out, items)

	if out[0].Type() == types.TypeString {
		for i, v := range out {
			if v.Type() != types.TypeString {
				return types.Null, types.NewTypeMismatchError(
					"sort() requires uniform element types, element %d is %s", i, v.Type())
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].AsString() < out[j].AsString()
		})
		return types.NewList(out), nil
	}

	for i, v := range out {
		if _, ok := v.AsNumber(); !ok {
			return types.Null, types.NewTypeMismatchError(
				"sort() element %d must be a number or string, got %s", i, v.Type())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].AsNumber()
		b, _ := out[j].AsNumber()
		return a < b
	})
	return types.NewList(out), nil
}

func listUnique(args []types.Value) (types.Value, error) {
	if err := requireArgs("unique", args, 1); err != nil {
		return types.Null, err
	}
	items, err := argList("unique", args, 0)
	if err != nil {
		return types.Null, err
	}
	var out []types.Value
	for _, v := range items {
		dup := false
		for _, seen := range out {
			if v.Equal(seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return types.NewList(out), nil
}

func listRange(args []types.Value) (types.Value, error) {
	if err := requireArgRange("range_list", args, 1, 2); err != nil {
		return types.Null, err
	}
	var start, end int64
	var err error
	if len(args) == 1 {
		end, err = argInt("range_list", args, 0)
		if err != nil {
			return types.Null, err
		}
	} else {
		start, err = argInt("range_list", args, 0)
		if err != nil {
			return types.Null, err
		}
		end, err = argInt("range_list", args, 1)
		if err != nil {
			return types.Null, err
		}
	}
	if end < start {
		return types.NewList(nil), nil
	}
	const maxRange = 1_000_000
	if end-start > maxRange {
		return types.Null, types.NewValueError("range_list() size %d exceeds limit %d", end-start, maxRange)
	}
	out := make([]types.Value, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, types.NewInt(i))
	}
	return types.NewList(out), nil
}

func listFlatten(args []types.Value) (types.Value, error) {
	if err := requireArgs("flatten_list", args, 1); err != nil {
		return types.Null, err
	}
	items, err := argList("flatten_list", args, 0)
	if err != nil {
		return types.Null, err
	}
	var out []types.Value
	for _, v := range items {
		if v.Type() == types.TypeList {
			out = append(out, v.AsList()...)
		} else {
			out = append(out, v)
		}
	}
	return types.NewList(out), nil
}

func listAppend(args []types.Value) (types.Value, error) {
	if err := requireArgs("append_list", args, 2); err != nil {
		return types.Null, err
	}
	items, err := argList("append_list", args, 0)
	if err != nil {
		return types.Null, err
	}
	out := make([]types.Value, len(items), len(items)+1)
	copy(out, items)
	out = append(out, args[1])
	return types.NewList(out), nil
}
