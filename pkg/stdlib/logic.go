package stdlib

import (
	"github.com/quickdata/qexpr/pkg/types"
)

func registerLogic(r *Registry) {
	r.Register("if_else", logicIfElse, Info{Category: "logic", Description: "Second argument if the first is truthy, else the third"})
	r.Register("coalesce", logicCoalesce, Info{Category: "logic", Description: "First non-null argument, or null"})
	r.Register("default", logicDefault, Info{Category: "logic", Description: "First argument unless null, then the second"})
	r.Register("is_null", logicIsNull, Info{Category: "logic", Description: "Whether the argument is null"})
	r.Register("is_empty", logicIsEmpty, Info{Category: "logic", Description: "Whether a string, list, or map is empty (null is empty)"})
	r.Register("bool", logicBool, Info{Category: "logic", Description: "Truthiness of a value as a bool"})
	r.Register("not_fn", logicNot, Info{Category: "logic", Description: "Negated truthiness of a value"})
}

func logicIfElse(args []types.Value) (types.Value, error) {
	if err := requireArgs("if_else", args, 3); err != nil {
		return types.Null, err
	}
	if args[0].Truthy() {
		return args[1], nil
	}
	return args[2], nil
}

func logicCoalesce(args []types.Value) (types.Value, error) {
	for _, v := range args {
		if !v.IsNull() {
			return v, nil
		}
	}
	return types.Null, nil
}

func logicDefault(args []types.Value) (types.Value, error) {
	if err := requireArgs("default", args, 2); err != nil {
		return types.Null, err
	}
	if args[0].IsNull() {
		return args[1], nil
	}
	return args[0], nil
}

func logicIsNull(args []types.Value) (types.Value, error) {
	if err := requireArgs("is_null", args, 1); err != nil {
		return types.Null, err
	}
	return types.NewBool(args[0].IsNull()), nil
}

func logicIsEmpty(args []types.Value) (types.Value, error) {
	if err := requireArgs("is_empty", args, 1); err != nil {
		return types.Null, err
	}
	switch args[0].Type() {
	case types.TypeNull:
		return types.NewBool(true), nil
	case types.TypeString:
		return types.NewBool(args[0].AsString() == ""), nil
	case types.TypeList:
		return types.NewBool(len(args[0].AsList()) == 0), nil
	case types.TypeMap:
		return types.NewBool(args[0].AsMap().Len() == 0), nil
	default:
		return types.Null, types.NewTypeMismatchError(
			"is_empty() argument must be a string, list, or map, got %s", args[0].Type())
	}
}

func logicBool(args []types.Value) (types.Value, error) {
	if err := requireArgs("bool", args, 1); err != nil {
		return types.Null, err
	}
	return types.NewBool(args[0].Truthy()), nil
}

func logicNot(args []types.Value) (types.Value, error) {
	if err := requireArgs("not_fn", args, 1); err != nil {
		return types.Null, err
	}
	return types.NewBool(!args[0].Truthy()), nil
}
