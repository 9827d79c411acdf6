package stdlib

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/quickdata/qexpr/pkg/types"
)

func registerMisc(r *Registry) {
	r.Register("uuid", miscUUID, Info{Category: "misc", Description: "Random version 4 UUID as a string"})
	r.Register("type_of", miscTypeOf, Info{Category: "misc", Description: "Type name of a value"})
	r.Register("int", miscInt, Info{Category: "misc", Description: "Convert a value to an integer"})
	r.Register("float", miscFloat, Info{Category: "misc", Description: "Convert a value to a double"})
}

func miscUUID(args []types.Value) (types.Value, error) {
	if err := requireArgs("uuid", args, 0); err != nil {
		return types.Null, err
	}
	return types.NewString(uuid.NewString()), nil
}

func miscTypeOf(args []types.Value) (types.Value, error) {
	if err := requireArgs("type_of", args, 1); err != nil {
		return types.Null, err
	}
	return types.NewString(args[0].Type().String()), nil
}

func miscInt(args []types.Value) (types.Value, error) {
	if err := requireArgs("int", args, 1); err != nil {
		return types.Null, err
	}
	switch args[0].Type() {
	case types.TypeInt:
		return args[0], nil
	case types.TypeDouble:
		return types.NewInt(int64(args[0].AsDouble())), nil
	case types.TypeBool:
		if args[0].AsBool() {
			return types.NewInt(1), nil
		}
		return types.NewInt(0), nil
	case types.TypeString:
		s := strings.TrimSpace(args[0].AsString())
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return types.NewInt(i), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return types.NewInt(int64(f)), nil
		}
		return types.Null, types.NewValueError("int() cannot convert %q", args[0].AsString())
	default:
		return types.Null, types.NewTypeMismatchError(
			"int() cannot convert %s", args[0].Type())
	}
}

func miscFloat(args []types.Value) (types.Value, error) {
	if err := requireArgs("float", args, 1); err != nil {
		return types.Null, err
	}
	switch args[0].Type() {
	case types.TypeDouble:
		return args[0], nil
	case types.TypeInt:
		return types.NewDouble(float64(args[0].AsInt())), nil
	case types.TypeBool:
		if args[0].AsBool() {
			return types.NewDouble(1), nil
		}
		return types.NewDouble(0), nil
	case types.TypeString:
		s := strings.TrimSpace(args[0].AsString())
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return types.NewDouble(f), nil
		}
		return types.Null, types.NewValueError("float() cannot convert %q", args[0].AsString())
	default:
		return types.Null, types.NewTypeMismatchError(
			"float() cannot convert %s", args[0].Type())
	}
}
