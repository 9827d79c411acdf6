package stdlib

import (
	"math"

	"github.com/quickdata/qexpr/pkg/types"
)

func registerMath(r *Registry) {
	r.Register("abs", mathAbs, Info{Category: "math", Description: "Absolute value of a number"})
	r.Register("round", mathRound, Info{Category: "math", Description: "Round to the nearest integer, or to n decimal places"})
	r.Register("floor", mathFloor, Info{Category: "math", Description: "Largest integer not greater than the argument"})
	r.Register("ceil", mathCeil, Info{Category: "math", Description: "Smallest integer not less than the argument"})
	r.Register("sqrt", mathSqrt, Info{Category: "math", Description: "Square root"})
	r.Register("pow", mathPow, Info{Category: "math", Description: "Raise a base to an exponent"})
	r.Register("min", mathMin, Info{Category: "math", Description: "Smallest of the arguments or of a single list"})
	r.Register("max", mathMax, Info{Category: "math", Description: "Largest of the arguments or of a single list"})
	r.Register("sum", mathSum, Info{Category: "math", Description: "Sum of a list of numbers"})
	r.Register("avg", mathAvg, Info{Category: "math", Description: "Arithmetic mean of a list of numbers"})
	r.Register("mod", mathModFn, Info{Category: "math", Description: "Remainder of integer division"})
}

func mathAbs(args []types.Value) (types.Value, error) {
	if err := requireArgs("abs", args, 1); err != nil {
		return types.Null, err
	}
	switch args[0].Type() {
	case types.TypeInt:
		n := args[0].AsInt()
		if n < 0 {
			n = -n
		}
		return types.NewInt(n), nil
	case types.TypeDouble:
		return types.NewDouble(math.Abs(args[0].AsDouble())), nil
	default:
		return types.Null, types.NewTypeMismatchError(
			"abs() argument must be a number, got %s", args[0].Type())
	}
}

func mathRound(args []types.Value) (types.Value, error) {
	if err := requireArgRange("round", args, 1, 2); err != nil {
		return types.Null, err
	}
	n, err := argNumber("round", args, 0)
	if err != nil {
		return types.Null, err
	}
	if len(args) == 1 {
		return types.NewInt(int64(math.Round(n))), nil
	}
	places, err := argInt("round", args, 1)
	if err != nil {
		return types.Null, err
	}
	factor := math.Pow(10, float64(places))
	return types.NewDouble(math.Round(n*factor) / factor), nil
}

func mathFloor(args []types.Value) (types.Value, error) {
	if err := requireArgs("floor", args, 1); err != nil {
		return types.Null, err
	}
	n, err := argNumber("floor", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.NewInt(int64(math.Floor(n))), nil
}

func mathCeil(args []types.Value) (types.Value, error) {
	if err := requireArgs("ceil", args, 1); err != nil {
		return types.Null, err
	}
	n, err := argNumber("ceil", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.NewInt(int64(math.Ceil(n))), nil
}

func mathSqrt(args []types.Value) (types.Value, error) {
	if err := requireArgs("sqrt", args, 1); err != nil {
		return types.Null, err
	}
	n, err := argNumber("sqrt", args, 0)
	if err != nil {
		return types.Null, err
	}
	if n < 0 {
		return types.Null, types.NewValueError("sqrt() of negative number %g", n)
	}
	return types.NewDouble(math.Sqrt(n)), nil
}

func mathPow(args []types.Value) (types.Value, error) {
	if err := requireArgs("pow", args, 2); err != nil {
		return types.Null, err
	}
	base, err := argNumber("pow", args, 0)
	if err != nil {
		return types.Null, err
	}
	exp, err := argNumber("pow", args, 1)
	if err != nil {
		return types.Null, err
	}
	return types.NewDouble(math.Pow(base, exp)), nil
}

// numericArgs normalizes min/max input: a single list argument spreads
// into its elements, otherwise the arguments themselves are used.
func numericArgs(name string, args []types.Value) ([]types.Value, error) {
	if len(args) == 1 && args[0].Type() == types.TypeList {
		args = args[0].AsList()
	}
	if len(args) == 0 {
		return nil, types.NewValueError("%s() requires at least one value", name)
	}
	for i, v := range args {
		if _, ok := v.AsNumber(); !ok {
			return nil, types.NewTypeMismatchError(
				"%s() argument %d must be a number, got %s", name, i+1, v.Type())
		}
	}
	return args, nil
}

func mathMin(args []types.Value) (types.Value, error) {
	vals, err := numericArgs("min", args)
	if err != nil {
		return types.Null, err
	}
	best := vals[0]
	bestN, _ := best.AsNumber()
	for _, v := range vals[1:] {
		n, _ := v.AsNumber()
		if n < bestN {
			best, bestN = v, n
		}
	}
	return best, nil
}

func mathMax(args []types.Value) (types.Value, error) {
	vals, err := numericArgs("max", args)
	if err != nil {
		return types.Null, err
	}
	best := vals[0]
	bestN, _ := best.AsNumber()
	for _, v := range vals[1:] {
		n, _ := v.AsNumber()
		if n > bestN {
			best, bestN = v, n
		}
	}
	return best, nil
}

func mathSum(args []types.Value) (types.Value, error) {
	if err := requireArgs("sum", args, 1); err != nil {
		return types.Null, err
	}
	items, err := argList("sum", args, 0)
	if err != nil {
		return types.Null, err
	}
	allInt := true
	var intSum int64
	var floatSum float64
	for i, v := range items {
		n, ok := v.AsNumber()
		if !ok {
			return types.Null, types.NewTypeMismatchError(
				"sum() element %d must be a number, got %s", i, v.Type())
		}
		floatSum += n
		if v.Type() == types.TypeInt {
			intSum += v.AsInt()
		} else {
			allInt = false
		}
	}
	if allInt {
		return types.NewInt(intSum), nil
	}
	return types.NewDouble(floatSum), nil
}

func mathAvg(args []types.Value) (types.Value, error) {
	if err := requireArgs("avg", args, 1); err != nil {
		return types.Null, err
	}
	items, err := argList("avg", args, 0)
	if err != nil {
		return types.Null, err
	}
	if len(items) == 0 {
		return types.Null, types.NewValueError("avg() of empty list")
	}
	var total float64
	for i, v := range items {
		n, ok := v.AsNumber()
		if !ok {
			return types.Null, types.NewTypeMismatchError(
				"avg() element %d must be a number, got %s", i, v.Type())
		}
		total += n
	}
	return types.NewDouble(total / float64(len(items))), nil
}

func mathModFn(args []types.Value) (types.Value, error) {
	if err := requireArgs("mod", args, 2); err != nil {
		return types.Null, err
	}
	a, err := argInt("mod", args, 0)
	if err != nil {
		return types.Null, err
	}
	b, err := argInt("mod", args, 1)
	if err != nil {
		return types.Null, err
	}
	if b == 0 {
		return types.Null, types.NewDivisionByZeroError()
	}
	return types.NewInt(a % b), nil
}
