package stdlib

import (
	"strconv"
	"strings"

	"github.com/quickdata/qexpr/pkg/types"
)

func registerText(r *Registry) {
	r.Register("upper", textUpper, Info{Category: "string", Description: "Uppercase a string"})
	r.Register("lower", textLower, Info{Category: "string", Description: "Lowercase a string"})
	r.Register("trim", textTrim, Info{Category: "string", Description: "Strip leading and trailing whitespace"})
	r.Register("len", textLen, Info{Category: "string", Description: "Length of a string, list, or map"})
	r.Register("concat", textConcat, Info{Category: "string", Description: "Concatenate the string forms of all arguments"})
	r.Register("str", textStr, Info{Category: "string", Description: "Convert any value to its string form"})
	r.Register("substring", textSubstring, Info{Category: "string", Description: "Slice of a string by start and end offsets"})
	r.Register("replace", textReplace, Info{Category: "string", Description: "Replace all occurrences of a substring"})
	r.Register("split", textSplit, Info{Category: "string", Description: "Split a string into a list on a separator"})
	r.Register("join", textJoin, Info{Category: "string", Description: "Join a list of strings with a separator"})
	r.Register("contains", textContains, Info{Category: "string", Description: "Whether a string contains a substring"})
	r.Register("starts_with", textStartsWith, Info{Category: "string", Description: "Whether a string starts with a prefix"})
	r.Register("ends_with", textEndsWith, Info{Category: "string", Description: "Whether a string ends with a suffix"})
}

func textUpper(args []types.Value) (types.Value, error) {
	if err := requireArgs("upper", args, 1); err != nil {
		return types.Null, err
	}
	s, err := argString("upper", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.NewString(strings.ToUpper(s)), nil
}

func textLower(args []types.Value) (types.Value, error) {
	if err := requireArgs("lower", args, 1); err != nil {
		return types.Null, err
	}
	s, err := argString("lower", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.NewString(strings.ToLower(s)), nil
}

func textTrim(args []types.Value) (types.Value, error) {
	if err := requireArgs("trim", args, 1); err != nil {
		return types.Null, err
	}
	s, err := argString("trim", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.NewString(strings.TrimSpace(s)), nil
}

func textLen(args []types.Value) (types.Value, error) {
	if err := requireArgs("len", args, 1); err != nil {
		return types.Null, err
	}
	switch args[0].Type() {
	case types.TypeString:
		return types.NewInt(int64(len(args[0].AsString()))), nil
	case types.TypeList:
		return types.NewInt(int64(len(args[0].AsList()))), nil
	case types.TypeMap:
		return types.NewInt(int64(args[0].AsMap().Len())), nil
	default:
		return types.Null, types.NewTypeMismatchError(
			"len() argument must be a string, list, or map, got %s", args[0].Type())
	}
}

func textConcat(args []types.Value) (types.Value, error) {
	var sb strings.Builder
	for _, v := range args {
		sb.WriteString(stringify(v))
	}
	return types.NewString(sb.String()), nil
}

func textStr(args []types.Value) (types.Value, error) {
	if err := requireArgs("str", args, 1); err != nil {
		return types.Null, err
	}
	return types.NewString(stringify(args[0])), nil
}

// stringify renders a value for string building. Doubles with no
// fractional part keep a trailing ".0" so int and double stay
// distinguishable.
func stringify(v types.Value) string {
	if v.Type() == types.TypeDouble {
		f := v.AsDouble()
		if f == float64(int64(f)) {
			return strconv.FormatFloat(f, 'f', 1, 64)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return v.String()
}

func textSubstring(args []types.Value) (types.Value, error) {
	if err := requireArgRange("substring", args, 2, 3); err != nil {
		return types.Null, err
	}
	s, err := argString("substring", args, 0)
	if err != nil {
		return types.Null, err
	}
	start, err := argInt("substring", args, 1)
	if err != nil {
		return types.Null, err
	}
	end := int64(len(s))
	if len(args) == 3 {
		end, err = argInt("substring", args, 2)
		if err != nil {
			return types.Null, err
		}
	}
	if start < 0 {
		start += int64(len(s))
	}
	if end < 0 {
		end += int64(len(s))
	}
	if start < 0 {
		start = 0
	}
	if end > int64(len(s)) {
		end = int64(len(s))
	}
	if start >= end {
		return types.NewString(""), nil
	}
	return types.NewString(s[start:end]), nil
}

func textReplace(args []types.Value) (types.Value, error) {
	if err := requireArgs("replace", args, 3); err != nil {
		return types.Null, err
	}
	s, err := argString("replace", args, 0)
	if err != nil {
		return types.Null, err
	}
	old, err := argString("replace", args, 1)
	if err != nil {
		return types.Null, err
	}
	new_, err := argString("replace", args, 2)
	if err != nil {
		return types.Null, err
	}
	return types.NewString(strings.ReplaceAll(s, old, new_)), nil
}

func textSplit(args []types.Value) (types.Value, error) {
	if err := requireArgs("split", args, 2); err != nil {
		return types.Null, err
	}
	s, err := argString("split", args, 0)
	if err != nil {
		return types.Null, err
	}
	sep, err := argString("split", args, 1)
	if err != nil {
		return types.Null, err
	}
	parts := strings.Split(s, sep)
	items := make([]types.Value, len(parts))
	for i, p := range parts {
		items[i] = types.NewString(p)
	}
	return types.NewList(items), nil
}

func textJoin(args []types.Value) (types.Value, error) {
	if err := requireArgs("join", args, 2); err != nil {
		return types.Null, err
	}
	items, err := argList("join", args, 0)
	if err != nil {
		return types.Null, err
	}
	sep, err := argString("join", args, 1)
	if err != nil {
		return types.Null, err
	}
	parts := make([]string, len(items))
	for i, v := range items {
		parts[i] = stringify(v)
	}
	return types.NewString(strings.Join(parts, sep)), nil
}

func textContains(args []types.Value) (types.Value, error) {
	if err := requireArgs("contains", args, 2); err != nil {
		return types.Null, err
	}
	s, err := argString("contains", args, 0)
	if err != nil {
		return types.Null, err
	}
	sub, err := argString("contains", args, 1)
	if err != nil {
		return types.Null, err
	}
	return types.NewBool(strings.Contains(s, sub)), nil
}

func textStartsWith(args []types.Value) (types.Value, error) {
	if err := requireArgs("starts_with", args, 2); err != nil {
		return types.Null, err
	}
	s, err := argString("starts_with", args, 0)
	if err != nil {
		return types.Null, err
	}
	prefix, err := argString("starts_with", args, 1)
	if err != nil {
		return types.Null, err
	}
	return types.NewBool(strings.HasPrefix(s, prefix)), nil
}

func textEndsWith(args []types.Value) (types.Value, error) {
	if err := requireArgs("ends_with", args, 2); err != nil {
		return types.Null, err
	}
	s, err := argString("ends_with", args, 0)
	if err != nil {
		return types.Null, err
	}
	suffix, err := argString("ends_with", args, 1)
	if err != nil {
		return types.Null, err
	}
	return types.NewBool(strings.HasSuffix(s, suffix)), nil
}
