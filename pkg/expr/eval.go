package expr

import (
	"math"
	"strings"
	"time"

	"github.com/quickdata/qexpr/pkg/types"
)

// Scope provides variable and function resolution during evaluation.
type Scope interface {
	// GetVariable resolves a variable by name. A miss must return an
	// UndefinedVariable error, not a zero value.
	GetVariable(name string) (types.Value, error)

	// CallFunction invokes a registered function by its (possibly dotted)
	// name with already-evaluated arguments.
	CallFunction(name string, args []types.Value) (types.Value, error)
}

// Limits bounds a single evaluation. Zero values disable the corresponding
// limit.
type Limits struct {
	MaxDepth        int           // maximum AST recursion depth
	MaxStringLength int           // ceiling on strings produced by concatenation
	Budget          time.Duration // wall-clock budget, checked cooperatively
}

// Evaluator walks an AST and produces a value. A fresh Evaluator is created
// per evaluation; it is not reused across calls.
type Evaluator struct {
	scope    Scope
	limits   Limits
	deadline time.Time
	depth    int
	// deadline checks happen per node but only consult the clock
	// periodically to keep the hot path cheap
	steps int
}

// Evaluate walks the tree with the given scope and no limits.
func Evaluate(node Node, scope Scope) (types.Value, error) {
	return EvaluateWithLimits(node, scope, Limits{})
}

// EvaluateWithLimits walks the tree enforcing recursion depth, string
// length, and wall-clock limits.
func EvaluateWithLimits(node Node, scope Scope, limits Limits) (types.Value, error) {
	e := &Evaluator{scope: scope, limits: limits}
	if limits.Budget > 0 {
		e.deadline = time.Now().Add(limits.Budget)
	}
	return e.eval(node)
}

const deadlineCheckInterval = 64

func (e *Evaluator) eval(node Node) (types.Value, error) {
	e.depth++
	defer func() { e.depth-- }()

	if e.limits.MaxDepth > 0 && e.depth > e.limits.MaxDepth {
		return types.Null, types.NewRecursionLimitError(e.limits.MaxDepth)
	}
	if !e.deadline.IsZero() {
		e.steps++
		if e.steps%deadlineCheckInterval == 0 && time.Now().After(e.deadline) {
			return types.Null, types.NewTimeoutError(e.limits.Budget)
		}
	}

	switch n := node.(type) {
	case *LiteralNode:
		return e.evalLiteral(n), nil
	case *IdentNode:
		return e.scope.GetVariable(n.Name)
	case *BinaryNode:
		return e.evalBinary(n)
	case *UnaryNode:
		return e.evalUnary(n)
	case *PropertyNode:
		return e.evalProperty(n)
	case *IndexNode:
		return e.evalIndex(n)
	case *CallNode:
		return e.evalCall(n)
	case *TernaryNode:
		return e.evalTernary(n)
	case *ListNode:
		return e.evalList(n)
	case *MapNode:
		return e.evalMap(n)
	case *InNode:
		return e.evalIn(n)
	default:
		return types.Null, types.NewValueError("unknown node type %T", node)
	}
}

func (e *Evaluator) evalLiteral(n *LiteralNode) types.Value {
	switch n.TokenType {
	case TokenInt:
		return types.NewInt(n.IntVal)
	case TokenFloat:
		return types.NewDouble(n.FloatVal)
	case TokenString:
		return types.NewString(n.StrVal)
	case TokenTrue:
		return types.NewBool(true)
	case TokenFalse:
		return types.NewBool(false)
	default:
		return types.Null
	}
}

func (e *Evaluator) evalBinary(n *BinaryNode) (types.Value, error) {
	// and/or short-circuit: the right side must not be evaluated when the
	// left side decides the result.
	switch n.Op {
	case TokenAnd:
		left, err := e.eval(n.Left)
		if err != nil {
			return types.Null, err
		}
		if !left.Truthy() {
			return types.NewBool(false), nil
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return types.Null, err
		}
		return types.NewBool(right.Truthy()), nil
	case TokenOr:
		left, err := e.eval(n.Left)
		if err != nil {
			return types.Null, err
		}
		if left.Truthy() {
			return types.NewBool(true), nil
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return types.Null, err
		}
		return types.NewBool(right.Truthy()), nil
	}

	left, err := e.eval(n.Left)
	if err != nil {
		return types.Null, err
	}
	right, err := e.eval(n.Right)
	if err != nil {
		return types.Null, err
	}

	switch n.Op {
	case TokenPlus:
		return e.evalAdd(left, right)
	case TokenMinus:
		return evalArith(left, right, "-")
	case TokenStar:
		return evalArith(left, right, "*")
	case TokenSlash:
		return evalDivide(left, right)
	case TokenPercent:
		return evalModulo(left, right)
	case TokenPower:
		return evalPower(left, right)
	case TokenEq:
		return types.NewBool(left.Equal(right)), nil
	case TokenNeq:
		return types.NewBool(!left.Equal(right)), nil
	case TokenLt, TokenGt, TokenLte, TokenGte:
		return evalCompare(left, right, n.Op)
	default:
		return types.Null, types.NewValueError("unknown binary operator %s", n.Op)
	}
}

// evalAdd handles + for numbers and string concatenation. Strings only
// concatenate with strings; concatenation enforces the string length
// ceiling.
func (e *Evaluator) evalAdd(left, right types.Value) (types.Value, error) {
	if left.Type() == types.TypeString || right.Type() == types.TypeString {
		if left.Type() != types.TypeString || right.Type() != types.TypeString {
			return types.Null, types.NewTypeMismatchError(
				"cannot add %s and %s", left.Type(), right.Type())
		}
		a, b := left.AsString(), right.AsString()
		if e.limits.MaxStringLength > 0 && len(a)+len(b) > e.limits.MaxStringLength {
			return types.Null, types.NewValueError(
				"string length %d exceeds limit %d", len(a)+len(b), e.limits.MaxStringLength)
		}
		return types.NewString(a + b), nil
	}
	return evalArith(left, right, "+")
}

// evalArith handles +, -, * over int and double with int preserved when
// both operands are int.
func evalArith(left, right types.Value, op string) (types.Value, error) {
	if left.Type() == types.TypeInt && right.Type() == types.TypeInt {
		a, b := left.AsInt(), right.AsInt()
		switch op {
		case "+":
			return types.NewInt(a + b), nil
		case "-":
			return types.NewInt(a - b), nil
		case "*":
			return types.NewInt(a * b), nil
		}
	}
	a, aok := left.AsNumber()
	b, bok := right.AsNumber()
	if !aok || !bok {
		return types.Null, types.NewTypeMismatchError(
			"operator '%s' requires numbers, got %s and %s", op, left.Type(), right.Type())
	}
	switch op {
	case "+":
		return types.NewDouble(a + b), nil
	case "-":
		return types.NewDouble(a - b), nil
	case "*":
		return types.NewDouble(a * b), nil
	}
	return types.Null, types.NewValueError("unknown arithmetic operator %q", op)
}

// evalDivide always returns a double. A zero divisor of either numeric
// type is a DivisionByZero error.
func evalDivide(left, right types.Value) (types.Value, error) {
	a, aok := left.AsNumber()
	b, bok := right.AsNumber()
	if !aok || !bok {
		return types.Null, types.NewTypeMismatchError(
			"operator '/' requires numbers, got %s and %s", left.Type(), right.Type())
	}
	if b == 0 {
		return types.Null, types.NewDivisionByZeroError()
	}
	return types.NewDouble(a / b), nil
}

func evalModulo(left, right types.Value) (types.Value, error) {
	if left.Type() == types.TypeInt && right.Type() == types.TypeInt {
		b := right.AsInt()
		if b == 0 {
			return types.Null, types.NewDivisionByZeroError()
		}
		return types.NewInt(left.AsInt() % b), nil
	}
	a, aok := left.AsNumber()
	b, bok := right.AsNumber()
	if !aok || !bok {
		return types.Null, types.NewTypeMismatchError(
			"operator '%%' requires numbers, got %s and %s", left.Type(), right.Type())
	}
	if b == 0 {
		return types.Null, types.NewDivisionByZeroError()
	}
	return types.NewDouble(math.Mod(a, b)), nil
}

// evalPower keeps int ** int as int when the exponent is non-negative;
// everything else goes through float math.
func evalPower(left, right types.Value) (types.Value, error) {
	if left.Type() == types.TypeInt && right.Type() == types.TypeInt && right.AsInt() >= 0 {
		result, err := intPow(left.AsInt(), right.AsInt())
		if err != nil {
			return types.Null, err
		}
		return types.NewInt(result), nil
	}
	a, aok := left.AsNumber()
	b, bok := right.AsNumber()
	if !aok || !bok {
		return types.Null, types.NewTypeMismatchError(
			"operator '**' requires numbers, got %s and %s", left.Type(), right.Type())
	}
	return types.NewDouble(math.Pow(a, b)), nil
}

// intPow raises base to a non-negative exponent with overflow detection.
// Bases 0, 1, and -1 never grow, so they resolve without iterating; any
// other base overflows int64 within 63 multiplies, which bounds the loop.
func intPow(base, exp int64) (int64, error) {
	switch base {
	case 0:
		if exp == 0 {
			return 1, nil
		}
		return 0, nil
	case 1:
		return 1, nil
	case -1:
		if exp%2 == 0 {
			return 1, nil
		}
		return -1, nil
	}
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		next := result * base
		if next/base != result {
			return 0, types.NewValueError("integer overflow in '%d ** %d'", base, exp)
		}
		result = next
	}
	return result, nil
}

// evalCompare handles <, >, <=, >= over numbers and strings.
func evalCompare(left, right types.Value, op TokenType) (types.Value, error) {
	if left.Type() == types.TypeString && right.Type() == types.TypeString {
		a, b := left.AsString(), right.AsString()
		switch op {
		case TokenLt:
			return types.NewBool(a < b), nil
		case TokenGt:
			return types.NewBool(a > b), nil
		case TokenLte:
			return types.NewBool(a <= b), nil
		case TokenGte:
			return types.NewBool(a >= b), nil
		}
	}
	a, aok := left.AsNumber()
	b, bok := right.AsNumber()
	if !aok || !bok {
		return types.Null, types.NewTypeMismatchError(
			"cannot compare %s and %s", left.Type(), right.Type())
	}
	switch op {
	case TokenLt:
		return types.NewBool(a < b), nil
	case TokenGt:
		return types.NewBool(a > b), nil
	case TokenLte:
		return types.NewBool(a <= b), nil
	case TokenGte:
		return types.NewBool(a >= b), nil
	}
	return types.Null, types.NewValueError("unknown comparison operator %s", op)
}

func (e *Evaluator) evalUnary(n *UnaryNode) (types.Value, error) {
	operand, err := e.eval(n.Operand)
	if err != nil {
		return types.Null, err
	}

	switch n.Op {
	case TokenMinus:
		switch operand.Type() {
		case types.TypeInt:
			return types.NewInt(-operand.AsInt()), nil
		case types.TypeDouble:
			return types.NewDouble(-operand.AsDouble()), nil
		default:
			return types.Null, types.NewTypeMismatchError(
				"unary '-' requires a number, got %s", operand.Type())
		}
	case TokenNot:
		return types.NewBool(!operand.Truthy()), nil
	default:
		return types.Null, types.NewValueError("unknown unary operator %s", n.Op)
	}
}

// evalProperty resolves map member access. A missing property reports an
// undefined variable, matching how a bare name miss reports.
func (e *Evaluator) evalProperty(n *PropertyNode) (types.Value, error) {
	obj, err := e.eval(n.Object)
	if err != nil {
		return types.Null, err
	}

	if obj.Type() != types.TypeMap {
		return types.Null, types.NewTypeMismatchError(
			"cannot access property '%s' on %s value", n.Property, obj.Type())
	}
	val, ok := obj.AsMap().Get(n.Property)
	if !ok {
		return types.Null, types.NewUndefinedVariableError(n.Property)
	}
	return val, nil
}

func (e *Evaluator) evalIndex(n *IndexNode) (types.Value, error) {
	obj, err := e.eval(n.Object)
	if err != nil {
		return types.Null, err
	}
	index, err := e.eval(n.Index)
	if err != nil {
		return types.Null, err
	}

	switch obj.Type() {
	case types.TypeList:
		if index.Type() != types.TypeInt {
			return types.Null, types.NewTypeMismatchError(
				"list index must be an integer, got %s", index.Type())
		}
		items := obj.AsList()
		i := index.AsInt()
		// Negative indices count from the end.
		if i < 0 {
			i += int64(len(items))
		}
		if i < 0 || i >= int64(len(items)) {
			return types.Null, types.NewIndexError(
				"list index %d out of range (length %d)", index.AsInt(), len(items))
		}
		return items[i], nil
	case types.TypeMap:
		if index.Type() != types.TypeString {
			return types.Null, types.NewTypeMismatchError(
				"map key must be a string, got %s", index.Type())
		}
		val, ok := obj.AsMap().Get(index.AsString())
		if !ok {
			return types.Null, types.NewKeyError("key '%s' not found", index.AsString())
		}
		return val, nil
	case types.TypeString:
		if index.Type() != types.TypeInt {
			return types.Null, types.NewTypeMismatchError(
				"string index must be an integer, got %s", index.Type())
		}
		s := obj.AsString()
		i := index.AsInt()
		if i < 0 {
			i += int64(len(s))
		}
		if i < 0 || i >= int64(len(s)) {
			return types.Null, types.NewIndexError(
				"string index %d out of range (length %d)", index.AsInt(), len(s))
		}
		return types.NewString(string(s[i])), nil
	default:
		return types.Null, types.NewTypeMismatchError("cannot index %s value", obj.Type())
	}
}

func (e *Evaluator) evalCall(n *CallNode) (types.Value, error) {
	args := make([]types.Value, len(n.Args))
	for i, argNode := range n.Args {
		arg, err := e.eval(argNode)
		if err != nil {
			return types.Null, err
		}
		args[i] = arg
	}
	return e.scope.CallFunction(n.Name, args)
}

// evalTernary evaluates only the branch selected by the condition.
func (e *Evaluator) evalTernary(n *TernaryNode) (types.Value, error) {
	cond, err := e.eval(n.Cond)
	if err != nil {
		return types.Null, err
	}
	if cond.Truthy() {
		return e.eval(n.Then)
	}
	return e.eval(n.Else)
}

func (e *Evaluator) evalList(n *ListNode) (types.Value, error) {
	items := make([]types.Value, len(n.Elements))
	for i, elem := range n.Elements {
		val, err := e.eval(elem)
		if err != nil {
			return types.Null, err
		}
		items[i] = val
	}
	return types.NewList(items), nil
}

func (e *Evaluator) evalMap(n *MapNode) (types.Value, error) {
	m := types.NewOrderedMap()
	for i := range n.Keys {
		key, err := e.eval(n.Keys[i])
		if err != nil {
			return types.Null, err
		}
		if key.Type() != types.TypeString {
			return types.Null, types.NewTypeMismatchError(
				"map key must be a string, got %s", key.Type())
		}
		val, err := e.eval(n.Values[i])
		if err != nil {
			return types.Null, err
		}
		m.Set(key.AsString(), val)
	}
	return types.NewMap(m), nil
}

func (e *Evaluator) evalIn(n *InNode) (types.Value, error) {
	value, err := e.eval(n.Value)
	if err != nil {
		return types.Null, err
	}
	container, err := e.eval(n.Container)
	if err != nil {
		return types.Null, err
	}

	var found bool
	switch container.Type() {
	case types.TypeList:
		for _, item := range container.AsList() {
			if value.Equal(item) {
				found = true
				break
			}
		}
	case types.TypeMap:
		if value.Type() != types.TypeString {
			return types.Null, types.NewTypeMismatchError(
				"map membership test requires a string key, got %s", value.Type())
		}
		_, found = container.AsMap().Get(value.AsString())
	case types.TypeString:
		if value.Type() != types.TypeString {
			return types.Null, types.NewTypeMismatchError(
				"string membership test requires a string, got %s", value.Type())
		}
		found = strings.Contains(container.AsString(), value.AsString())
	default:
		return types.Null, types.NewTypeMismatchError(
			"'in' requires a list, map, or string, got %s", container.Type())
	}

	if n.Negated {
		found = !found
	}
	return types.NewBool(found), nil
}
