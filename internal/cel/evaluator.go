// Package cel evaluates CEL expressions against decoded documents and turns
// CEL predicates into navigation-tree matchers.
package cel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/decls"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
)

// RootVariable is the name documents are bound to in expressions.
const RootVariable = "_"

// Evaluator compiles and evaluates CEL expressions.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates a new CEL evaluator with standard library functions.
func NewEvaluator() (*Evaluator, error) {
	env, err := newStandardCELEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// GetEnvironment returns the CEL environment for introspection
func (e *Evaluator) GetEnvironment() *cel.Env {
	return e.env
}

// newStandardCELEnv creates a standard CEL environment with common extensions.
// Additional options can be provided to extend the environment.
func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 5+len(opts))
	allOpts = append(allOpts,
		cel.Variable(RootVariable, cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

func compile(env *cel.Env, expr string) (cel.Program, *cel.Ast, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, nil, fmt.Errorf("program error: %w", err)
	}
	return prg, ast, nil
}

// EvaluateExpressionWithEnv evaluates a CEL expression using the given
// environment, binding data to "_", and converts the result to Go values.
func EvaluateExpressionWithEnv(env *cel.Env, expr string, data any) (any, error) {
	prg, _, err := compile(env, expr)
	if err != nil {
		return nil, err
	}
	result, _, err := prg.Eval(map[string]any{RootVariable: data})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}

	converted := ToGo(result)
	if refVal, ok := converted.(ref.Val); ok {
		if valFunc, ok := refVal.(interface{ Value() any }); ok {
			converted = valFunc.Value()
		}
	}
	return converted, nil
}

// Evaluate evaluates a CEL expression against data.
// The expression can reference the data with the variable name "_".
// Example: "_.items[0]" or "_.items.filter(x, x.available == true)"
func (e *Evaluator) Evaluate(expr string, data any) (any, error) {
	return EvaluateExpressionWithEnv(e.env, expr, data)
}

// ToGo converts CEL types to Go native types recursively.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case types.Null:
		return nil
	}

	valuer, ok := val.(interface{ Value() any })
	if !ok {
		return val
	}
	switch inner := valuer.Value().(type) {
	case []ref.Val:
		result := make([]any, len(inner))
		for i, elem := range inner {
			result[i] = ToGo(elem)
		}
		return result
	case []any:
		return convertSlice(inner)
	case map[string]any:
		return convertMapValues(inner)
	case map[ref.Val]ref.Val:
		result := make(map[string]any, len(inner))
		for k, v := range inner {
			result[keyString(k)] = ToGo(v)
		}
		return result
	default:
		return inner
	}
}

func keyString(k ref.Val) string {
	if keyVal, ok := k.(interface{ Value() any }); ok {
		return fmt.Sprintf("%v", keyVal.Value())
	}
	return fmt.Sprintf("%v", k)
}

func convertValue(v any) any {
	switch t := v.(type) {
	case ref.Val:
		return ToGo(t)
	case map[string]any:
		return convertMapValues(t)
	case []any:
		return convertSlice(t)
	default:
		return v
	}
}

func convertSlice(s []any) []any {
	result := make([]any, len(s))
	for i, elem := range s {
		result[i] = convertValue(elem)
	}
	return result
}

// convertMapValues recursively converts map values from CEL types
func convertMapValues(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = convertValue(v)
	}
	return result
}

// Functions lists the functions and macros of the standard environment as
// "name() - usage" lines, sorted.
func Functions() ([]string, error) {
	env, err := newStandardCELEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return DiscoverFunctionsFromEnv(env), nil
}

// isOperator filters out internal operator-style declarations.
func isOperator(name string) bool {
	if strings.HasPrefix(name, "@") {
		return true
	}
	if strings.HasPrefix(name, "_") && strings.HasSuffix(name, "_") {
		return true
	}
	switch name {
	case "!_", "-_", "_[_]", "_?_:_":
		return true
	}
	return false
}

func typeLabel(t *types.Type) string {
	if t == nil {
		return "any"
	}
	if name := t.DeclaredTypeName(); name != "" {
		return name
	}
	if name := t.TypeName(); name != "" {
		return name
	}
	return "any"
}

func formatParams(params []*types.Type) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = typeLabel(p)
	}
	return strings.Join(parts, ", ")
}

func appendResult(call string, result *types.Type) string {
	if result == nil {
		return call
	}
	return call + " -> " + typeLabel(result)
}

// usageFromOverload builds a human-readable usage string from a function overload.
func usageFromOverload(name string, o *decls.OverloadDecl) string {
	params := o.ArgTypes()
	if len(params) == 0 {
		return appendResult(name+"()", o.ResultType())
	}
	if o.IsMemberFunction() {
		recv := typeLabel(params[0])
		return appendResult(recv+"."+name+"("+formatParams(params[1:])+")", o.ResultType())
	}
	return appendResult(name+"("+formatParams(params)+")", o.ResultType())
}

// DiscoverFunctionsFromEnv lists every overload of every function in env,
// plus macros, as "name() - usage" lines.
func DiscoverFunctionsFromEnv(env *cel.Env) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, 100)
	add := func(entry string) {
		if !seen[entry] {
			seen[entry] = true
			out = append(out, entry)
		}
	}

	for _, fn := range env.Functions() {
		if isOperator(fn.Name()) {
			continue
		}
		for _, o := range fn.OverloadDecls() {
			add(fn.Name() + "() - " + usageFromOverload(fn.Name(), o))
		}
	}
	for _, m := range env.Macros() {
		if isOperator(m.Function()) {
			continue
		}
		add(m.Function() + "() - CEL macro")
	}

	sort.Strings(out)
	return out
}
