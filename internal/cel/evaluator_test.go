package cel

import (
	"strings"
	"testing"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

func TestNewEvaluator_CreatesValidEnvironment(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}
	if eval.GetEnvironment() == nil {
		t.Fatal("GetEnvironment returned nil")
	}
}

func TestEvaluate_SimpleExpressions(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}

	tests := []struct {
		name     string
		expr     string
		data     any
		expected any
	}{
		{"access field", "_.name", map[string]any{"name": "test"}, "test"},
		{"access number", "_.count", map[string]any{"count": int64(42)}, int64(42)},
		{"array index", "_[0]", []any{"first", "second"}, "first"},
		{"boolean", "_.active", map[string]any{"active": true}, true},
		{"nested field", "_.user.email", map[string]any{"user": map[string]any{"email": "test@example.com"}}, "test@example.com"},
		{"null member", "_.gone", map[string]any{"gone": nil}, nil},
		{"equality", "_.x == 10", map[string]any{"x": int64(10)}, true},
		{"and operator", "_.x > 5 && _.x < 20", map[string]any{"x": int64(10)}, true},
		{"or operator", "_.x < 5 || _.x > 20", map[string]any{"x": int64(10)}, false},
		{"strings extension", "_.name.upperAscii()", map[string]any{"name": "abc"}, "ABC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eval.Evaluate(tt.expr, tt.data)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestEvaluate_FilterAndMap(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}

	data := map[string]any{
		"items": []any{
			map[string]any{"name": "item1", "available": true, "price": int64(10)},
			map[string]any{"name": "item2", "available": false, "price": int64(20)},
			map[string]any{"name": "item3", "available": true, "price": int64(30)},
		},
	}

	result, err := eval.Evaluate("_.items.filter(x, x.available)", data)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	items, ok := result.([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2 items, got %#v", result)
	}
	first, ok := items[0].(map[string]any)
	if !ok || first["name"] != "item1" {
		t.Errorf("expected plain map for filtered item, got %#v", items[0])
	}

	result, err = eval.Evaluate("_.items.map(x, x.price)", data)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	prices, ok := result.([]any)
	if !ok || len(prices) != 3 || prices[2] != int64(30) {
		t.Errorf("expected converted prices, got %#v", result)
	}

	result, err = eval.Evaluate(`{"total": size(_.items)}`, data)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	m, ok := result.(map[string]any)
	if !ok || m["total"] != int64(3) {
		t.Errorf("expected map literal result, got %#v", result)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}

	if _, err := eval.Evaluate("_.x +", map[string]any{}); err == nil || !strings.Contains(err.Error(), "compilation error") {
		t.Errorf("expected compilation error, got %v", err)
	}
	if _, err := eval.Evaluate("_.missing", map[string]any{}); err == nil || !strings.Contains(err.Error(), "eval error") {
		t.Errorf("expected eval error, got %v", err)
	}
}

func TestToGo_PrimitiveTypes(t *testing.T) {
	tests := []struct {
		name     string
		input    ref.Val
		expected any
	}{
		{"bool true", types.Bool(true), true},
		{"int", types.Int(42), int64(42)},
		{"uint", types.Uint(100), uint64(100)},
		{"double", types.Double(3.14), float64(3.14)},
		{"string", types.String("hello"), "hello"},
		{"null", types.NullValue, nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToGo(tt.input)
			if result != tt.expected {
				t.Errorf("expected %v (%T), got %v (%T)", tt.expected, tt.expected, result, result)
			}
		})
	}
}

func TestToGo_BytesType(t *testing.T) {
	result := ToGo(types.Bytes([]byte("data")))
	b, ok := result.([]byte)
	if !ok || string(b) != "data" {
		t.Fatalf("expected []byte data, got %#v", result)
	}
}

func TestNewStandardCELEnv_WithOpts(t *testing.T) {
	customFunc := cel.Function("testCustomFunc",
		cel.Overload("testCustomFunc_string",
			[]*cel.Type{cel.StringType},
			cel.StringType,
			cel.UnaryBinding(func(arg ref.Val) ref.Val {
				return arg
			}),
		),
	)

	env, err := newStandardCELEnv(customFunc)
	if err != nil {
		t.Fatalf("newStandardCELEnv with opts failed: %v", err)
	}

	foundStrings, foundCustom := false, false
	for _, fn := range env.Functions() {
		switch fn.Name() {
		case "upperAscii":
			foundStrings = true
		case "testCustomFunc":
			foundCustom = true
		}
	}
	if !foundStrings {
		t.Error("newStandardCELEnv should include the strings extension")
	}
	if !foundCustom {
		t.Error("newStandardCELEnv with opts should include custom function")
	}

	funcs := DiscoverFunctionsFromEnv(env)
	found := false
	for _, f := range funcs {
		if strings.HasPrefix(f, "testCustomFunc() - testCustomFunc(string) -> string") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected usage line for custom function in %v", funcs)
	}
}

func TestFunctions_FiltersInternalNames(t *testing.T) {
	funcs, err := Functions()
	if err != nil {
		t.Fatalf("Functions error: %v", err)
	}
	if len(funcs) < 10 {
		t.Fatalf("expected at least 10 CEL functions, got %d", len(funcs))
	}
	for _, f := range funcs {
		if strings.HasPrefix(f, "@") || strings.HasPrefix(f, "_") || strings.HasPrefix(f, "!_") {
			t.Fatalf("internal name leaked into function list: %q", f)
		}
	}
}

func TestIsOperator(t *testing.T) {
	for _, name := range []string{"_+_", "_==_", "@in", "!_", "-_", "_[_]", "_?_:_"} {
		if !isOperator(name) {
			t.Errorf("expected %q to be an operator", name)
		}
	}
	for _, name := range []string{"size", "contains", "filter"} {
		if isOperator(name) {
			t.Errorf("expected %q not to be an operator", name)
		}
	}
}
