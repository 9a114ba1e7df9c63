package generator

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// evalWhen reports whether a template pair should render. An empty
// condition always renders.
func evalWhen(code string, vars map[string]any) (bool, error) {
	if code == "" {
		return true, nil
	}

	program, err := compileExpr(code)
	if err != nil {
		return false, fmt.Errorf("invalid when expression %q: %w", code, err)
	}

	ok, err := evalCompiledExpr(program, vars)
	if err != nil {
		return false, fmt.Errorf("when expression %q failed: %w", code, err)
	}

	return ok, nil
}

func compileExpr(code string) (*vm.Program, error) {
	return expr.Compile(code, expr.AsBool())
}

func evalCompiledExpr(program *vm.Program, env map[string]any) (bool, error) {
	output, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not evaluate to boolean, got %T", output)
	}

	return result, nil
}
