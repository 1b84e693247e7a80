package sandbox

import (
	"context"
	"fmt"

	"github.com/mudler/xlog"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Executor runs a generated snippet against the session's variable bindings.
// The returned map is the updated binding set; execution failures come back as
// an error whose text drives the debug loop.
type Executor interface {
	Execute(ctx context.Context, code string, vars map[string]any) (string, map[string]any, error)
}

// snippet contract: the generated code defines
//
//	func Run(vars map[string]interface{}) (string, map[string]interface{}, error)
//
// inside a synthetic package. Run receives the bindings, returns a printable
// result plus any new or changed bindings (a base64 PNG under "image" for
// visualizations).
const snippetPackage = "analysis"

// YaegiExecutor interprets snippets with a restricted interpreter: stdlib
// symbols only, no unrestricted mode.
type YaegiExecutor struct{}

func NewYaegiExecutor() *YaegiExecutor { return &YaegiExecutor{} }

func (e *YaegiExecutor) Execute(ctx context.Context, code string, vars map[string]any) (result string, updated map[string]any, err error) {
	if err := ctx.Err(); err != nil {
		return "", vars, err
	}

	defer func() {
		if r := recover(); r != nil {
			xlog.Warn("Snippet panicked", "panic", fmt.Sprintf("%v", r))
			err = fmt.Errorf("runtime panic: %v", r)
			updated = vars
		}
	}()

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return "", vars, err
	}

	if _, err := i.Eval(fmt.Sprintf("package %s\n%s", snippetPackage, code)); err != nil {
		return "", vars, fmt.Errorf("compiling snippet: %w", err)
	}

	v, err := i.Eval(snippetPackage + ".Run")
	if err != nil {
		return "", vars, fmt.Errorf("snippet has no Run function: %w", err)
	}

	run, ok := v.Interface().(func(map[string]interface{}) (string, map[string]interface{}, error))
	if !ok {
		return "", vars, fmt.Errorf("snippet Run has wrong signature: %T", v.Interface())
	}

	out, changed, err := run(vars)
	if err != nil {
		return "", vars, err
	}

	merged := make(map[string]any, len(vars)+len(changed))
	for k, val := range vars {
		merged[k] = val
	}
	for k, val := range changed {
		merged[k] = val
	}
	return out, merged, nil
}
