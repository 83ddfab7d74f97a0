package internal

import (
	"fmt"

	"github.com/Knetic/govaluate"
)

// WhenExpr is a compiled subscriber expression evaluated against the
// flattened message body. Flattened keys contain dots, so expressions
// reference them in escaped form, e.g. `[issue.fields.project.key] == "PROJ"`.
type WhenExpr struct {
	source string
	expr   *govaluate.EvaluableExpression
}

// CompileWhen compiles a subscriber `when` expression. An empty expression
// compiles to nil, which always matches.
func CompileWhen(source string) (*WhenExpr, error) {
	if source == "" {
		return nil, nil
	}
	expr, err := govaluate.NewEvaluableExpression(source)
	if err != nil {
		return nil, fmt.Errorf("compile when expression %q: %w", source, err)
	}
	return &WhenExpr{source: source, expr: expr}, nil
}

// Evaluate runs the expression against a message body. Evaluation failures
// (including references to fields the payload does not carry) count as a
// non-match rather than an error.
func (w *WhenExpr) Evaluate(body map[string]interface{}) bool {
	if w == nil || w.expr == nil {
		return true
	}
	result, err := w.expr.Evaluate(Flatten(body))
	if err != nil {
		return false
	}
	ok, _ := result.(bool)
	return ok
}

// String returns the original expression source.
func (w *WhenExpr) String() string {
	if w == nil {
		return ""
	}
	return w.source
}
