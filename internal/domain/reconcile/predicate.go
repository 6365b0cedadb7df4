package reconcile

import (
	"github.com/google/cel-go/cel"

	"faktura/internal/core/apperror"
	"faktura/internal/domain/billing"
)

// CEL environment for balance scoping expressions.
// Exposed variables mirror the document fields reporting cares about,
// e.g. `customerId == "C-100"` or `total > 500.0 && date < timestamp("2026-01-01T00:00:00Z")`.
var predicateEnv = func() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("customerId", cel.StringType),
		cel.Variable("docType", cel.StringType),
		cel.Variable("status", cel.StringType),
		cel.Variable("number", cel.StringType),
		cel.Variable("total", cel.DoubleType),
		cel.Variable("balance", cel.DoubleType),
		cel.Variable("isRecurring", cel.BoolType),
		cel.Variable("date", cel.TimestampType),
	)
	if err != nil {
		panic(err)
	}
	return env
}()

// CompilePredicate turns a CEL expression into a document Predicate.
// The expression must evaluate to a boolean.
func CompilePredicate(expr string) (Predicate, error) {
	ast, issues := predicateEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, apperror.NewValidation("invalid filter expression").
			WithDetail("expression", expr).
			WithDetail("error", issues.Err().Error())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, apperror.NewValidation("filter expression must be boolean").
			WithDetail("expression", expr).
			WithDetail("output_type", ast.OutputType().String())
	}

	prg, err := predicateEnv.Program(ast)
	if err != nil {
		return nil, apperror.NewValidation("invalid filter expression").
			WithDetail("expression", expr).
			WithDetail("error", err.Error())
	}

	return func(doc *billing.Document) (bool, error) {
		out, _, err := prg.Eval(map[string]any{
			"customerId":  doc.CustomerID,
			"docType":     string(doc.Type),
			"status":      string(doc.Status),
			"number":      doc.Number,
			"total":       doc.Total.InexactFloat64(),
			"balance":     doc.Balance().InexactFloat64(),
			"isRecurring": doc.IsRecurring,
			"date":        doc.CreatedAt,
		})
		if err != nil {
			return false, apperror.NewValidation("filter evaluation failed").
				WithDetail("expression", expr).
				WithDetail("error", err.Error())
		}
		result, ok := out.Value().(bool)
		if !ok {
			return false, apperror.NewValidation("filter expression must be boolean").
				WithDetail("expression", expr)
		}
		return result, nil
	}, nil
}
