package importer

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/moznion/go-optional"
	"gitlab.com/katello-tools/errata-tracker/errata"
)

type RewriterEnv struct {
	ID       string `expr:"id"`
	Type     string `expr:"type"`
	Severity string `expr:"severity"`
	Title    string `expr:"title"`
}

type compiledRewriter struct {
	Predicate   *vm.Program
	RewriteRule *vm.Program
	Field       string
}

var rewritableFields = []string{"type", "severity", "title"}

func NewCompiledRewriter(r errata.Rewriter) (cr compiledRewriter, err error) {
	genericOpts := []expr.Option{
		expr.Env(RewriterEnv{}),
		expr.Function(
			"fmt",
			exprFmt,
			new(func(string, string) string),
			new(func([]any, string) string),
		),
	}

	if r.Field != "" {
		cr.Field = r.Field
	} else {
		cr.Field = "type"
	}
	if !isRewritableField(cr.Field) {
		return cr, fmt.Errorf("field %q cannot be rewritten", cr.Field)
	}

	predicateOpts := append(genericOpts,
		expr.AsBool(),
	)
	cr.Predicate, err = expr.Compile(r.Predicate, predicateOpts...)
	if err != nil {
		return cr, fmt.Errorf("error compiling predicate: %w", err)
	}

	rewriterOpts := append(genericOpts,
		expr.AsKind(reflect.String),
	)
	cr.RewriteRule, err = expr.Compile(r.RewriteRule, rewriterOpts...)
	if err != nil {
		return cr, fmt.Errorf("error compiling rewrite rule: %w", err)
	}

	return cr, err
}

// CompileRewriters compiles all rewriters of a config.
func CompileRewriters(config errata.Config) ([]compiledRewriter, error) {
	rewriters := make([]compiledRewriter, 0, len(config.Rewriters))
	for i, rewriter := range config.Rewriters {
		cr, err := NewCompiledRewriter(rewriter)
		if err != nil {
			return nil, fmt.Errorf("could not parse rewrite rule %d, %w", i+1, err)
		}
		rewriters = append(rewriters, cr)
	}
	return rewriters, nil
}

func isRewritableField(field string) bool {
	return slices.Contains(rewritableFields, field)
}

func (c compiledRewriter) Rewrite(payload errata.Payload) errata.Payload {
	env := RewriterEnv{
		ID:       payload.ID.TakeOr(""),
		Type:     payload.Type.TakeOr(""),
		Severity: payload.Severity.TakeOr(""),
		Title:    payload.Title.TakeOr(""),
	}
	predicate, err := expr.Run(c.Predicate, env)
	if err != nil {
		slog.Error("could not evaluate rewrite predicate", "id", env.ID, "err", err)
		return payload
	}
	if !predicate.(bool) {
		return payload
	}
	result, err := expr.Run(c.RewriteRule, env)
	if err != nil {
		slog.Error("could not evaluate rewrite rule", "id", env.ID, "err", err)
		return payload
	}
	resultStr := optional.Some(result.(string))
	switch c.Field {
	case "type":
		payload.Type = resultStr
	case "severity":
		payload.Severity = resultStr
	case "title":
		payload.Title = resultStr
	}

	return payload
}

// exprFmt is an implementation of sprintf for expr. It takes the thing to be
// formatted as the first argument to make it possible to use with pipes. The
// first argument can either be a string, or a list of any value.
func exprFmt(params ...any) (any, error) {
	switch arg1 := params[0].(type) {
	case string:
		return fmt.Sprintf(params[1].(string), arg1), nil
	case []any:
		return fmt.Sprintf(params[1].(string), arg1...), nil
	default:
		return "", fmt.Errorf("unsupported type for argument 1: %T", arg1)
	}
}
