// Package filter compiles expr expressions into predicates over market
// publications, so command-line users can narrow search results with
// conditions like `Downloads > 1000 && rating() >= 4`.
package filter

import (
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/mineos-tools/marketctl/market"
)

// Filter is a compiled publication predicate.
type Filter struct {
	program *vm.Program
	expr    string
}

// Compile compiles a filter expression. The expression sees the fields of
// one publication plus the helper functions documented in baseEnv.
func Compile(expression string) (*Filter, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, &CompilationError{Expression: expression, Reason: "empty filter expression"}
	}

	program, err := expr.Compile(expression,
		expr.Env(appEnv(market.AppSummary{})),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, &CompilationError{Expression: expression, Reason: err.Error(), Err: err}
	}

	return &Filter{program: program, expr: expression}, nil
}

// Match reports whether the publication satisfies the filter. A non-boolean
// result or a runtime failure is an EvaluationError.
func (f *Filter) Match(app market.AppSummary) (bool, error) {
	result, err := expr.Run(f.program, appEnv(app))
	if err != nil {
		return false, &EvaluationError{Expression: f.expr, AppName: app.Name, Reason: err.Error(), Err: err}
	}

	matched, ok := result.(bool)
	if !ok {
		return false, &EvaluationError{Expression: f.expr, AppName: app.Name, Reason: "expression did not produce a boolean"}
	}
	return matched, nil
}

// Apply returns the publications that satisfy the filter, in input order.
func (f *Filter) Apply(apps []market.AppSummary) ([]market.AppSummary, error) {
	matched := make([]market.AppSummary, 0, len(apps))
	for _, app := range apps {
		ok, err := f.Match(app)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, app)
		}
	}
	return matched, nil
}

// String returns the original expression
func (f *Filter) String() string {
	return f.expr
}

// appEnv builds the evaluation environment for one publication: its fields
// under their Go names plus helper functions.
func appEnv(app market.AppSummary) map[string]interface{} {
	return map[string]interface{}{
		"App":          app,
		"ID":           app.ID,
		"Name":         app.Name,
		"Author":       app.Author,
		"Version":      app.Version,
		"Category":     app.Category.String(),
		"ReviewsCount": app.ReviewsCount,
		"Downloads":    app.Downloads,

		// Rating helpers: a missing average rating reads as 0.
		"rating": func() float64 {
			return app.Rating()
		},
		"hasRating": func() bool {
			return app.AverageRating != nil
		},
		"popularity": func() float64 {
			if app.Popularity == nil {
				return 0
			}
			return *app.Popularity
		},

		// Category helpers
		"isApplication": func() bool { return app.Category == market.CategoryApplications },
		"isLibrary":     func() bool { return app.Category == market.CategoryLibraries },
		"isScript":      func() bool { return app.Category == market.CategoryScripts },
		"isWallpaper":   func() bool { return app.Category == market.CategoryWallpapers },

		// String helpers
		"contains": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"startsWith": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"endsWith": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,

		"now": time.Now,
	}
}
