package filter

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/pi/api"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	funcs      map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[string, *exprFilter](size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}
	c.env = createRuntimeEnvironment(api.Question{}, c.helperFuncs)

	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	// env types every name an expression may use
	env   map[string]any
	cache *lruCache[string, *exprFilter]
}

var defaultCompiler = NewExprCompiler(WithCache(64))

// Compile compiles expression with a shared caching compiler
func Compile(expression string) (CompiledFilter, error) {
	return defaultCompiler.Compile(expression)
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
			Column:     -1,
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(c.env),
		expr.AsBool(),
	)
	if err != nil {
		compErr := &CompilationError{
			Expression: expression,
			Reason:     err.Error(),
			Column:     -1,
			Err:        err,
		}
		var fileErr *file.Error
		if errors.As(err, &fileErr) {
			compErr.Reason = fileErr.Message
			compErr.Column = fileErr.Column
		}
		return nil, compErr
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		funcs:      c.helperFuncs,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Len()
	}
	return 0
}

// Evaluate evaluates the filter against a question
func (f *exprFilter) Evaluate(question api.Question) (bool, error) {
	result, err := expr.Run(f.program, createRuntimeEnvironment(question, f.funcs))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			QuestionID: question.ID,
			Err:        err,
		}
	}
	match, ok := result.(bool)
	if !ok {
		return false, &EvaluationError{
			Expression: f.expression,
			QuestionID: question.ID,
			Err:        fmt.Errorf("expected bool result, got %T", result),
		}
	}
	return match, nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// createHelperFunctions creates the static helper functions
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 16)
	addHelperFunctions(funcs)
	return funcs
}

func addHelperFunctions(env map[string]any) {
	// Date helpers
	env["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["monthsAgo"] = func(months int) time.Time {
		return time.Now().AddDate(0, -months, 0)
	}
	env["parseDate"] = func(dateStr string) time.Time {
		t, _ := time.Parse("2006-01-02", dateStr)
		return t
	}
	// String helpers
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	env["now"] = time.Now
}

// createRuntimeEnvironment exposes a question to an expression. Missing
// scores read as zero and a missing rephrased prompt as "".
func createRuntimeEnvironment(q api.Question, funcs map[string]any) map[string]any {
	env := make(map[string]any, len(funcs)+20)
	maps.Copy(env, funcs)

	env["Question"] = q
	env["hasTag"] = createHasTagFunc(q.Tags)
	env["promptContains"] = func(substr string) bool {
		needle := strings.ToLower(substr)
		return strings.Contains(strings.ToLower(q.OriginalPrompt), needle) ||
			strings.Contains(strings.ToLower(deref(q.RephrasedPrompt)), needle)
	}

	env["ID"] = q.ID
	env["Number"] = q.Number
	env["User"] = q.User.Name
	env["UserID"] = q.User.ID
	env["Prompt"] = q.OriginalPrompt
	env["RephrasedPrompt"] = deref(q.RephrasedPrompt)
	env["Status"] = string(q.Status)
	env["Completed"] = q.IsCompleted()
	env["Succeeded"] = q.Success != nil && *q.Success
	env["Failed"] = q.Failed()
	env["Error"] = deref(q.Error)
	env["Tags"] = q.Tags
	env["UniquenessScore"] = deref(q.UniquenessScore)
	env["CorrelationScore"] = deref(q.CorrelationScore)
	env["RewardedPoints"] = deref(q.RewardedPoints)
	env["CreatedAt"] = q.CreatedAt.Time

	var datasource string
	if q.Datasource != nil {
		datasource = q.Datasource.Name
	}
	env["Datasource"] = datasource

	return env
}

func createHasTagFunc(tags []string) func(string) bool {
	lowerTags := make([]string, len(tags))
	for i, tag := range tags {
		lowerTags[i] = strings.ToLower(tag)
	}
	return func(tag string) bool {
		return slices.Contains(lowerTags, strings.ToLower(tag))
	}
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
