package queryir

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError lists every problem found in a query.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid query: " + strings.Join(e.Problems, "; ")
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// Validate checks a query against the catalog:
//  1. the table exists
//  2. every selected and filtered column belongs to it
//  3. every literal is a supported scalar
//
// All problems are reported at once. Validate is a pure function.
func Validate(q Query) error {
	v := &validator{}
	v.validateQuery(q)
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addProblem("nil query")
			return
		}
		v.validateSelect(*query)
	case nil:
		v.addProblem("nil query")
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	table, ok := Tables[sel.From]
	if !ok {
		v.addProblem("unknown table %q", sel.From)
		return
	}
	for _, c := range sel.Columns {
		if !table.HasColumn(c) {
			v.addProblem("unknown column %q in table %s", c, table.Name)
		}
	}
	v.validatePredicate(table, sel.Filter)
}

func (v *validator) validatePredicate(table Table, p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.validateEquals(table, pred)
	case *Equals:
		v.validateEquals(table, *pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(table, sub)
		}
	case *And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(table, sub)
		}
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateEquals(table Table, eq Equals) {
	if !table.HasColumn(eq.Field) {
		v.addProblem("unknown column %q in table %s", eq.Field, table.Name)
	}
	switch eq.Value.(type) {
	case string, int, int64, float64, bool:
	case nil:
		v.addProblem("column %q compared to NULL", eq.Field)
	default:
		v.addProblem("column %q compared to unsupported %T", eq.Field, eq.Value)
	}
}
