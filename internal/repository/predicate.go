package repository

import "fmt"

// Predicate is a composable SQL filter. Expressions are written with ?
// placeholders and rebound to the active dialect when the query runs.
type Predicate struct {
	expr string
	args []any
}

// Where builds a predicate from a SQL expression and its arguments.
func Where(expr string, args ...any) Predicate {
	return Predicate{expr: expr, args: args}
}

// And combines two predicates with AND, grouping both sides.
func (p Predicate) And(other Predicate) Predicate {
	return p.combine("AND", other)
}

// Or combines two predicates with OR, grouping both sides.
func (p Predicate) Or(other Predicate) Predicate {
	return p.combine("OR", other)
}

func (p Predicate) combine(op string, other Predicate) Predicate {
	if p.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return p
	}

	args := make([]any, 0, len(p.args)+len(other.args))
	args = append(args, p.args...)
	args = append(args, other.args...)

	return Predicate{
		expr: fmt.Sprintf("(%s) %s (%s)", p.expr, op, other.expr),
		args: args,
	}
}

// IsEmpty reports whether the predicate has no expression.
func (p Predicate) IsEmpty() bool { return p.expr == "" }

// SQL returns the expression with ? placeholders and its arguments.
func (p Predicate) SQL() (string, []any) { return p.expr, p.args }
