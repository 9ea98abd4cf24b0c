// ABOUTME: Query data model and fluent builder
// ABOUTME: A query is a named list of field filters joined by and/or

package query

import "fmt"

// Operator joins the filters of one query
type Operator string

const (
	OperatorAnd Operator = "and"
	OperatorOr  Operator = "or"
)

// Condition compares a field value with a filter value
type Condition string

const (
	Contains    Condition = "contains"
	NotContains Condition = "not_contains"
	Is          Condition = "is"
	Not         Condition = "not"
	StartsWith  Condition = "startswith"
)

// AllFields as a filter field matches against the whole field map
const AllFields = "*"

// Filter is one (field, condition, value) triple
type Filter struct {
	Field     string    `json:"field" yaml:"field" mapstructure:"field"`
	Condition Condition `json:"condition" yaml:"condition" mapstructure:"condition"`
	Value     any       `json:"value" yaml:"value" mapstructure:"value"`
}

// Query is a named filter. An empty Operator means "and".
type Query struct {
	Name     string   `json:"name" yaml:"name" mapstructure:"name"`
	Operator Operator `json:"operator,omitempty" yaml:"operator,omitempty" mapstructure:"operator"`
	Filters  []Filter `json:"filters" yaml:"filters" mapstructure:"filters"`
}

// Op returns the effective operator
func (q Query) Op() Operator {
	if q.Operator == "" {
		return OperatorAnd
	}
	return q.Operator
}

// Validate checks the query name, operator and conditions
func (q Query) Validate() error {
	if q.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidQuery)
	}
	switch q.Op() {
	case OperatorAnd, OperatorOr:
	default:
		return fmt.Errorf("%w: query %q: unknown operator %q", ErrInvalidQuery, q.Name, q.Operator)
	}
	for i, f := range q.Filters {
		if f.Field == "" {
			return fmt.Errorf("%w: query %q: filter %d has no field", ErrInvalidQuery, q.Name, i)
		}
		if !f.Condition.Valid() {
			return fmt.Errorf("%w: query %q: unknown condition %q", ErrInvalidQuery, q.Name, f.Condition)
		}
	}
	return nil
}

// Valid reports whether c is a known condition
func (c Condition) Valid() bool {
	switch c {
	case Contains, NotContains, Is, Not, StartsWith:
		return true
	}
	return false
}

// QueryBuilder provides fluent interface for building queries
type QueryBuilder struct {
	query Query
}

// NewQueryBuilder creates a new query builder
func NewQueryBuilder(name string) *QueryBuilder {
	return &QueryBuilder{
		query: Query{
			Name:     name,
			Operator: OperatorAnd,
		},
	}
}

// Where adds a filter condition
func (qb *QueryBuilder) Where(field string, cond Condition, value any) *QueryBuilder {
	qb.query.Filters = append(qb.query.Filters, Filter{Field: field, Condition: cond, Value: value})
	return qb
}

// Any makes the query match when any filter matches
func (qb *QueryBuilder) Any() *QueryBuilder {
	qb.query.Operator = OperatorOr
	return qb
}

// All makes the query match only when every filter matches
func (qb *QueryBuilder) All() *QueryBuilder {
	qb.query.Operator = OperatorAnd
	return qb
}

// Build returns the constructed query
func (qb *QueryBuilder) Build() Query {
	return qb.query
}
