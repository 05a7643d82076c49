package querybuilder

import (
	"fmt"
	"strings"
)

// QueryBuilder provides a fluent interface for building parameterized
// Postgres queries. Placeholders are numbered $1..$n in render order.
type QueryBuilder struct {
	queryType  QueryType
	table      string
	columns    []string
	rows       [][]interface{}
	conditions []Condition
	orderBy    []OrderBy
	limit      *int
	offset     *int
	returning  []string
	onConflict *ConflictClause
}

// QueryType represents the type of SQL query
type QueryType int

const (
	SelectQuery QueryType = iota
	CountQuery
	InsertQuery
)

// Condition is a single predicate or, when Group is set, a parenthesized
// OR-joined set of predicates.
type Condition struct {
	Column   string
	Operator Operator
	Value    interface{}
	Logical  LogicalOperator
	Group    []Condition
}

// OrderBy represents an ORDER BY clause
type OrderBy struct {
	Column    string
	Direction Direction
	NullsLast bool
}

// ConflictClause represents an ON CONFLICT clause for INSERT
type ConflictClause struct {
	Columns []string
	Action  ConflictAction
}

// Operator represents SQL comparison operators
type Operator int

const (
	Equal Operator = iota
	NotEqual
	GreaterThan
	GreaterThanOrEqual
	LessThan
	LessThanOrEqual
	ILike
	In
	Contains
	IsNull
	IsNotNull
	IsTrue
)

// LogicalOperator represents logical operators (AND, OR)
type LogicalOperator int

const (
	And LogicalOperator = iota
	Or
)

// Direction represents sort direction
type Direction int

const (
	Asc Direction = iota
	Desc
)

// ConflictAction represents ON CONFLICT actions
type ConflictAction int

const (
	DoNothing ConflictAction = iota
)

// New creates a new QueryBuilder instance
func New() *QueryBuilder {
	return &QueryBuilder{}
}

// Select starts a SELECT query
func (qb *QueryBuilder) Select(columns ...string) *QueryBuilder {
	qb.queryType = SelectQuery
	qb.columns = columns
	return qb
}

// Count starts a SELECT COUNT(*) query. Ordering and limits are ignored.
func (qb *QueryBuilder) Count() *QueryBuilder {
	qb.queryType = CountQuery
	return qb
}

// Insert starts a multi-row INSERT into table with a fixed column order.
func (qb *QueryBuilder) Insert(table string, columns ...string) *QueryBuilder {
	qb.queryType = InsertQuery
	qb.table = table
	qb.columns = columns
	return qb
}

// From sets the table for SELECT queries
func (qb *QueryBuilder) From(table string) *QueryBuilder {
	qb.table = table
	return qb
}

// Values appends one row; its length must match the INSERT columns.
func (qb *QueryBuilder) Values(values ...interface{}) *QueryBuilder {
	qb.rows = append(qb.rows, values)
	return qb
}

// Where adds a WHERE condition with AND logic
func (qb *QueryBuilder) Where(column string, operator Operator, value interface{}) *QueryBuilder {
	return qb.addCondition(Condition{Column: column, Operator: operator, Value: value, Logical: And})
}

// OrWhere adds a WHERE condition with OR logic
func (qb *QueryBuilder) OrWhere(column string, operator Operator, value interface{}) *QueryBuilder {
	return qb.addCondition(Condition{Column: column, Operator: operator, Value: value, Logical: Or})
}

// WhereEqual is a convenience method for equality conditions
func (qb *QueryBuilder) WhereEqual(column string, value interface{}) *QueryBuilder {
	return qb.Where(column, Equal, value)
}

// WhereIn adds an IN condition
func (qb *QueryBuilder) WhereIn(column string, values []interface{}) *QueryBuilder {
	return qb.Where(column, In, values)
}

// WhereContains adds an array containment (@>) condition.
func (qb *QueryBuilder) WhereContains(column string, values []string) *QueryBuilder {
	return qb.Where(column, Contains, values)
}

// WhereNotNull adds an IS NOT NULL condition
func (qb *QueryBuilder) WhereNotNull(column string) *QueryBuilder {
	return qb.Where(column, IsNotNull, nil)
}

// WhereAnyOf ANDs a parenthesized group of OR-joined conditions.
func (qb *QueryBuilder) WhereAnyOf(conditions ...Condition) *QueryBuilder {
	if len(conditions) == 0 {
		return qb
	}
	return qb.addCondition(Condition{Logical: And, Group: conditions})
}

// OrderBy adds an ORDER BY clause
func (qb *QueryBuilder) OrderBy(column string, direction Direction) *QueryBuilder {
	qb.orderBy = append(qb.orderBy, OrderBy{Column: column, Direction: direction})
	return qb
}

// OrderByAsc adds an ORDER BY ASC clause
func (qb *QueryBuilder) OrderByAsc(column string) *QueryBuilder {
	return qb.OrderBy(column, Asc)
}

// OrderByDesc adds an ORDER BY DESC clause
func (qb *QueryBuilder) OrderByDesc(column string) *QueryBuilder {
	return qb.OrderBy(column, Desc)
}

// OrderByDescNullsLast sorts descending with missing values at the end.
func (qb *QueryBuilder) OrderByDescNullsLast(column string) *QueryBuilder {
	qb.orderBy = append(qb.orderBy, OrderBy{Column: column, Direction: Desc, NullsLast: true})
	return qb
}

// Limit sets the LIMIT clause
func (qb *QueryBuilder) Limit(limit int) *QueryBuilder {
	qb.limit = &limit
	return qb
}

// Offset sets the OFFSET clause
func (qb *QueryBuilder) Offset(offset int) *QueryBuilder {
	qb.offset = &offset
	return qb
}

// Returning sets the RETURNING clause for INSERT
func (qb *QueryBuilder) Returning(columns ...string) *QueryBuilder {
	qb.returning = columns
	return qb
}

// OnConflictDoNothing skips rows that collide on columns.
func (qb *QueryBuilder) OnConflictDoNothing(columns ...string) *QueryBuilder {
	qb.onConflict = &ConflictClause{Columns: columns, Action: DoNothing}
	return qb
}

// ToSQL generates the SQL query and parameter list
func (qb *QueryBuilder) ToSQL() (string, []interface{}, error) {
	switch qb.queryType {
	case SelectQuery:
		return qb.buildSelect()
	case CountQuery:
		return qb.buildCount()
	case InsertQuery:
		return qb.buildInsert()
	default:
		return "", nil, fmt.Errorf("unknown query type")
	}
}

func (qb *QueryBuilder) addCondition(c Condition) *QueryBuilder {
	qb.conditions = append(qb.conditions, c)
	return qb
}

func (qb *QueryBuilder) buildSelect() (string, []interface{}, error) {
	if qb.table == "" {
		return "", nil, fmt.Errorf("table name is required for SELECT query")
	}

	var query strings.Builder
	var params []interface{}
	paramIndex := 1

	query.WriteString("SELECT ")
	if len(qb.columns) == 0 {
		query.WriteString("*")
	} else {
		query.WriteString(strings.Join(qb.columns, ", "))
	}
	query.WriteString(" FROM ")
	query.WriteString(qb.table)

	whereClause, whereParams, newIndex, err := qb.buildConditions(qb.conditions, paramIndex)
	if err != nil {
		return "", nil, err
	}
	if whereClause != "" {
		query.WriteString(" WHERE ")
		query.WriteString(whereClause)
		params = append(params, whereParams...)
		paramIndex = newIndex
	}

	if len(qb.orderBy) > 0 {
		query.WriteString(" ORDER BY ")
		orderClauses := make([]string, len(qb.orderBy))
		for i, order := range qb.orderBy {
			direction := "ASC"
			if order.Direction == Desc {
				direction = "DESC"
			}
			orderClauses[i] = fmt.Sprintf("%s %s", order.Column, direction)
			if order.NullsLast {
				orderClauses[i] += " NULLS LAST"
			}
		}
		query.WriteString(strings.Join(orderClauses, ", "))
	}

	if qb.limit != nil {
		query.WriteString(fmt.Sprintf(" LIMIT $%d", paramIndex))
		params = append(params, *qb.limit)
		paramIndex++
	}

	if qb.offset != nil {
		query.WriteString(fmt.Sprintf(" OFFSET $%d", paramIndex))
		params = append(params, *qb.offset)
	}

	return query.String(), params, nil
}

func (qb *QueryBuilder) buildCount() (string, []interface{}, error) {
	if qb.table == "" {
		return "", nil, fmt.Errorf("table name is required for COUNT query")
	}

	query := "SELECT COUNT(*) FROM " + qb.table
	whereClause, params, _, err := qb.buildConditions(qb.conditions, 1)
	if err != nil {
		return "", nil, err
	}
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	return query, params, nil
}

func (qb *QueryBuilder) buildInsert() (string, []interface{}, error) {
	if qb.table == "" {
		return "", nil, fmt.Errorf("table name is required for INSERT query")
	}
	if len(qb.columns) == 0 {
		return "", nil, fmt.Errorf("no columns specified for INSERT query")
	}
	if len(qb.rows) == 0 {
		return "", nil, fmt.Errorf("no values specified for INSERT query")
	}

	var query strings.Builder
	params := make([]interface{}, 0, len(qb.rows)*len(qb.columns))
	paramIndex := 1

	query.WriteString("INSERT INTO ")
	query.WriteString(qb.table)
	query.WriteString(" (")
	query.WriteString(strings.Join(qb.columns, ", "))
	query.WriteString(") VALUES ")

	tuples := make([]string, len(qb.rows))
	for i, row := range qb.rows {
		if len(row) != len(qb.columns) {
			return "", nil, fmt.Errorf("row %d has %d values for %d columns", i, len(row), len(qb.columns))
		}
		placeholders := make([]string, len(row))
		for j, value := range row {
			placeholders[j] = fmt.Sprintf("$%d", paramIndex)
			params = append(params, value)
			paramIndex++
		}
		tuples[i] = "(" + strings.Join(placeholders, ", ") + ")"
	}
	query.WriteString(strings.Join(tuples, ", "))

	if qb.onConflict != nil {
		query.WriteString(" ON CONFLICT")
		if len(qb.onConflict.Columns) > 0 {
			query.WriteString(" (")
			query.WriteString(strings.Join(qb.onConflict.Columns, ", "))
			query.WriteString(")")
		}
		query.WriteString(" DO NOTHING")
	}

	if len(qb.returning) > 0 {
		query.WriteString(" RETURNING ")
		query.WriteString(strings.Join(qb.returning, ", "))
	}

	return query.String(), params, nil
}

func (qb *QueryBuilder) buildConditions(conditions []Condition, startIndex int) (string, []interface{}, int, error) {
	if len(conditions) == 0 {
		return "", nil, startIndex, nil
	}

	var parts []string
	var params []interface{}
	paramIndex := startIndex

	for i, condition := range conditions {
		var part string

		// Add logical operator (except for first condition)
		if i > 0 {
			if condition.Logical == Or {
				part = "OR "
			} else {
				part = "AND "
			}
		}

		if len(condition.Group) > 0 {
			members := make([]Condition, len(condition.Group))
			for j, member := range condition.Group {
				member.Logical = Or
				members[j] = member
			}
			groupClause, groupParams, newIndex, err := qb.buildConditions(members, paramIndex)
			if err != nil {
				return "", nil, 0, err
			}
			parts = append(parts, part+"("+groupClause+")")
			params = append(params, groupParams...)
			paramIndex = newIndex
			continue
		}

		clause, conditionParams, newIndex, err := renderCondition(condition, paramIndex)
		if err != nil {
			return "", nil, 0, err
		}
		parts = append(parts, part+clause)
		params = append(params, conditionParams...)
		paramIndex = newIndex
	}

	return strings.Join(parts, " "), params, paramIndex, nil
}

func renderCondition(c Condition, paramIndex int) (string, []interface{}, int, error) {
	binary := func(op string) (string, []interface{}, int, error) {
		return fmt.Sprintf("%s %s $%d", c.Column, op, paramIndex), []interface{}{c.Value}, paramIndex + 1, nil
	}

	switch c.Operator {
	case Equal:
		return binary("=")
	case NotEqual:
		return binary("!=")
	case GreaterThan:
		return binary(">")
	case GreaterThanOrEqual:
		return binary(">=")
	case LessThan:
		return binary("<")
	case LessThanOrEqual:
		return binary("<=")
	case ILike:
		return binary("ILIKE")
	case Contains:
		return binary("@>")
	case In:
		values, ok := c.Value.([]interface{})
		if !ok || len(values) == 0 {
			return "", nil, 0, fmt.Errorf("IN condition on %s requires a non-empty value list", c.Column)
		}
		placeholders := make([]string, len(values))
		for j := range values {
			placeholders[j] = fmt.Sprintf("$%d", paramIndex+j)
		}
		return fmt.Sprintf("%s IN (%s)", c.Column, strings.Join(placeholders, ", ")), values, paramIndex + len(values), nil
	case IsNull:
		return c.Column + " IS NULL", nil, paramIndex, nil
	case IsNotNull:
		return c.Column + " IS NOT NULL", nil, paramIndex, nil
	case IsTrue:
		return c.Column + " IS TRUE", nil, paramIndex, nil
	default:
		return "", nil, 0, fmt.Errorf("unsupported operator %d on %s", c.Operator, c.Column)
	}
}
