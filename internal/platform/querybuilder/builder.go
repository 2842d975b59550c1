package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// Condition renders one WHERE/ON predicate. Bound values become $n placeholders.
type Condition interface {
	appendSQL(buf *strings.Builder, args *[]any, argIndex *int)
}

type eqCondition struct {
	column string
	value  any
}

func Eq(column string, value any) Condition {
	return eqCondition{column: column, value: value}
}

func (c eqCondition) appendSQL(buf *strings.Builder, args *[]any, argIndex *int) {
	buf.WriteString(c.column)
	buf.WriteString(" = ")
	bind(buf, c.value, args, argIndex)
}

type inLiteralCondition struct {
	column string
	values []string
}

// InLiteral inlines values as quoted literals, for engines that cannot bind inside COPY.
func InLiteral(column string, values ...string) Condition {
	return inLiteralCondition{column: column, values: values}
}

func (c inLiteralCondition) appendSQL(buf *strings.Builder, _ *[]any, _ *int) {
	if len(c.values) == 0 {
		buf.WriteString("1=0")
		return
	}
	quoted := make([]string, 0, len(c.values))
	for _, v := range c.values {
		quoted = append(quoted, Quote(v))
	}
	buf.WriteString(c.column)
	buf.WriteString(" IN (")
	buf.WriteString(strings.Join(quoted, ", "))
	buf.WriteString(")")
}

type nullCondition struct {
	column string
	negate bool
}

func IsNull(column string) Condition    { return nullCondition{column: column} }
func IsNotNull(column string) Condition { return nullCondition{column: column, negate: true} }

func (c nullCondition) appendSQL(buf *strings.Builder, _ *[]any, _ *int) {
	buf.WriteString(c.column)
	if c.negate {
		buf.WriteString(" IS NOT NULL")
		return
	}
	buf.WriteString(" IS NULL")
}

type exprCondition struct {
	expr string
	args []any
}

// Expr is a raw predicate; each ? is bound to the next arg.
func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) appendSQL(buf *strings.Builder, args *[]any, argIndex *int) {
	next := 0
	for i := 0; i < len(c.expr); i++ {
		if c.expr[i] == '?' && next < len(c.args) {
			bind(buf, c.args[next], args, argIndex)
			next++
			continue
		}
		buf.WriteByte(c.expr[i])
	}
}

type join struct {
	kind   string
	source string
	on     []Condition
}

type cte struct {
	name  string
	query *SelectBuilder
}

type SelectBuilder struct {
	with    []cte
	columns []string
	from    string
	joins   []join
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) With(name string, query *SelectBuilder) *SelectBuilder {
	b.with = append(b.with, cte{name: name, query: query})
	return b
}

func (b *SelectBuilder) From(source string) *SelectBuilder {
	b.from = source
	return b
}

func (b *SelectBuilder) Join(source string, on ...Condition) *SelectBuilder {
	b.joins = append(b.joins, join{kind: "JOIN", source: source, on: on})
	return b
}

func (b *SelectBuilder) LeftJoin(source string, on ...Condition) *SelectBuilder {
	b.joins = append(b.joins, join{kind: "LEFT JOIN", source: source, on: on})
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	var buf strings.Builder
	args := make([]any, 0, len(b.where))
	argIndex := 1
	if err := b.appendSQL(&buf, &args, &argIndex); err != nil {
		return "", nil, err
	}
	return buf.String(), args, nil
}

func (b *SelectBuilder) appendSQL(buf *strings.Builder, args *[]any, argIndex *int) error {
	if len(b.columns) == 0 {
		return fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.from) == "" {
		return fmt.Errorf("select source is required")
	}

	if len(b.with) > 0 {
		buf.WriteString("WITH ")
		for i, c := range b.with {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(c.name)
			buf.WriteString(" AS (")
			if err := c.query.appendSQL(buf, args, argIndex); err != nil {
				return fmt.Errorf("cte %s: %w", c.name, err)
			}
			buf.WriteString(")")
		}
		buf.WriteString(" ")
	}

	buf.WriteString("SELECT ")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(" FROM ")
	buf.WriteString(b.from)
	for _, j := range b.joins {
		buf.WriteString(" ")
		buf.WriteString(j.kind)
		buf.WriteString(" ")
		buf.WriteString(j.source)
		if len(j.on) > 0 {
			buf.WriteString(" ON ")
			appendConditions(buf, j.on, args, argIndex)
		}
	}
	if len(b.where) > 0 {
		buf.WriteString(" WHERE ")
		appendConditions(buf, b.where, args, argIndex)
	}
	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY ")
		buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(b.limit))
	}
	return nil
}

func appendConditions(buf *strings.Builder, conditions []Condition, args *[]any, argIndex *int) {
	for i, c := range conditions {
		if i > 0 {
			buf.WriteString(" AND ")
		}
		c.appendSQL(buf, args, argIndex)
	}
}

func bind(buf *strings.Builder, value any, args *[]any, argIndex *int) {
	buf.WriteString("$" + strconv.Itoa(*argIndex))
	*args = append(*args, value)
	*argIndex = *argIndex + 1
}

// Quote renders a single-quoted SQL string literal.
func Quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// QuoteIdent renders a double-quoted identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
