package repository

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/m3-catalog/internal/models"
)

// Page bounds used when a caller passes an unnormalised request.
const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// conditions accumulates AND-ed predicates with positional arguments.
type conditions struct {
	clauses []string
	args    []interface{}
}

// add appends a predicate; expr must contain exactly one %d for the placeholder index.
func (c *conditions) add(expr string, arg interface{}) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(expr, len(c.args)))
}

// raw appends a predicate without arguments.
func (c *conditions) raw(expr string) {
	c.clauses = append(c.clauses, expr)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return " WHERE 1=1"
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

func pageClause(p models.PageRequest) string {
	p = p.Normalize(defaultPageSize, maxPageSize)
	return fmt.Sprintf(" LIMIT %d OFFSET %d", p.PageSize, p.Offset())
}

func execOr(db *sqlx.DB, exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return db
}
