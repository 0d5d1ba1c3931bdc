package recordstore

import (
	"context"
	"encoding/json"
	"fmt"

	kivik "github.com/go-kivik/kivik/v4"
)

// Query is a Mango query: a MongoDB-style selector plus projection,
// sorting, and pagination.
type Query struct {
	Selector map[string]any
	Fields   []string
	Sort     []map[string]string
	Limit    int
	Skip     int
	UseIndex string
}

func (q *Query) toParams() map[string]any {
	params := make(map[string]any)
	if len(q.Fields) > 0 {
		params["fields"] = q.Fields
	}
	if len(q.Sort) > 0 {
		params["sort"] = q.Sort
	}
	if q.Limit > 0 {
		params["limit"] = q.Limit
	}
	if q.Skip > 0 {
		params["skip"] = q.Skip
	}
	if q.UseIndex != "" {
		params["use_index"] = q.UseIndex
	}
	return params
}

// Find executes a Mango query, returning matching documents as raw JSON.
func (c *Client) Find(ctx context.Context, query Query) ([]json.RawMessage, error) {
	rows := c.database.Find(ctx, query.Selector, kivik.Params(query.toParams()))
	defer rows.Close()

	var results []json.RawMessage
	for rows.Next() {
		var doc json.RawMessage
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		results = append(results, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, asTransportErr(err, "find_failed")
	}
	return results, nil
}

// FindTyped executes a Mango query with typed results.
func FindTyped[T any](ctx context.Context, c *Client, query Query) ([]T, error) {
	rows := c.database.Find(ctx, query.Selector, kivik.Params(query.toParams()))
	defer rows.Close()

	var results []T
	for rows.Next() {
		var doc T
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		results = append(results, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, asTransportErr(err, "find_failed")
	}
	return results, nil
}

// Count returns the number of documents matching selector.
func (c *Client) Count(ctx context.Context, selector map[string]any) (int, error) {
	rows := c.database.Find(ctx, selector)
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error counting documents: %w", err)
	}
	return count, nil
}

// QueryBuilder provides a fluent API for constructing Query values, used by
// the database facade's field-catalog and lookup operations so call sites
// read as a sequence of clauses instead of nested selector maps.
type QueryBuilder struct {
	conditions     []map[string]any
	currentCondSet []map[string]any
	logicalOp      string
	fields         []string
	sortFields     []map[string]string
	limitValue     int
	skipValue      int
	useIndexValue  string
}

// NewQueryBuilder returns an empty QueryBuilder ready for chaining.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{logicalOp: "and"}
}

// Where adds a condition on field using operator ("eq", "ne", "gt", "gte",
// "lt", "lte", "regex", "in", "nin", "exists").
func (qb *QueryBuilder) Where(field, operator string, value any) *QueryBuilder {
	var condition map[string]any
	switch operator {
	case "eq", "=", "==":
		condition = map[string]any{field: value}
	case "ne", "!=":
		condition = map[string]any{field: map[string]any{"$ne": value}}
	case "gt", ">":
		condition = map[string]any{field: map[string]any{"$gt": value}}
	case "gte", ">=":
		condition = map[string]any{field: map[string]any{"$gte": value}}
	case "lt", "<":
		condition = map[string]any{field: map[string]any{"$lt": value}}
	case "lte", "<=":
		condition = map[string]any{field: map[string]any{"$lte": value}}
	case "regex", "~=":
		condition = map[string]any{field: map[string]any{"$regex": value}}
	case "in":
		condition = map[string]any{field: map[string]any{"$in": value}}
	case "nin":
		condition = map[string]any{field: map[string]any{"$nin": value}}
	case "exists":
		condition = map[string]any{field: map[string]any{"$exists": value}}
	default:
		condition = map[string]any{field: value}
	}
	qb.currentCondSet = append(qb.currentCondSet, condition)
	return qb
}

// And flushes pending conditions and sets AND as the joiner. Build joins all
// conditions with the joiner set by the last And or Or call.
func (qb *QueryBuilder) And() *QueryBuilder {
	qb.flush()
	qb.logicalOp = "and"
	return qb
}

// Or flushes pending conditions and sets OR as the joiner. Build joins all
// conditions with the joiner set by the last And or Or call.
func (qb *QueryBuilder) Or() *QueryBuilder {
	qb.flush()
	qb.logicalOp = "or"
	return qb
}

func (qb *QueryBuilder) flush() {
	if len(qb.currentCondSet) > 0 {
		qb.conditions = append(qb.conditions, qb.currentCondSet...)
		qb.currentCondSet = nil
	}
}

// Select restricts the returned fields to the given projection.
func (qb *QueryBuilder) Select(fields ...string) *QueryBuilder {
	qb.fields = fields
	return qb
}

// SortBy adds a sort clause.
func (qb *QueryBuilder) SortBy(field, direction string) *QueryBuilder {
	qb.sortFields = append(qb.sortFields, map[string]string{field: direction})
	return qb
}

// Limit caps the number of returned results.
func (qb *QueryBuilder) Limit(n int) *QueryBuilder {
	qb.limitValue = n
	return qb
}

// Skip offsets into the result set for pagination.
func (qb *QueryBuilder) Skip(n int) *QueryBuilder {
	qb.skipValue = n
	return qb
}

// UseIndex hints which index the query should use.
func (qb *QueryBuilder) UseIndex(name string) *QueryBuilder {
	qb.useIndexValue = name
	return qb
}

// Build constructs the final Query from the accumulated clauses.
func (qb *QueryBuilder) Build() Query {
	qb.flush()

	var selector map[string]any
	switch len(qb.conditions) {
	case 0:
		selector = map[string]any{}
	case 1:
		selector = qb.conditions[0]
	default:
		key := "$and"
		if qb.logicalOp == "or" {
			key = "$or"
		}
		selector = map[string]any{key: qb.conditions}
	}

	return Query{
		Selector: selector,
		Fields:   qb.fields,
		Sort:     qb.sortFields,
		Limit:    qb.limitValue,
		Skip:     qb.skipValue,
		UseIndex: qb.useIndexValue,
	}
}
