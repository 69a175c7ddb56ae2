// Package filter provides AIP-160 filter parsing for journal queries. A
// parsed filter renders to a SQL condition for relational backends and
// matches events directly for key-value backends.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/agoraledger/forum/internal/services/forum/domain/event"
	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// EventDeclarations returns the field declarations for event filtering.
func EventDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("type", filtering.TypeString),
		filtering.DeclareIdent("entity_type", filtering.TypeString),
		filtering.DeclareIdent("entity_id", filtering.TypeString),
		filtering.DeclareIdent("actor_id", filtering.TypeString),
		filtering.DeclareIdent("request_id", filtering.TypeString),
		filtering.DeclareIdent("block", filtering.TypeInt),
		filtering.DeclareIdent("seq", filtering.TypeInt),
		filtering.DeclareIdent("ts", filtering.TypeTimestamp),
	)
}

// SQLCondition represents a SQL WHERE clause fragment with parameters.
type SQLCondition struct {
	// Clause is the SQL WHERE clause (e.g., "event_type = ?").
	Clause string
	// Params are the positional parameters for the clause.
	Params []any
}

// fieldMapping maps filter field names to SQL column names.
var fieldMapping = map[string]string{
	"type":        "event_type",
	"entity_type": "entity_type",
	"entity_id":   "entity_id",
	"actor_id":    "actor_id",
	"request_id":  "request_id",
	"block":       "block",
	"seq":         "seq",
	"ts":          "timestamp_ms",
}

// Filter is a parsed event filter. The zero value matches every event.
type Filter struct {
	root node
}

// Empty reports whether the filter matches everything.
func (f Filter) Empty() bool {
	return f.root == nil
}

// Parse parses an AIP-160 filter expression. An empty string yields the
// match-all filter.
func Parse(filterStr string) (Filter, error) {
	if strings.TrimSpace(filterStr) == "" {
		return Filter{}, nil
	}

	decls, err := EventDeclarations()
	if err != nil {
		return Filter{}, fmt.Errorf("create declarations: %w", err)
	}

	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return Filter{}, fmt.Errorf("parse filter: %w", err)
	}

	root, err := translateExpr(parsed.CheckedExpr.GetExpr())
	if err != nil {
		return Filter{}, err
	}
	return Filter{root: root}, nil
}

// ParseEventFilter parses an AIP-160 filter expression and returns a SQL
// condition. Returns an empty condition for an empty filter string.
func ParseEventFilter(filterStr string) (SQLCondition, error) {
	f, err := Parse(filterStr)
	if err != nil {
		return SQLCondition{}, err
	}
	return f.SQL(), nil
}

// SQL renders the filter as a WHERE clause fragment.
func (f Filter) SQL() SQLCondition {
	if f.root == nil {
		return SQLCondition{}
	}
	return f.root.sql()
}

// Match reports whether evt satisfies the filter.
func (f Filter) Match(evt event.Event) bool {
	if f.root == nil {
		return true
	}
	return f.root.match(evt)
}

type node interface {
	sql() SQLCondition
	match(evt event.Event) bool
}

type andNode struct{ left, right node }

func (n andNode) sql() SQLCondition {
	left, right := n.left.sql(), n.right.sql()
	return SQLCondition{
		Clause: fmt.Sprintf("(%s AND %s)", left.Clause, right.Clause),
		Params: append(left.Params, right.Params...),
	}
}

func (n andNode) match(evt event.Event) bool { return n.left.match(evt) && n.right.match(evt) }

type orNode struct{ left, right node }

func (n orNode) sql() SQLCondition {
	left, right := n.left.sql(), n.right.sql()
	return SQLCondition{
		Clause: fmt.Sprintf("(%s OR %s)", left.Clause, right.Clause),
		Params: append(left.Params, right.Params...),
	}
}

func (n orNode) match(evt event.Event) bool { return n.left.match(evt) || n.right.match(evt) }

type notNode struct{ inner node }

func (n notNode) sql() SQLCondition {
	inner := n.inner.sql()
	return SQLCondition{Clause: fmt.Sprintf("(NOT %s)", inner.Clause), Params: inner.Params}
}

func (n notNode) match(evt event.Event) bool { return !n.inner.match(evt) }

type comparison struct {
	field string
	op    string
	value any // string or uint64 or int64 (timestamp millis)
}

func (c comparison) sql() SQLCondition {
	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", fieldMapping[c.field], c.op),
		Params: []any{c.value},
	}
}

func (c comparison) match(evt event.Event) bool {
	switch c.field {
	case "type":
		return compareOrdered(string(evt.Type), c.value.(string), c.op)
	case "entity_type":
		return compareOrdered(evt.EntityType, c.value.(string), c.op)
	case "entity_id":
		return compareOrdered(evt.EntityID, c.value.(string), c.op)
	case "actor_id":
		return compareOrdered(evt.ActorID, c.value.(string), c.op)
	case "request_id":
		return compareOrdered(evt.RequestID, c.value.(string), c.op)
	case "block":
		return compareOrdered(evt.Block, c.value.(uint64), c.op)
	case "seq":
		return compareOrdered(evt.Seq, c.value.(uint64), c.op)
	case "ts":
		return compareOrdered(evt.Timestamp.UnixMilli(), c.value.(int64), c.op)
	default:
		return false
	}
}

func compareOrdered[T string | uint64 | int64](left, right T, op string) bool {
	switch op {
	case "=":
		return left == right
	case "!=":
		return left != right
	case "<":
		return left < right
	case "<=":
		return left <= right
	case ">":
		return left > right
	case ">=":
		return left >= right
	default:
		return false
	}
}

// translateExpr translates a CEL expression to a filter node.
func translateExpr(e *expr.Expr) (node, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return translateCall(kind.CallExpr)
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

// translateCall translates a CEL function call to a filter node.
func translateCall(call *expr.Expr_Call) (node, error) {
	switch call.Function {
	case "_&&_", "AND":
		left, right, err := translatePair(call.Args, "AND")
		if err != nil {
			return nil, err
		}
		return andNode{left: left, right: right}, nil
	case "_||_", "OR":
		left, right, err := translatePair(call.Args, "OR")
		if err != nil {
			return nil, err
		}
		return orNode{left: left, right: right}, nil
	case "NOT", "-":
		if len(call.Args) != 1 {
			return nil, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := translateExpr(call.Args[0])
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	case "_==_", "=":
		return translateComparison(call.Args, "=")
	case "_!=_", "!=":
		return translateComparison(call.Args, "!=")
	case "_<_", "<":
		return translateComparison(call.Args, "<")
	case "_<=_", "<=":
		return translateComparison(call.Args, "<=")
	case "_>_", ">":
		return translateComparison(call.Args, ">")
	case "_>=_", ">=":
		return translateComparison(call.Args, ">=")
	default:
		return nil, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func translatePair(args []*expr.Expr, name string) (node, node, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("%s requires 2 arguments", name)
	}
	left, err := translateExpr(args[0])
	if err != nil {
		return nil, nil, err
	}
	right, err := translateExpr(args[1])
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func translateComparison(args []*expr.Expr, op string) (node, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := extractFieldName(args[0])
	if err != nil {
		return nil, err
	}
	if _, ok := fieldMapping[field]; !ok {
		return nil, fmt.Errorf("unknown field: %s", field)
	}

	value, err := extractValue(args[1])
	if err != nil {
		return nil, err
	}
	value, err = coerceValue(field, value)
	if err != nil {
		return nil, err
	}
	return comparison{field: field, op: op, value: value}, nil
}

// coerceValue normalizes a literal to the Go type the field compares as.
func coerceValue(field string, value any) (any, error) {
	switch field {
	case "block", "seq":
		switch v := value.(type) {
		case int64:
			if v < 0 {
				return nil, fmt.Errorf("%s must be non-negative", field)
			}
			return uint64(v), nil
		case uint64:
			return v, nil
		default:
			return nil, fmt.Errorf("%s requires an integer, got %T", field, value)
		}
	case "ts":
		switch v := value.(type) {
		case time.Time:
			return v.UnixMilli(), nil
		case string:
			t, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return nil, fmt.Errorf("invalid timestamp format: %s", v)
			}
			return t.UnixMilli(), nil
		default:
			return nil, fmt.Errorf("ts requires a timestamp, got %T", value)
		}
	default:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s requires a string, got %T", field, value)
		}
		return s, nil
	}
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(kind.ConstExpr)
	case *expr.Expr_CallExpr:
		if kind.CallExpr.Function == "timestamp" && len(kind.CallExpr.Args) == 1 {
			return extractTimestampValue(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}

	switch kind := c.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return kind.Uint64Value, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

func extractTimestampValue(e *expr.Expr) (time.Time, error) {
	if e == nil {
		return time.Time{}, fmt.Errorf("nil timestamp argument")
	}

	kind, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp argument must be a constant string")
	}
	strVal, ok := kind.ConstExpr.ConstantKind.(*expr.Constant_StringValue)
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp argument must be a string")
	}
	t, err := time.Parse(time.RFC3339Nano, strVal.StringValue)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp format: %s", strVal.StringValue)
	}
	return t.UTC(), nil
}
