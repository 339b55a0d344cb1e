package dictionary

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// FilterCondition is a SQL WHERE fragment with `?` placeholders over the gloss table aliased `g`.
type FilterCondition struct {
	Clause string
	Params []interface{}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `%`)

// filterFields maps the filterable identifiers, JSON names and columns, to their field.
var filterFields = func() map[string]GlossField {
	fields := make(map[string]GlossField, 2*len(GlossFields)+2)
	for _, f := range GlossFields {
		fields[f.Name] = f
		fields[f.Column] = f
	}
	fields["created_at"] = GlossField{Name: "created_at", Column: "created_at", Kind: kindTimestamp}
	fields["updated_at"] = GlossField{Name: "updated_at", Column: "updated_at", Kind: kindTimestamp}
	return fields
}()

const kindTimestamp FieldKind = -1

// GlossFilterDeclarations declares the gloss fields usable in a filter expression.
func GlossFilterDeclarations() (*filtering.Declarations, error) {
	opts := []filtering.DeclarationOption{
		filtering.DeclareStandardFunctions(),
		// boolean literals are parsed as identifiers
		filtering.DeclareIdent("true", filtering.TypeBool),
		filtering.DeclareIdent("false", filtering.TypeBool),
	}
	for name, f := range filterFields {
		var typ *expr.Type
		switch f.Kind {
		case KindInt, KindNullInt:
			typ = filtering.TypeInt
		case KindBool:
			typ = filtering.TypeBool
		case kindTimestamp:
			typ = filtering.TypeTimestamp
		default:
			typ = filtering.TypeString
		}
		opts = append(opts, filtering.DeclareIdent(name, typ))
	}
	return filtering.NewDeclarations(opts...)
}

// ParseGlossFilter translates an AIP-160 filter, e.g. `idgloss = "AB*" AND locprim > 3`, into SQL.
// String equality accepts `*` wildcards and `:` tests for a case-insensitive substring.
func ParseGlossFilter(filterStr string) (FilterCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return FilterCondition{}, nil
	}

	decls, err := GlossFilterDeclarations()
	if err != nil {
		return FilterCondition{}, fmt.Errorf("create declarations: %w", err)
	}

	filter, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return FilterCondition{}, fmt.Errorf("parse filter: %w", err)
	}
	return translateExpr(filter.CheckedExpr.GetExpr())
}

func translateExpr(e *expr.Expr) (FilterCondition, error) {
	if e == nil {
		return FilterCondition{}, fmt.Errorf("empty expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return translateCall(kind.CallExpr)
	case *expr.Expr_IdentExpr:
		// bare boolean field
		field, err := lookupField(kind.IdentExpr.Name)
		if err != nil {
			return FilterCondition{}, err
		}
		if field.Kind != KindBool {
			return FilterCondition{}, fmt.Errorf("field %s is not a boolean", field.Name)
		}
		return FilterCondition{Clause: "g." + field.Column + " = ?", Params: []interface{}{true}}, nil
	default:
		return FilterCondition{}, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func translateCall(call *expr.Expr_Call) (FilterCondition, error) {
	switch call.Function {
	case filtering.FunctionAnd, filtering.FunctionFuzzyAnd, "_&&_":
		return translateLogical(call.Args, "AND")
	case filtering.FunctionOr, "_||_":
		return translateLogical(call.Args, "OR")
	case filtering.FunctionNot, "!_":
		if len(call.Args) != 1 {
			return FilterCondition{}, fmt.Errorf("NOT requires 1 argument")
		}
		cond, err := translateExpr(call.Args[0])
		if err != nil {
			return FilterCondition{}, err
		}
		return FilterCondition{Clause: "NOT " + cond.Clause, Params: cond.Params}, nil
	case filtering.FunctionEquals, "_==_":
		return translateComparison(call.Args, "=")
	case filtering.FunctionNotEquals, "_!=_":
		return translateComparison(call.Args, "!=")
	case filtering.FunctionLessThan, "_<_":
		return translateComparison(call.Args, "<")
	case filtering.FunctionLessEquals, "_<=_":
		return translateComparison(call.Args, "<=")
	case filtering.FunctionGreaterThan, "_>_":
		return translateComparison(call.Args, ">")
	case filtering.FunctionGreaterEquals, "_>=_":
		return translateComparison(call.Args, ">=")
	case filtering.FunctionHas:
		return translateHas(call.Args)
	default:
		return FilterCondition{}, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func translateLogical(args []*expr.Expr, op string) (FilterCondition, error) {
	if len(args) != 2 {
		return FilterCondition{}, fmt.Errorf("%s requires 2 arguments", op)
	}

	left, err := translateExpr(args[0])
	if err != nil {
		return FilterCondition{}, err
	}
	right, err := translateExpr(args[1])
	if err != nil {
		return FilterCondition{}, err
	}

	return FilterCondition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, op, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}

func translateComparison(args []*expr.Expr, op string) (FilterCondition, error) {
	if len(args) != 2 {
		return FilterCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}

	name, err := extractFieldName(args[0])
	if err != nil {
		return FilterCondition{}, err
	}
	field, err := lookupField(name)
	if err != nil {
		return FilterCondition{}, err
	}
	value, err := extractValue(args[1])
	if err != nil {
		return FilterCondition{}, err
	}

	column := "g." + field.Column
	if s, ok := value.(string); ok && field.Kind == kindTimestamp {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return FilterCondition{}, fmt.Errorf("invalid timestamp format: %s", s)
		}
		value = t.UTC()
	}
	if s, ok := value.(string); ok && field.Kind == KindString && strings.Contains(s, "*") {
		switch op {
		case "=":
			return FilterCondition{
				Clause: fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, column),
				Params: []interface{}{strings.ToLower(wildcardEscaper.Replace(s))},
			}, nil
		case "!=":
			return FilterCondition{
				Clause: fmt.Sprintf(`LOWER(%s) NOT LIKE ? ESCAPE '\'`, column),
				Params: []interface{}{strings.ToLower(wildcardEscaper.Replace(s))},
			}, nil
		}
	}

	return FilterCondition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []interface{}{value},
	}, nil
}

func translateHas(args []*expr.Expr) (FilterCondition, error) {
	if len(args) != 2 {
		return FilterCondition{}, fmt.Errorf("has requires 2 arguments")
	}

	name, err := extractFieldName(args[0])
	if err != nil {
		return FilterCondition{}, err
	}
	field, err := lookupField(name)
	if err != nil {
		return FilterCondition{}, err
	}
	value, err := extractValue(args[1])
	if err != nil {
		return FilterCondition{}, err
	}
	s, ok := value.(string)
	if !ok || field.Kind != KindString {
		return FilterCondition{}, fmt.Errorf("has requires a text field and a string value")
	}

	return FilterCondition{
		Clause: fmt.Sprintf(`LOWER(g.%s) LIKE ? ESCAPE '\'`, field.Column),
		Params: []interface{}{"%" + strings.ToLower(wildcardEscaper.Replace(s)) + "%"},
	}, nil
}

func lookupField(name string) (GlossField, error) {
	field, ok := filterFields[name]
	if !ok {
		return GlossField{}, fmt.Errorf("unknown field: %s", name)
	}
	return field, nil
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

func extractValue(e *expr.Expr) (interface{}, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(kind.ConstExpr)
	case *expr.Expr_CallExpr:
		if kind.CallExpr.Function == filtering.FunctionTimestamp && len(kind.CallExpr.Args) == 1 {
			return extractTimestampValue(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	case *expr.Expr_IdentExpr:
		switch kind.IdentExpr.Name {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("expected constant, got identifier %s", kind.IdentExpr.Name)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (interface{}, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}

	switch kind := c.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return int64(kind.Uint64Value), nil
	case *expr.Constant_DoubleValue:
		return kind.DoubleValue, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
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
