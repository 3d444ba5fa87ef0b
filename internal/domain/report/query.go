package report

import (
	"fmt"
	"sort"
	"strings"
)

// Query is a parameterised SELECT built from a definition and filter values.
type Query struct {
	SQL  string
	Args []any
	// Ignored holds filter keys the definition does not know.
	Ignored []string
}

// BuildQuery renders def with the given filters. Empty values are skipped.
// The limit is applied as MaxRows+1 so callers can detect truncation.
func BuildQuery(def Definition, filters map[string]any) (Query, error) {
	var q Query
	exprs := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		exprs[i] = c.Expr
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(exprs, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(def.Table)
	if def.Joins != "" {
		sb.WriteString(" ")
		sb.WriteString(def.Joins)
	}

	var conds []string
	if def.Where != "" {
		conds = append(conds, def.Where)
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := filters[key]
		f, ok := def.Filters[key]
		if !ok {
			q.Ignored = append(q.Ignored, key)
			continue
		}
		if isEmpty(val) {
			continue
		}
		cond, args, err := renderFilter(f, val, len(q.Args))
		if err != nil {
			return Query{}, fmt.Errorf("filter %q: %w", key, err)
		}
		conds = append(conds, cond)
		q.Args = append(q.Args, args...)
	}

	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	if def.OrderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(def.OrderBy)
	}
	fmt.Fprintf(&sb, " LIMIT %d", MaxRows+1)

	q.SQL = sb.String()
	return q, nil
}

// UnknownFilters returns the filter keys def does not define, sorted.
func UnknownFilters(def Definition, filters map[string]any) []string {
	var out []string
	for k := range filters {
		if _, ok := def.Filters[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func renderFilter(f Filter, val any, offset int) (string, []any, error) {
	n := offset + 1
	if f.Op == OpIn {
		list, ok := val.([]any)
		if !ok {
			list = []any{val}
		}
		placeholders := make([]string, len(list))
		args := make([]any, len(list))
		for i, v := range list {
			arg, err := scalar(v)
			if err != nil {
				return "", nil, err
			}
			placeholders[i] = fmt.Sprintf("$%d", n+i)
			args[i] = arg
		}
		return fmt.Sprintf("%s IN (%s)", f.Column, strings.Join(placeholders, ", ")), args, nil
	}

	arg, err := scalar(val)
	if err != nil {
		return "", nil, err
	}
	switch f.Op {
	case OpEq:
		return fmt.Sprintf("%s = $%d", f.Column, n), []any{arg}, nil
	case OpGte:
		return fmt.Sprintf("%s >= $%d", f.Column, n), []any{arg}, nil
	case OpLte:
		return fmt.Sprintf("%s <= $%d", f.Column, n), []any{arg}, nil
	case OpLike:
		return fmt.Sprintf("%s ILIKE $%d", f.Column, n), []any{"%" + fmt.Sprint(arg) + "%"}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operator %q", f.Op)
	}
}

// ValidateFilters reports ErrInvalidDefinition for filter values that cannot be bound.
func ValidateFilters(def Definition, filters map[string]any) error {
	_, err := BuildQuery(def, filters)
	return err
}

// scalar accepts the JSON scalars a filter can bind. Whole numbers become int64 so
// id comparisons bind cleanly; objects and arrays are rejected.
func scalar(v any) (any, error) {
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return int64(t), nil
		}
		return t, nil
	case string, bool, int, int64:
		return t, nil
	default:
		return nil, fmt.Errorf("%w: value of type %T is not a scalar", ErrInvalidDefinition, v)
	}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	}
	return false
}
