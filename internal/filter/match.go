package filter

import (
	"cmp"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/iudanet/rowsync/internal/rows"
)

func (f ColumnValueFilter) IsMatch(columns []rows.Column, row *rows.Row) bool {
	idx := rows.ColumnIndex(columns, f.Column)
	if idx < 0 || row == nil {
		return false
	}
	return compareValue(columns[idx].Type, row.Value(idx), f.Operator, f.Value)
}

func (f ColumnColumnFilter) IsMatch(columns []rows.Column, row *rows.Row) bool {
	left := rows.ColumnIndex(columns, f.Column)
	right := rows.ColumnIndex(columns, f.Other)
	if left < 0 || right < 0 || row == nil {
		return false
	}
	other := row.Value(right)
	if other == nil {
		// сравнение с пустой колонкой истинно только для !=
		return f.Operator == OpNE && row.Value(left) != nil
	}
	return compareValue(columns[left].Type, row.Value(left), f.Operator, *other)
}

func (f ColumnIsNullFilter) IsMatch(columns []rows.Column, row *rows.Row) bool {
	idx := rows.ColumnIndex(columns, f.Column)
	if idx < 0 || row == nil {
		return false
	}
	v := row.Value(idx)
	return v == nil || strings.TrimSpace(*v) == ""
}

func (f IDFilter) IsMatch(_ []rows.Column, row *rows.Row) bool {
	if row == nil {
		return false
	}
	return compareLong(row.ID(), f.Operator, f.Value)
}

func (f VersionFilter) IsMatch(_ []rows.Column, row *rows.Row) bool {
	if row == nil {
		return false
	}
	return compareLong(row.Version(), f.Operator, f.Value)
}

func (f CompoundFilter) IsMatch(columns []rows.Column, row *rows.Row) bool {
	switch f.kind {
	case CompoundAnd:
		for _, child := range f.children {
			if !child.IsMatch(columns, row) {
				return false
			}
		}
		return true
	case CompoundOr:
		for _, child := range f.children {
			if child.IsMatch(columns, row) {
				return true
			}
		}
		return false
	case CompoundNot:
		return len(f.children) > 0 && !f.children[0].IsMatch(columns, row)
	default:
		return false
	}
}

// compareValue сравнивает значение ячейки с литералом с учетом типа колонки.
// Для текстовых колонок NULL равен пустой строке, для остальных
// NULL удовлетворяет только оператору !=.
func compareValue(typ rows.ValueType, cell *string, op Operator, value string) bool {
	if cell == nil {
		if !typ.IsString() {
			return op == OpNE
		}
		empty := ""
		cell = &empty
	}
	left := strings.TrimRight(*cell, " \t\r\n")

	if op.IsText() {
		return matchText(left, op, value)
	}

	switch {
	case typ.IsNumeric():
		l, lerr := cast.ToFloat64E(strings.TrimSpace(left))
		r, rerr := cast.ToFloat64E(strings.TrimSpace(value))
		if lerr == nil && rerr == nil {
			return matchOrder(cmp.Compare(l, r), op)
		}
	case typ == rows.TypeBoolean:
		l, lerr := cast.ToBoolE(strings.TrimSpace(left))
		r, rerr := cast.ToBoolE(strings.TrimSpace(value))
		if lerr == nil && rerr == nil {
			return matchOrder(cmpBool(l, r), op)
		}
	}

	return matchOrder(strings.Compare(left, strings.TrimRight(value, " \t\r\n")), op)
}

func compareLong(left int64, op Operator, right int64) bool {
	if op.IsText() {
		return matchText(strconv.FormatInt(left, 10), op, strconv.FormatInt(right, 10))
	}
	return matchOrder(cmp.Compare(left, right), op)
}

// matchText выполняет поиск подстроки без учета регистра
func matchText(left string, op Operator, right string) bool {
	l := strings.ToLower(left)
	r := strings.ToLower(right)
	switch op {
	case OpContains:
		return strings.Contains(l, r)
	case OpStarts:
		return strings.HasPrefix(l, r)
	case OpEnds:
		return strings.HasSuffix(l, r)
	default:
		return false
	}
}

func matchOrder(c int, op Operator) bool {
	switch op {
	case OpEQ:
		return c == 0
	case OpNE:
		return c != 0
	case OpLT:
		return c < 0
	case OpLE:
		return c <= 0
	case OpGT:
		return c > 0
	case OpGE:
		return c >= 0
	default:
		return false
	}
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// Apply возвращает строки набора, удовлетворяющие условию.
// Пустое условие пропускает все строки.
func Apply(f Filter, rs *rows.RowSet) []*rows.Row {
	if rs == nil {
		return nil
	}
	if f == nil {
		return rs.Rows()
	}

	columns := rs.Columns()
	var result []*rows.Row
	for _, row := range rs.Rows() {
		if f.IsMatch(columns, row) {
			result = append(result, row)
		}
	}
	return result
}
