// Package filter содержит дерево условий отбора строк и разбор
// пользовательских выражений вида `Name = "A, B" AND Age > 5`.
package filter

import (
	"slices"
	"strconv"
	"strings"

	"github.com/iudanet/rowsync/internal/rows"
)

// Имена служебных полей в текстовой форме фильтра
const (
	DefaultIDName      = "ID"
	DefaultVersionName = "Version"
)

// Filter узел дерева условий. Узлы неизменяемы после создания.
type Filter interface {
	// IsMatch проверяет строку набора с колонками columns
	IsMatch(columns []rows.Column, row *rows.Row) bool
	// String возвращает выражение, которое разбирается обратно в эквивалентный узел
	String() string
}

// ColumnValueFilter сравнивает значение колонки с литералом
type ColumnValueFilter struct {
	Column   string
	Operator Operator
	Value    string
}

// ColumnColumnFilter сравнивает значения двух колонок одной строки
type ColumnColumnFilter struct {
	Column   string
	Operator Operator
	Other    string
}

// ColumnIsNullFilter проверяет, что значение колонки пустое
type ColumnIsNullFilter struct {
	Column string
}

// IDFilter сравнивает идентификатор строки
type IDFilter struct {
	Operator Operator
	Value    int64
}

// VersionFilter сравнивает версию строки
type VersionFilter struct {
	Operator Operator
	Value    int64
}

// CompoundType тип составного узла
type CompoundType string

// CompoundType константы
const (
	CompoundAnd CompoundType = "AND"
	CompoundOr  CompoundType = "OR"
	CompoundNot CompoundType = "NOT"
)

// CompoundFilter объединяет дочерние узлы
type CompoundFilter struct {
	kind     CompoundType
	children []Filter
}

// CompareWithValue создает сравнение колонки с литералом
func CompareWithValue(column string, op Operator, value string) Filter {
	return ColumnValueFilter{Column: column, Operator: op, Value: value}
}

// CompareWithColumn создает сравнение двух колонок
func CompareWithColumn(column string, op Operator, other string) Filter {
	return ColumnColumnFilter{Column: column, Operator: op, Other: other}
}

// IsNull создает проверку на пустое значение
func IsNull(column string) Filter {
	return ColumnIsNullFilter{Column: column}
}

// NotNull создает проверку на непустое значение
func NotNull(column string) Filter {
	return IsNot(IsNull(column))
}

// CompareID создает сравнение идентификатора строки
func CompareID(op Operator, value int64) Filter {
	return IDFilter{Operator: op, Value: value}
}

// CompareVersion создает сравнение версии строки
func CompareVersion(op Operator, value int64) Filter {
	return VersionFilter{Operator: op, Value: value}
}

// And объединяет условия через AND. nil-аргументы пропускаются,
// единственное условие возвращается без обертки.
func And(filters ...Filter) Filter {
	return compound(CompoundAnd, filters)
}

// Or объединяет условия через OR по тем же правилам, что и And
func Or(filters ...Filter) Filter {
	return compound(CompoundOr, filters)
}

// IsNot отрицает условие. Для nil возвращает nil.
func IsNot(f Filter) Filter {
	if f == nil {
		return nil
	}
	return CompoundFilter{kind: CompoundNot, children: []Filter{f}}
}

func compound(kind CompoundType, filters []Filter) Filter {
	children := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			children = append(children, f)
		}
	}

	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	default:
		return CompoundFilter{kind: kind, children: children}
	}
}

// Type возвращает тип составного узла
func (f CompoundFilter) Type() CompoundType {
	return f.kind
}

// Children возвращает копию списка дочерних узлов
func (f CompoundFilter) Children() []Filter {
	return slices.Clone(f.children)
}

func (f ColumnValueFilter) String() string {
	return f.Column + " " + string(f.Operator) + " " + quote(f.Value)
}

func (f ColumnColumnFilter) String() string {
	return f.Column + " " + string(f.Operator) + " " + f.Other
}

func (f ColumnIsNullFilter) String() string {
	return f.Column + " " + string(OpEQ)
}

func (f IDFilter) String() string {
	return DefaultIDName + " " + string(f.Operator) + " " + strconv.FormatInt(f.Value, 10)
}

func (f VersionFilter) String() string {
	return DefaultVersionName + " " + string(f.Operator) + " " + strconv.FormatInt(f.Value, 10)
}

func (f CompoundFilter) String() string {
	if f.kind == CompoundNot {
		if len(f.children) == 0 {
			return ""
		}
		return "NOT(" + f.children[0].String() + ")"
	}

	parts := make([]string, 0, len(f.children))
	for _, child := range f.children {
		s := child.String()
		if c, ok := child.(CompoundFilter); ok && c.kind != CompoundNot {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " "+string(f.kind)+" ")
}

// quote заключает литерал в кавычки, удваивая внутренние
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// unquote снимает внешние кавычки и схлопывает удвоенные внутренние
func unquote(s string) (string, bool) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s, false
	}
	return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`), true
}
