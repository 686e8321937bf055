package rows

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const idListSeparator = ","

// IsID сообщает, что значение является идентификатором сохраненной строки
func IsID(id int64) bool {
	return id > 0
}

// GetUpdated строит набор для отправки изменений одной строки, сравнивая старую
// и новую версии. В набор попадают только редактируемые измененные колонки,
// новые значения записываются через PreliminaryUpdate, поэтому shadow содержит
// исходные значения. Возвращает nil, если изменений нет.
func GetUpdated(viewName string, columns []Column, oldRow, newRow *Row) (*RowSet, error) {
	if len(columns) == 0 {
		return nil, nil
	}
	if oldRow.NumberOfCells() != len(columns) || newRow.NumberOfCells() != len(columns) {
		return nil, fmt.Errorf("%w: old %d, new %d, columns %d", ErrColumnCount,
			oldRow.NumberOfCells(), newRow.NumberOfCells(), len(columns))
	}

	var (
		updatedColumns []Column
		oldValues      []*string
		newValues      []*string
	)

	for i, col := range columns {
		if col.ReadOnly {
			continue
		}
		if !equalsTrimRight(oldRow.Value(i), newRow.Value(i)) {
			updatedColumns = append(updatedColumns, col)
			oldValues = append(oldValues, oldRow.Value(i))
			newValues = append(newValues, newRow.Value(i))
		}
	}

	if len(updatedColumns) == 0 {
		return nil, nil
	}

	row := NewRowFromValues(oldRow.ID(), oldRow.Version(), oldValues)
	for i := range newValues {
		row.PreliminaryUpdateValue(i, newValues[i])
	}

	rs := NewRowSet(viewName, updatedColumns...)
	if err := rs.AddRow(row); err != nil {
		return nil, err
	}
	return rs, nil
}

// CreateRowSetForInsert строит набор для вставки строки: только редактируемые
// колонки с непустыми значениями (или перечисленные в alwaysInclude).
// Возвращает nil, если вставлять нечего.
func CreateRowSetForInsert(viewName string, columns []Column, row *Row, alwaysInclude ...string) *RowSet {
	var (
		newColumns []Column
		values     []*string
	)

	for i, col := range columns {
		if col.ReadOnly {
			continue
		}
		value := row.Value(i)
		if trimRight(value) != "" || slices.ContainsFunc(alwaysInclude, func(id string) bool {
			return strings.EqualFold(id, col.ID)
		}) {
			newColumns = append(newColumns, col)
			values = append(values, value)
		}
	}

	if len(newColumns) == 0 {
		return nil
	}

	rs := NewRowSet(viewName, newColumns...)
	rs.rows = append(rs.rows, NewRowFromValues(NewRowID, NewRowVersion, values))
	return rs
}

// RowIDs возвращает идентификаторы строк набора, nil для пустого набора
func RowIDs(rs *RowSet) []int64 {
	if rs == nil || rs.IsEmpty() {
		return nil
	}
	ids := make([]int64, 0, rs.NumberOfRows())
	for _, row := range rs.rows {
		ids = append(ids, row.ID())
	}
	return ids
}

// BuildIDList объединяет идентификаторы через запятую, пропуская несохраненные
func BuildIDList(ids ...int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if IsID(id) {
			parts = append(parts, strconv.FormatInt(id, 10))
		}
	}
	return strings.Join(parts, idListSeparator)
}

// ParseIDList разбирает список идентификаторов. Пустые и некорректные элементы пропускаются.
func ParseIDList(input string) []int64 {
	var result []int64
	for _, part := range strings.Split(input, idListSeparator) {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err == nil && IsID(id) {
			result = append(result, id)
		}
	}
	return result
}

// RowsEqual сравнивает id, версию и значения строк (без учета хвостовых пробелов)
func RowsEqual(r1, r2 *Row) bool {
	switch {
	case r1 == nil || r2 == nil:
		return r1 == r2
	case r1 == r2:
		return true
	case r1.ID() != r2.ID() || r1.Version() != r2.Version():
		return false
	case r1.NumberOfCells() != r2.NumberOfCells():
		return false
	}

	for i := range r1.values {
		if !equalsTrimRight(r1.values[i], r2.values[i]) {
			return false
		}
	}
	return true
}

// SameIDAndVersion сообщает, что строки указывают на одну версию записи
func SameIDAndVersion(r1, r2 *Row) bool {
	return r1 != nil && r2 != nil && r1.ID() == r2.ID() && r1.Version() == r2.Version()
}

// FilterRows возвращает строки, у которых значение колонки равно value
func FilterRows(rs *RowSet, columnID, value string) []*Row {
	idx := rs.ColumnIndex(columnID)
	if idx < 0 {
		return nil
	}

	var result []*Row
	for _, row := range rs.rows {
		if equalsTrimRight(row.Value(idx), &value) {
			result = append(result, row)
		}
	}
	return result
}
