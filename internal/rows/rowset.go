package rows

import (
	"fmt"
	"slices"
)

// RowSet набор строк одного view с общими метаданными колонок.
// Строки адресуются по id при сопоставлении с ответом сервера
// и по позиции при доступе к ячейкам.
type RowSet struct {
	viewName string
	columns  []Column
	rows     []*Row
}

// NewRowSet создает пустой набор строк
func NewRowSet(viewName string, columns ...Column) *RowSet {
	return &RowSet{
		viewName: viewName,
		columns:  slices.Clone(columns),
	}
}

// ViewName возвращает имя view, из которого получены строки
func (rs *RowSet) ViewName() string {
	return rs.viewName
}

// Columns возвращает копию описаний колонок
func (rs *RowSet) Columns() []Column {
	return slices.Clone(rs.columns)
}

// NumberOfColumns возвращает количество колонок
func (rs *RowSet) NumberOfColumns() int {
	return len(rs.columns)
}

// ColumnIndex возвращает позицию колонки или -1
func (rs *RowSet) ColumnIndex(id string) int {
	return ColumnIndex(rs.columns, id)
}

// Column возвращает описание колонки по идентификатору
func (rs *RowSet) Column(id string) (Column, bool) {
	idx := rs.ColumnIndex(id)
	if idx < 0 {
		return Column{}, false
	}
	return rs.columns[idx], true
}

// AddRow добавляет строку. Количество ячеек должно совпадать с количеством колонок.
func (rs *RowSet) AddRow(row *Row) error {
	if row.NumberOfCells() != len(rs.columns) {
		return fmt.Errorf("%w: row %d has %d cells, row set has %d columns",
			ErrColumnCount, row.ID(), row.NumberOfCells(), len(rs.columns))
	}
	rs.rows = append(rs.rows, row)
	return nil
}

// AddEmptyRow добавляет новую строку для вставки.
// Строка получает временный отрицательный id, уникальный в пределах набора.
func (rs *RowSet) AddEmptyRow() *Row {
	tempID := int64(-1)
	for _, row := range rs.rows {
		if row.ID() <= tempID {
			tempID = row.ID() - 1
		}
	}

	row := NewEmptyRow(len(rs.columns))
	row.SetID(tempID)
	rs.rows = append(rs.rows, row)
	return row
}

// Rows возвращает копию списка строк (сами строки не копируются)
func (rs *RowSet) Rows() []*Row {
	return slices.Clone(rs.rows)
}

// Row возвращает строку по позиции
func (rs *RowSet) Row(index int) *Row {
	return rs.rows[index]
}

// NumberOfRows возвращает количество строк
func (rs *RowSet) NumberOfRows() int {
	return len(rs.rows)
}

// IsEmpty сообщает, что в наборе нет строк
func (rs *RowSet) IsEmpty() bool {
	return len(rs.rows) == 0
}

// FindRow ищет строку по идентификатору
func (rs *RowSet) FindRow(id int64) *Row {
	for _, row := range rs.rows {
		if row.ID() == id {
			return row
		}
	}
	return nil
}

// RemoveRow удаляет строку из набора (сравнение по указателю)
func (rs *RowSet) RemoveRow(row *Row) bool {
	idx := slices.Index(rs.rows, row)
	if idx < 0 {
		return false
	}
	rs.rows = slices.Delete(rs.rows, idx, idx+1)
	return true
}

// GetChanges возвращает набор измененных, новых и помеченных для удаления строк.
// Возвращает nil, если изменений нет: вызывающий код не должен обращаться к серверу.
// Строки в результате разделяются с исходным набором по ссылке.
func (rs *RowSet) GetChanges() *RowSet {
	if rs.IsEmpty() {
		return nil
	}

	update := NewRowSet(rs.viewName, rs.columns...)
	for _, row := range rs.rows {
		if row.State() != StateClean {
			update.rows = append(update.rows, row)
		}
	}

	if update.IsEmpty() {
		return nil
	}
	return update
}

// Commit применяет подтвержденный сервером набор строк.
// Ответ сервера авторитетен: значения и версия строки перезаписываются целиком.
// Строки без локального соответствия пропускаются (локальная строка могла быть
// уже отброшена пользователем). Новая строка без назначенного сервером id
// остается неподтвержденной; Commit возвращает временные id таких строк.
func (rs *RowSet) Commit(update *RowSet) []int64 {
	if update == nil || update.IsEmpty() {
		return nil
	}

	var unresolved []int64
	for _, upd := range update.rows {
		dst := rs.FindRow(upd.ID())
		if dst == nil {
			continue
		}

		if dst.IsMarkedForDelete() {
			rs.RemoveRow(dst)
			continue
		}

		if dst.IsNew() {
			newID, ok := upd.NewID()
			if !ok || !IsID(newID) {
				unresolved = append(unresolved, dst.ID())
				continue
			}
			dst.SetID(newID)
		}
		rs.overwrite(dst, upd, update.columns)
		dst.SetVersion(upd.Version())
		dst.Reset()
	}
	return unresolved
}

// overwrite копирует значения строки сервера. Если колонки ответа совпадают
// с локальными, строка копируется целиком, иначе по идентификаторам колонок.
func (rs *RowSet) overwrite(dst, src *Row, srcColumns []Column) {
	if src.NumberOfCells() == dst.NumberOfCells() && sameColumnIDs(rs.columns, srcColumns) {
		dst.SetValues(src.values)
		return
	}

	for i, col := range srcColumns {
		if idx := rs.ColumnIndex(col.ID); idx >= 0 && idx < dst.NumberOfCells() {
			dst.SetValue(idx, src.Value(i))
		}
	}
}

// Rollback отменяет все локальные изменения: новые строки удаляются,
// измененные ячейки получают исходные значения, пометки удаления снимаются.
func (rs *RowSet) Rollback() {
	if rs.IsEmpty() {
		return
	}

	// итерируемся по снимку: RemoveRow изменяет rs.rows
	for _, row := range slices.Clone(rs.rows) {
		if row.IsNew() {
			rs.RemoveRow(row)
			continue
		}

		for idx, original := range row.shadow {
			row.SetValue(idx, original)
		}
		row.Reset()
		row.UnmarkForDelete()
	}
}

// Clone создает глубокую копию набора. Shadow строк не копируется.
func (rs *RowSet) Clone() *RowSet {
	result := NewRowSet(rs.viewName, rs.columns...)
	result.rows = make([]*Row, 0, len(rs.rows))
	for _, row := range rs.rows {
		result.rows = append(result.rows, row.Copy())
	}
	return result
}

func sameColumnIDs(a, b []Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
