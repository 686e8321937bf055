package rows

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

const (
	// NewRowID идентификатор строки, еще не сохраненной на сервере
	NewRowID int64 = 0
	// NewRowVersion версия новой строки (не имеет смысла до commit)
	NewRowVersion int64 = 0
)

// Зарезервированные ключи свойств строки
const (
	// PropertyNewID содержит идентификатор, назначенный сервером вставленной строке
	PropertyNewID = "_new_id"
	// PropertyDeleted помечает строку для удаления до подтверждения сервером
	PropertyDeleted = "_deleted"
)

// RowState состояние строки относительно сервера
type RowState int

// RowState константы
const (
	StateClean RowState = iota
	StateDirty
	StateMarkedForInsert
	StateMarkedForDelete
)

func (s RowState) String() string {
	switch s {
	case StateClean:
		return "CLEAN"
	case StateDirty:
		return "DIRTY"
	case StateMarkedForInsert:
		return "MARKED_FOR_INSERT"
	case StateMarkedForDelete:
		return "MARKED_FOR_DELETE"
	default:
		return "UNKNOWN"
	}
}

// Row представляет одну запись view.
// Хранит текущие значения ячеек и разреженную карту shadow с исходными
// значениями измененных ячеек. Копия всей строки для отката не хранится.
type Row struct {
	shadow     map[int]*string   // shadow index -> последнее "чистое" значение ячейки
	properties map[string]string // properties произвольные временные данные строки
	values     []*string         // values значения ячеек (nil = NULL)
	id         int64             // id идентификатор строки, NewRowID для новой
	version    int64             // version версия строки на сервере
}

// NewRow создает строку из обычных строковых значений
func NewRow(id, version int64, values ...string) *Row {
	cells := make([]*string, len(values))
	for i := range values {
		v := values[i]
		cells[i] = &v
	}
	return &Row{id: id, version: version, values: cells}
}

// NewRowFromValues создает строку из nullable значений (слайс копируется)
func NewRowFromValues(id, version int64, values []*string) *Row {
	return &Row{id: id, version: version, values: cloneValues(values)}
}

// NewEmptyRow создает новую строку для вставки, все ячейки NULL
func NewEmptyRow(columnCount int) *Row {
	return &Row{
		id:      NewRowID,
		version: NewRowVersion,
		values:  make([]*string, columnCount),
	}
}

// ID возвращает идентификатор строки
func (r *Row) ID() int64 {
	return r.id
}

// SetID устанавливает идентификатор строки
func (r *Row) SetID(id int64) {
	r.id = id
}

// Version возвращает версию строки
func (r *Row) Version() int64 {
	return r.version
}

// SetVersion устанавливает версию строки
func (r *Row) SetVersion(version int64) {
	r.version = version
}

// IsNew сообщает, что строка еще не сохранена на сервере.
// Отрицательные идентификаторы выдаются RowSet.AddEmptyRow как временные.
func (r *Row) IsNew() bool {
	return r.id <= NewRowID
}

// NumberOfCells возвращает количество ячеек
func (r *Row) NumberOfCells() int {
	return len(r.values)
}

// Value возвращает значение ячейки, nil для NULL или индекса вне диапазона
func (r *Row) Value(index int) *string {
	if index < 0 || index >= len(r.values) {
		return nil
	}
	return r.values[index]
}

// String возвращает значение ячейки, пустую строку для NULL
func (r *Row) String(index int) string {
	if v := r.Value(index); v != nil {
		return *v
	}
	return ""
}

// IsNull сообщает, что ячейка пуста
func (r *Row) IsNull(index int) bool {
	return r.Value(index) == nil
}

// Values возвращает копию nullable значений
func (r *Row) Values() []*string {
	return cloneValues(r.values)
}

// SetValue записывает значение без отслеживания изменений.
// Используется для повторной установки "чистого" состояния после commit.
func (r *Row) SetValue(index int, value *string) {
	r.values[index] = cloneValue(value)
}

// SetString записывает строковое значение без отслеживания изменений
func (r *Row) SetString(index int, value string) {
	r.SetValue(index, &value)
}

// SetValues заменяет все значения без отслеживания изменений
func (r *Row) SetValues(values []*string) {
	r.values = cloneValues(values)
}

// PreliminaryUpdate изменяет ячейку с отслеживанием исходного значения.
// Возвращает true, если значение изменилось.
func (r *Row) PreliminaryUpdate(index int, value string) bool {
	return r.PreliminaryUpdateValue(index, &value)
}

// PreliminaryUpdateValue изменяет ячейку (в том числе на NULL) с отслеживанием.
// Значения сравниваются без учета хвостовых пробелов, ведущие пробелы значимы.
// Первое изменение ячейки запоминает ее текущее значение в shadow; возврат
// к запомненному значению удаляет запись из shadow.
func (r *Row) PreliminaryUpdateValue(index int, value *string) bool {
	old := r.values[index]
	if equalsTrimRight(value, old) {
		return false
	}

	if r.shadow == nil {
		r.shadow = make(map[int]*string)
	}

	if baseline, ok := r.shadow[index]; !ok {
		r.shadow[index] = old
	} else if equalsTrimRight(baseline, value) {
		delete(r.shadow, index)
		if len(r.shadow) == 0 {
			r.Reset()
		}
	}

	r.values[index] = cloneValue(value)
	return true
}

// ShadowString возвращает исходное значение измененной ячейки.
// Второй результат false, если ячейка не изменялась.
func (r *Row) ShadowString(index int) (string, bool) {
	v, ok := r.shadow[index]
	if !ok {
		return "", false
	}
	if v == nil {
		return "", true
	}
	return *v, true
}

// ShadowValue возвращает исходное nullable значение или nil
func (r *Row) ShadowValue(index int) *string {
	return r.shadow[index]
}

// DirtyIndexes возвращает отсортированные индексы измененных ячеек
func (r *Row) DirtyIndexes() []int {
	return slices.Sorted(maps.Keys(r.shadow))
}

// IsDirty сообщает, что у строки есть неподтвержденные изменения ячеек
func (r *Row) IsDirty() bool {
	return len(r.shadow) > 0
}

// Reset отбрасывает shadow: строка становится "чистой"
func (r *Row) Reset() {
	r.shadow = nil
}

// Copy создает глубокую копию строки без shadow
func (r *Row) Copy() *Row {
	return &Row{
		id:         r.id,
		version:    r.version,
		values:     cloneValues(r.values),
		properties: maps.Clone(r.properties),
	}
}

// Property возвращает свойство строки
func (r *Row) Property(key string) (string, bool) {
	v, ok := r.properties[key]
	return v, ok
}

// SetProperty устанавливает свойство строки
func (r *Row) SetProperty(key, value string) {
	if r.properties == nil {
		r.properties = make(map[string]string)
	}
	r.properties[key] = value
}

// RemoveProperty удаляет свойство строки
func (r *Row) RemoveProperty(key string) {
	delete(r.properties, key)
	if len(r.properties) == 0 {
		r.properties = nil
	}
}

// MarkForDelete помечает строку для удаления на сервере
func (r *Row) MarkForDelete() {
	r.SetProperty(PropertyDeleted, "1")
}

// UnmarkForDelete снимает пометку удаления
func (r *Row) UnmarkForDelete() {
	r.RemoveProperty(PropertyDeleted)
}

// IsMarkedForDelete сообщает, что строка ожидает удаления
func (r *Row) IsMarkedForDelete() bool {
	_, ok := r.properties[PropertyDeleted]
	return ok
}

// NewID возвращает идентификатор, назначенный сервером при вставке
func (r *Row) NewID() (int64, bool) {
	v, ok := r.properties[PropertyNewID]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// SetNewID записывает назначенный сервером идентификатор
func (r *Row) SetNewID(id int64) {
	r.SetProperty(PropertyNewID, strconv.FormatInt(id, 10))
}

// State возвращает состояние строки. Пометка удаления важнее вставки,
// вставка важнее изменения ячеек.
func (r *Row) State() RowState {
	switch {
	case r.IsMarkedForDelete():
		return StateMarkedForDelete
	case r.IsNew():
		return StateMarkedForInsert
	case r.IsDirty():
		return StateDirty
	default:
		return StateClean
	}
}

// equalsTrimRight сравнивает значения без учета хвостовых пробелов.
// NULL равен строке, состоящей только из пробелов.
func equalsTrimRight(a, b *string) bool {
	return trimRight(a) == trimRight(b)
}

func trimRight(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimRightFunc(*v, unicode.IsSpace)
}

func cloneValue(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

func cloneValues(values []*string) []*string {
	if values == nil {
		return []*string{}
	}
	result := make([]*string, len(values))
	for i, v := range values {
		result[i] = cloneValue(v)
	}
	return result
}
