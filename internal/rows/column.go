package rows

import (
	"fmt"
	"strings"
)

// ValueType тип значения колонки. Значения ячеек всегда хранятся строками,
// тип определяет их интерпретацию (сравнение, форматирование).
type ValueType string

// ValueType константы
const (
	TypeString   ValueType = "STRING"
	TypeText     ValueType = "TEXT"
	TypeInteger  ValueType = "INTEGER"
	TypeLong     ValueType = "LONG"
	TypeDecimal  ValueType = "DECIMAL"
	TypeNumber   ValueType = "NUMBER"
	TypeBoolean  ValueType = "BOOLEAN"
	TypeDate     ValueType = "DATE"
	TypeDateTime ValueType = "DATE_TIME"
)

// IsString сообщает, хранит ли тип произвольный текст
func (t ValueType) IsString() bool {
	return t == TypeString || t == TypeText || t == ""
}

// IsNumeric сообщает, является ли тип числовым
func (t ValueType) IsNumeric() bool {
	switch t {
	case TypeInteger, TypeLong, TypeDecimal, TypeNumber:
		return true
	default:
		return false
	}
}

// ParseValueType разбирает имя типа без учета регистра
func ParseValueType(s string) (ValueType, error) {
	t := ValueType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TypeString, TypeText, TypeInteger, TypeLong, TypeDecimal,
		TypeNumber, TypeBoolean, TypeDate, TypeDateTime:
		return t, nil
	case "":
		return TypeString, nil
	default:
		return "", fmt.Errorf("unknown value type: %q", s)
	}
}

// Column описывает колонку набора строк
type Column struct {
	ID        string    `json:"id" yaml:"id"`               // ID идентификатор колонки во view
	Label     string    `json:"label" yaml:"label"`         // Label заголовок для отображения
	Type      ValueType `json:"type" yaml:"type"`           // Type тип значения
	Precision int       `json:"precision" yaml:"precision"` // Precision общее количество цифр (для DECIMAL)
	Scale     int       `json:"scale" yaml:"scale"`         // Scale количество цифр после запятой
	Nullable  bool      `json:"nullable" yaml:"nullable"`   // Nullable допускает ли колонка пустые значения
	ReadOnly  bool      `json:"read_only" yaml:"read_only"` // ReadOnly колонка не редактируется клиентом
}

// NewColumn создает колонку с заголовком, равным идентификатору
func NewColumn(id string, typ ValueType) Column {
	return Column{ID: id, Label: id, Type: typ, Nullable: true}
}

// DefaultColumnID возвращает идентификатор колонки по умолчанию для позиции index
func DefaultColumnID(index int) string {
	if index > 0 && index < 1000 {
		return fmt.Sprintf("col%03d", index)
	}
	return fmt.Sprintf("col%d", index)
}

// ColumnIndex ищет колонку по идентификатору без учета регистра.
// Возвращает -1, если колонка не найдена.
func ColumnIndex(columns []Column, id string) int {
	for i := range columns {
		if strings.EqualFold(columns[i].ID, id) {
			return i
		}
	}
	return -1
}
