package rows

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/iudanet/rowsync/internal/codec"
)

// rowWire описывает сериализованную строку.
// Порядок полей в fields() фиксирован протоколом: ID, VERSION, VALUES, SHADOW, PROPERTIES.
// Новые поля добавляются только в конец.
type rowWire struct {
	ID         *string
	Version    *string
	Values     *string
	Shadow     *string // Shadow пары index/value, nil если строка "чистая"
	Properties *string // Properties пары key/value, nil если свойств нет
}

const rowWireFields = 5

func (w rowWire) fields() []*string {
	return []*string{w.ID, w.Version, w.Values, w.Shadow, w.Properties}
}

func rowWireFromFields(fields []*string) (rowWire, error) {
	if len(fields) != rowWireFields {
		return rowWire{}, fmt.Errorf("%w: row has %d fields, expected %d",
			ErrMalformedPayload, len(fields), rowWireFields)
	}
	return rowWire{
		ID:         fields[0],
		Version:    fields[1],
		Values:     fields[2],
		Shadow:     fields[3],
		Properties: fields[4],
	}, nil
}

// Serialize кодирует строку вместе с shadow и свойствами
func (r *Row) Serialize() (string, error) {
	c := codec.Default

	values, err := c.Encode(r.values)
	if err != nil {
		return "", fmt.Errorf("failed to encode values: %w", err)
	}

	w := rowWire{
		ID:      codec.Ptr(strconv.FormatInt(r.id, 10)),
		Version: codec.Ptr(strconv.FormatInt(r.version, 10)),
		Values:  &values,
	}

	if len(r.shadow) > 0 {
		indexes := r.DirtyIndexes()
		pairs := make([]*string, 0, len(indexes)*2)
		for _, idx := range indexes {
			pairs = append(pairs, codec.Ptr(strconv.Itoa(idx)), r.shadow[idx])
		}
		shadow, err := c.Encode(pairs)
		if err != nil {
			return "", fmt.Errorf("failed to encode shadow: %w", err)
		}
		w.Shadow = &shadow
	}

	if len(r.properties) > 0 {
		keys := make([]string, 0, len(r.properties))
		for k := range r.properties {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		pairs := make([]*string, 0, len(keys)*2)
		for _, k := range keys {
			pairs = append(pairs, codec.Strings(k, r.properties[k])...)
		}
		props, err := c.Encode(pairs)
		if err != nil {
			return "", fmt.Errorf("failed to encode properties: %w", err)
		}
		w.Properties = &props
	}

	return c.Encode(w.fields())
}

// Deserialize восстанавливает состояние строки из результата Serialize.
// Требует ровно пять полей верхнего уровня; пустые SHADOW и PROPERTIES допустимы.
func (r *Row) Deserialize(s string) error {
	c := codec.Default

	fields, err := c.Decode(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	w, err := rowWireFromFields(fields)
	if err != nil {
		return err
	}

	id, err := parseLong(w.ID)
	if err != nil {
		return fmt.Errorf("%w: id: %v", ErrMalformedPayload, err)
	}
	version, err := parseLong(w.Version)
	if err != nil {
		return fmt.Errorf("%w: version: %v", ErrMalformedPayload, err)
	}

	values, err := c.Decode(codec.Deref(w.Values))
	if err != nil {
		return fmt.Errorf("%w: values: %v", ErrMalformedPayload, err)
	}

	var shadow map[int]*string
	if raw := codec.Deref(w.Shadow); raw != "" {
		pairs, err := c.Decode(raw)
		if err != nil {
			return fmt.Errorf("%w: shadow: %v", ErrMalformedPayload, err)
		}
		if len(pairs)%2 != 0 {
			return fmt.Errorf("%w: shadow has odd number of elements", ErrMalformedPayload)
		}
		if len(pairs) > 0 {
			shadow = make(map[int]*string, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				idx, err := strconv.Atoi(codec.Deref(pairs[i]))
				if err != nil || idx < 0 || idx >= len(values) {
					return fmt.Errorf("%w: invalid shadow index %q", ErrMalformedPayload, codec.Deref(pairs[i]))
				}
				shadow[idx] = pairs[i+1]
			}
		}
	}

	var properties map[string]string
	if raw := codec.Deref(w.Properties); raw != "" {
		pairs, err := c.Decode(raw)
		if err != nil {
			return fmt.Errorf("%w: properties: %v", ErrMalformedPayload, err)
		}
		if len(pairs)%2 != 0 {
			return fmt.Errorf("%w: properties have odd number of elements", ErrMalformedPayload)
		}
		if len(pairs) > 0 {
			properties = make(map[string]string, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				properties[codec.Deref(pairs[i])] = codec.Deref(pairs[i+1])
			}
		}
	}

	r.id = id
	r.version = version
	r.values = cloneValues(values)
	r.shadow = shadow
	r.properties = properties

	return nil
}

// Restore создает строку из сериализованного представления
func Restore(s string) (*Row, error) {
	row := NewRow(NewRowID, NewRowVersion)
	if err := row.Deserialize(s); err != nil {
		return nil, err
	}
	return row, nil
}

// rowSetWire описывает сериализованный набор строк: VIEW, COLUMNS, ROWS
type rowSetWire struct {
	View    *string
	Columns *string
	Rows    *string
}

const rowSetWireFields = 3

func (w rowSetWire) fields() []*string {
	return []*string{w.View, w.Columns, w.Rows}
}

func rowSetWireFromFields(fields []*string) (rowSetWire, error) {
	if len(fields) != rowSetWireFields {
		return rowSetWire{}, fmt.Errorf("%w: row set has %d fields, expected %d",
			ErrMalformedPayload, len(fields), rowSetWireFields)
	}
	return rowSetWire{View: fields[0], Columns: fields[1], Rows: fields[2]}, nil
}

// порядок полей колонки: ID, LABEL, TYPE, PRECISION, SCALE, NULLABLE, READ_ONLY
const columnWireFields = 7

func serializeColumn(col Column) (string, error) {
	return codec.Default.Encode([]*string{
		codec.Ptr(col.ID),
		codec.Ptr(col.Label),
		codec.Ptr(string(col.Type)),
		codec.Ptr(strconv.Itoa(col.Precision)),
		codec.Ptr(strconv.Itoa(col.Scale)),
		codec.Ptr(strconv.FormatBool(col.Nullable)),
		codec.Ptr(strconv.FormatBool(col.ReadOnly)),
	})
}

func restoreColumn(s string) (Column, error) {
	fields, err := codec.Default.Decode(s)
	if err != nil {
		return Column{}, fmt.Errorf("%w: column: %v", ErrMalformedPayload, err)
	}
	if len(fields) != columnWireFields {
		return Column{}, fmt.Errorf("%w: column has %d fields, expected %d",
			ErrMalformedPayload, len(fields), columnWireFields)
	}

	typ, err := ParseValueType(codec.Deref(fields[2]))
	if err != nil {
		return Column{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	precision, err := strconv.Atoi(codec.Deref(fields[3]))
	if err != nil {
		return Column{}, fmt.Errorf("%w: precision: %v", ErrMalformedPayload, err)
	}
	scale, err := strconv.Atoi(codec.Deref(fields[4]))
	if err != nil {
		return Column{}, fmt.Errorf("%w: scale: %v", ErrMalformedPayload, err)
	}

	return Column{
		ID:        codec.Deref(fields[0]),
		Label:     codec.Deref(fields[1]),
		Type:      typ,
		Precision: precision,
		Scale:     scale,
		Nullable:  codec.Deref(fields[5]) == "true",
		ReadOnly:  codec.Deref(fields[6]) == "true",
	}, nil
}

// Serialize кодирует набор строк: имя view, колонки и строки (с shadow)
func (rs *RowSet) Serialize() (string, error) {
	c := codec.Default

	cols := make([]*string, 0, len(rs.columns))
	for _, col := range rs.columns {
		s, err := serializeColumn(col)
		if err != nil {
			return "", fmt.Errorf("failed to encode column %s: %w", col.ID, err)
		}
		cols = append(cols, &s)
	}
	columns, err := c.Encode(cols)
	if err != nil {
		return "", fmt.Errorf("failed to encode columns: %w", err)
	}

	w := rowSetWire{
		View:    codec.Ptr(rs.viewName),
		Columns: &columns,
	}

	if len(rs.rows) > 0 {
		encoded := make([]*string, 0, len(rs.rows))
		for _, row := range rs.rows {
			s, err := row.Serialize()
			if err != nil {
				return "", fmt.Errorf("failed to encode row %d: %w", row.ID(), err)
			}
			encoded = append(encoded, &s)
		}
		rowsData, err := c.Encode(encoded)
		if err != nil {
			return "", fmt.Errorf("failed to encode rows: %w", err)
		}
		w.Rows = &rowsData
	}

	return c.Encode(w.fields())
}

// RestoreRowSet создает набор строк из результата RowSet.Serialize
func RestoreRowSet(s string) (*RowSet, error) {
	c := codec.Default

	fields, err := c.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	w, err := rowSetWireFromFields(fields)
	if err != nil {
		return nil, err
	}

	encodedColumns, err := c.Decode(codec.Deref(w.Columns))
	if err != nil {
		return nil, fmt.Errorf("%w: columns: %v", ErrMalformedPayload, err)
	}

	columns := make([]Column, 0, len(encodedColumns))
	for _, ec := range encodedColumns {
		col, err := restoreColumn(codec.Deref(ec))
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}

	rs := NewRowSet(codec.Deref(w.View), columns...)

	if raw := codec.Deref(w.Rows); raw != "" {
		encodedRows, err := c.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: rows: %v", ErrMalformedPayload, err)
		}
		for _, er := range encodedRows {
			row, err := Restore(codec.Deref(er))
			if err != nil {
				return nil, err
			}
			if err := rs.AddRow(row); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
			}
		}
	}

	return rs, nil
}

func parseLong(v *string) (int64, error) {
	if v == nil {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.ParseInt(*v, 10, 64)
}
