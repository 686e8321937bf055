package rows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmptyRow(t *testing.T) {
	row := NewEmptyRow(3)

	assert.Equal(t, NewRowID, row.ID())
	assert.True(t, row.IsNew())
	assert.Equal(t, 3, row.NumberOfCells())
	assert.True(t, row.IsNull(0))
	assert.Equal(t, StateMarkedForInsert, row.State())
}

func TestRow_PreliminaryUpdate_RecordsShadow(t *testing.T) {
	row := NewRow(5, 2, "Alice", "30")

	changed := row.PreliminaryUpdate(1, "31")
	require.True(t, changed)

	shadow, ok := row.ShadowString(1)
	require.True(t, ok)
	assert.Equal(t, "30", shadow)
	assert.Equal(t, "31", row.String(1))
	assert.True(t, row.IsDirty())
	assert.Equal(t, StateDirty, row.State())

	_, ok = row.ShadowString(0)
	assert.False(t, ok, "untouched cell has no shadow")
}

func TestRow_PreliminaryUpdate_KeepsFirstBaseline(t *testing.T) {
	row := NewRow(1, 1, "a")

	row.PreliminaryUpdate(0, "b")
	row.PreliminaryUpdate(0, "c")

	shadow, ok := row.ShadowString(0)
	require.True(t, ok)
	assert.Equal(t, "a", shadow, "baseline is the value before the first edit")
	assert.Equal(t, "c", row.String(0))
}

func TestRow_PreliminaryUpdate_RevertClearsShadow(t *testing.T) {
	row := NewRow(1, 1, "a", "b")

	row.PreliminaryUpdate(0, "x")
	row.PreliminaryUpdate(1, "y")
	assert.Equal(t, []int{0, 1}, row.DirtyIndexes())

	row.PreliminaryUpdate(0, "a")
	_, ok := row.ShadowString(0)
	assert.False(t, ok)
	assert.True(t, row.IsDirty(), "other cell is still dirty")

	row.PreliminaryUpdate(1, "b")
	assert.False(t, row.IsDirty())
	assert.Empty(t, row.shadow)
	assert.Equal(t, StateClean, row.State())
}

func TestRow_PreliminaryUpdate_Whitespace(t *testing.T) {
	tests := []struct {
		name     string
		initial  string
		value    string
		changed  bool
		expected string
	}{
		{
			name:     "trailing whitespace ignored",
			initial:  "abc",
			value:    "abc   ",
			changed:  false,
			expected: "abc",
		},
		{
			name:     "leading whitespace significant",
			initial:  "abc",
			value:    " abc",
			changed:  true,
			expected: " abc",
		},
		{
			name:     "different value",
			initial:  "abc",
			value:    "abd",
			changed:  true,
			expected: "abd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := NewRow(1, 1, tt.initial)

			changed := row.PreliminaryUpdate(0, tt.value)

			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.expected, row.String(0))
			assert.Equal(t, tt.changed, row.IsDirty())
		})
	}
}

func TestRow_PreliminaryUpdate_RevertWithTrailingSpaces(t *testing.T) {
	row := NewRow(1, 1, "code")

	row.PreliminaryUpdate(0, "other")
	row.PreliminaryUpdate(0, "code  ")

	assert.False(t, row.IsDirty(), "revert compares without trailing whitespace")
	assert.Equal(t, "code  ", row.String(0), "new value is still written")
}

func TestRow_PreliminaryUpdateValue_Null(t *testing.T) {
	row := NewRow(1, 1, "value")

	require.True(t, row.PreliminaryUpdateValue(0, nil))
	assert.True(t, row.IsNull(0))

	shadow, ok := row.ShadowString(0)
	require.True(t, ok)
	assert.Equal(t, "value", shadow)

	// NULL изначально и пустая строка считаются равными
	empty := NewEmptyRow(1)
	assert.False(t, empty.PreliminaryUpdate(0, ""))
	assert.False(t, empty.PreliminaryUpdate(0, "   "))
	assert.True(t, empty.PreliminaryUpdate(0, "x"))

	shadow, ok = empty.ShadowString(0)
	require.True(t, ok)
	assert.Equal(t, "", shadow)
	assert.Nil(t, empty.ShadowValue(0))
}

func TestRow_SetValueIsUntracked(t *testing.T) {
	row := NewRow(1, 1, "a")

	row.SetString(0, "b")

	assert.Equal(t, "b", row.String(0))
	assert.False(t, row.IsDirty())
}

func TestRow_Reset(t *testing.T) {
	row := NewRow(1, 1, "a", "b")
	row.PreliminaryUpdate(0, "x")
	row.PreliminaryUpdate(1, "y")

	row.Reset()

	assert.False(t, row.IsDirty())
	assert.Equal(t, []string{"x", "y"}, cellStrings(row), "reset keeps current values")
}

func TestRow_Copy(t *testing.T) {
	row := NewRow(7, 3, "a", "b")
	row.SetProperty("note", "hello")
	row.PreliminaryUpdate(0, "changed")

	cp := row.Copy()

	assert.Equal(t, row.ID(), cp.ID())
	assert.Equal(t, row.Version(), cp.Version())
	assert.Equal(t, cellStrings(row), cellStrings(cp))
	assert.Equal(t, row.properties, cp.properties)
	assert.False(t, cp.IsDirty(), "copy starts clean")

	cp.SetString(1, "other")
	cp.SetProperty("note", "bye")
	assert.Equal(t, "b", row.String(1), "values are deep copied")
	v, _ := row.Property("note")
	assert.Equal(t, "hello", v, "properties are deep copied")
}

func TestRow_MarkForDelete(t *testing.T) {
	row := NewRow(3, 1, "a")

	row.MarkForDelete()
	assert.True(t, row.IsMarkedForDelete())
	assert.Equal(t, StateMarkedForDelete, row.State())

	row.UnmarkForDelete()
	assert.False(t, row.IsMarkedForDelete())
	assert.Equal(t, StateClean, row.State())
	assert.Nil(t, row.properties)
}

func TestRow_NewID(t *testing.T) {
	row := NewRow(NewRowID, NewRowVersion, "a")

	_, ok := row.NewID()
	assert.False(t, ok)

	row.SetNewID(42)
	id, ok := row.NewID()
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestRowState_String(t *testing.T) {
	assert.Equal(t, "CLEAN", StateClean.String())
	assert.Equal(t, "DIRTY", StateDirty.String())
	assert.Equal(t, "MARKED_FOR_INSERT", StateMarkedForInsert.String())
	assert.Equal(t, "MARKED_FOR_DELETE", StateMarkedForDelete.String())
}

// cellStrings возвращает значения ячеек, NULL как пустые строки
func cellStrings(r *Row) []string {
	result := make([]string, r.NumberOfCells())
	for i := range result {
		result[i] = r.String(i)
	}
	return result
}
