package rows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRowSet(t *testing.T) *RowSet {
	t.Helper()

	rs := NewRowSet("Persons",
		NewColumn("Name", TypeString),
		NewColumn("Age", TypeInteger),
	)
	require.NoError(t, rs.AddRow(NewRow(1, 10, "Alice", "30")))
	require.NoError(t, rs.AddRow(NewRow(2, 20, "Bob", "40")))
	require.NoError(t, rs.AddRow(NewRow(3, 30, "Carol", "50")))
	return rs
}

func TestRowSet_AddRow_ColumnCount(t *testing.T) {
	rs := NewRowSet("v", NewColumn("A", TypeString))

	err := rs.AddRow(NewRow(1, 1, "a", "b"))
	assert.ErrorIs(t, err, ErrColumnCount)
	assert.True(t, rs.IsEmpty())
}

func TestRowSet_AddEmptyRow(t *testing.T) {
	rs := newTestRowSet(t)

	r1 := rs.AddEmptyRow()
	r2 := rs.AddEmptyRow()

	assert.True(t, r1.IsNew())
	assert.True(t, r2.IsNew())
	assert.NotEqual(t, r1.ID(), r2.ID(), "temporary ids are unique")
	assert.Equal(t, 2, r1.NumberOfCells())
	assert.Equal(t, 5, rs.NumberOfRows())
}

func TestRowSet_ColumnIndex(t *testing.T) {
	rs := newTestRowSet(t)

	assert.Equal(t, 1, rs.ColumnIndex("age"))
	assert.Equal(t, -1, rs.ColumnIndex("missing"))

	col, ok := rs.Column("NAME")
	require.True(t, ok)
	assert.Equal(t, "Name", col.ID)
}

func TestRowSet_GetChanges_NilWhenClean(t *testing.T) {
	rs := newTestRowSet(t)
	assert.Nil(t, rs.GetChanges())

	empty := NewRowSet("v", NewColumn("A", TypeString))
	assert.Nil(t, empty.GetChanges())

	// правка с возвратом к исходному значению не является изменением
	rs.Row(0).PreliminaryUpdate(0, "Alicia")
	rs.Row(0).PreliminaryUpdate(0, "Alice")
	assert.Nil(t, rs.GetChanges())
}

func TestRowSet_GetChanges(t *testing.T) {
	rs := newTestRowSet(t)
	rs.Row(0).PreliminaryUpdate(1, "31")
	rs.Row(2).MarkForDelete()
	added := rs.AddEmptyRow()
	added.PreliminaryUpdate(0, "Dave")

	changes := rs.GetChanges()
	require.NotNil(t, changes)

	assert.Equal(t, "Persons", changes.ViewName())
	assert.Equal(t, rs.Columns(), changes.Columns())
	require.Equal(t, 3, changes.NumberOfRows())
	assert.Same(t, rs.Row(0), changes.Row(0), "rows are shared by reference")
	assert.Same(t, rs.Row(2), changes.Row(1))
	assert.Same(t, added, changes.Row(2))
}

func TestRowSet_Commit_Update(t *testing.T) {
	rs := newTestRowSet(t)
	rs.Row(0).PreliminaryUpdate(1, "31")

	update := NewRowSet("Persons", rs.Columns()...)
	require.NoError(t, update.AddRow(NewRow(1, 11, "Alice Server", "31")))

	rs.Commit(update)

	row := rs.FindRow(1)
	require.NotNil(t, row)
	assert.False(t, row.IsDirty(), "commit clears shadow")
	assert.Equal(t, int64(11), row.Version())
	assert.Equal(t, []string{"Alice Server", "31"}, cellStrings(row), "server row is authoritative")
	assert.Nil(t, rs.GetChanges())
}

func TestRowSet_Commit_Insert(t *testing.T) {
	rs := newTestRowSet(t)
	first := rs.AddEmptyRow()
	first.PreliminaryUpdate(0, "Dave")
	second := rs.AddEmptyRow()
	second.PreliminaryUpdate(0, "Eve")

	update := NewRowSet("Persons", rs.Columns()...)
	u1 := NewRow(first.ID(), 100, "Dave", "")
	u1.SetNewID(10)
	u2 := NewRow(second.ID(), 101, "Eve", "")
	u2.SetNewID(11)
	require.NoError(t, update.AddRow(u1))
	require.NoError(t, update.AddRow(u2))

	assert.Empty(t, rs.Commit(update))

	assert.Equal(t, int64(10), first.ID())
	assert.Equal(t, int64(100), first.Version())
	assert.Equal(t, int64(11), second.ID())
	assert.False(t, first.IsNew())
	assert.Equal(t, StateClean, second.State())
}

func TestRowSet_Commit_InsertWithSentinelID(t *testing.T) {
	rs := NewRowSet("v", NewColumn("A", TypeString))
	a := NewEmptyRow(1)
	a.PreliminaryUpdate(0, "a")
	b := NewEmptyRow(1)
	b.PreliminaryUpdate(0, "b")
	require.NoError(t, rs.AddRow(a))
	require.NoError(t, rs.AddRow(b))

	update := NewRowSet("v", NewColumn("A", TypeString))
	u1 := NewRow(NewRowID, 5, "a")
	u1.SetNewID(50)
	u2 := NewRow(NewRowID, 6, "b")
	u2.SetNewID(51)
	require.NoError(t, update.AddRow(u1))
	require.NoError(t, update.AddRow(u2))

	rs.Commit(update)

	// каждая строка ответа сопоставляется со следующей несохраненной строкой
	assert.Equal(t, int64(50), a.ID())
	assert.Equal(t, int64(51), b.ID())
}

func TestRowSet_Commit_InsertWithoutNewID(t *testing.T) {
	rs := newTestRowSet(t)
	rs.Row(0).PreliminaryUpdate(1, "31")
	added := rs.AddEmptyRow()
	added.PreliminaryUpdate(0, "Dave")

	update := NewRowSet("Persons", rs.Columns()...)
	require.NoError(t, update.AddRow(NewRow(1, 2, "Alice", "31")))
	require.NoError(t, update.AddRow(NewRow(added.ID(), 1, "Dave Server", "")))

	unresolved := rs.Commit(update)

	assert.Equal(t, []int64{-1}, unresolved)
	assert.Equal(t, int64(-1), added.ID())
	assert.True(t, added.IsDirty(), "unconfirmed insert keeps its edits")
	assert.Equal(t, "Dave", added.String(0), "server values are not applied")
	assert.Equal(t, StateClean, rs.FindRow(1).State(), "other rows are committed")
}

func TestRowSet_Commit_Delete(t *testing.T) {
	rs := newTestRowSet(t)
	rs.Row(1).MarkForDelete()

	update := NewRowSet("Persons", rs.Columns()...)
	require.NoError(t, update.AddRow(NewRow(2, 20, "Bob", "40")))

	rs.Commit(update)

	assert.Nil(t, rs.FindRow(2))
	assert.Equal(t, 2, rs.NumberOfRows())
}

func TestRowSet_Commit_SkipsUnknownRows(t *testing.T) {
	rs := newTestRowSet(t)
	before, err := rs.Serialize()
	require.NoError(t, err)

	update := NewRowSet("Persons", rs.Columns()...)
	require.NoError(t, update.AddRow(NewRow(99, 1, "Ghost", "1")))

	rs.Commit(update)
	rs.Commit(nil)
	rs.Commit(NewRowSet("Persons"))

	after, err := rs.Serialize()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRowSet_Commit_ColumnSubset(t *testing.T) {
	rs := newTestRowSet(t)
	rs.Row(0).PreliminaryUpdate(1, "31")

	update := NewRowSet("Persons", NewColumn("Age", TypeInteger))
	require.NoError(t, update.AddRow(NewRow(1, 12, "32")))

	rs.Commit(update)

	row := rs.FindRow(1)
	assert.Equal(t, []string{"Alice", "32"}, cellStrings(row))
	assert.Equal(t, int64(12), row.Version())
	assert.False(t, row.IsDirty())
}

func TestRowSet_Rollback(t *testing.T) {
	rs := newTestRowSet(t)
	rs.Row(0).PreliminaryUpdate(0, "A")
	rs.Row(0).PreliminaryUpdate(1, "1")
	rs.Row(0).PreliminaryUpdate(1, "2")
	rs.Row(1).PreliminaryUpdateValue(1, nil)
	rs.Row(2).MarkForDelete()
	rs.AddEmptyRow().PreliminaryUpdate(0, "New")
	rs.AddEmptyRow()

	rs.Rollback()

	require.Equal(t, 3, rs.NumberOfRows(), "new rows are removed")
	assert.Equal(t, []string{"Alice", "30"}, cellStrings(rs.Row(0)))
	assert.Equal(t, []string{"Bob", "40"}, cellStrings(rs.Row(1)))
	assert.False(t, rs.Row(2).IsMarkedForDelete())
	for _, row := range rs.Rows() {
		assert.False(t, row.IsDirty())
	}
	assert.Nil(t, rs.GetChanges())
}

func TestRowSet_RemoveRow(t *testing.T) {
	rs := newTestRowSet(t)
	row := rs.Row(1)

	assert.True(t, rs.RemoveRow(row))
	assert.False(t, rs.RemoveRow(row))
	assert.Equal(t, 2, rs.NumberOfRows())
}

func TestRowSet_Clone(t *testing.T) {
	rs := newTestRowSet(t)
	rs.Row(0).PreliminaryUpdate(0, "Changed")

	clone := rs.Clone()

	assert.Equal(t, rs.NumberOfRows(), clone.NumberOfRows())
	assert.Equal(t, "Changed", clone.Row(0).String(0))
	assert.False(t, clone.Row(0).IsDirty())

	clone.Row(1).SetString(0, "X")
	assert.Equal(t, "Bob", rs.Row(1).String(0))
}

// TestRowEditScenario проверяет полный цикл: правка, сериализация, ручной откат
func TestRowEditScenario(t *testing.T) {
	row := NewRow(5, 2, "Alice", "30")

	row.PreliminaryUpdate(1, "31")
	shadow, ok := row.ShadowString(1)
	require.True(t, ok)
	assert.Equal(t, "30", shadow)

	s, err := row.Serialize()
	require.NoError(t, err)
	restored, err := Restore(s)
	require.NoError(t, err)

	assert.Equal(t, int64(5), restored.ID())
	assert.Equal(t, int64(2), restored.Version())
	assert.Equal(t, []string{"Alice", "31"}, cellStrings(restored))
	shadow, ok = restored.ShadowString(1)
	require.True(t, ok)
	assert.Equal(t, "30", shadow)

	for _, idx := range restored.DirtyIndexes() {
		restored.SetValue(idx, restored.ShadowValue(idx))
	}
	restored.Reset()

	assert.Equal(t, "30", restored.String(1))
	assert.False(t, restored.IsDirty())
}
