package filter

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/rowsync/internal/rows"
)

func testColumns() []rows.Column {
	return []rows.Column{
		rows.NewColumn("Name", rows.TypeString),
		rows.NewColumn("NameAlias", rows.TypeString),
		rows.NewColumn("Age", rows.TypeInteger),
		rows.NewColumn("MinAge", rows.TypeInteger),
		rows.NewColumn("Status", rows.TypeInteger),
		rows.NewColumn("Active", rows.TypeBoolean),
	}
}

func newTestParser(t *testing.T) (*Parser, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewParser(testColumns(), logger), &buf
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Filter
	}{
		{
			name:  "and of two comparisons",
			input: `Name = "A, B" AND Age > 5`,
			expected: And(
				CompareWithValue("Name", OpEQ, "A, B"),
				CompareWithValue("Age", OpGT, "5"),
			),
		},
		{
			name:     "redundant parentheses",
			input:    `(((Name="x")))`,
			expected: CompareWithValue("Name", OpEQ, "x"),
		},
		{
			name:     "not group",
			input:    `NOT(Status = 1)`,
			expected: IsNot(CompareWithValue("Status", OpEQ, "1")),
		},
		{
			name:  "or binds weaker than and",
			input: `Name = a OR Age >= 3 AND Status != 2`,
			expected: Or(
				CompareWithValue("Name", OpEQ, "a"),
				And(
					CompareWithValue("Age", OpGE, "3"),
					CompareWithValue("Status", OpNE, "2"),
				),
			),
		},
		{
			name:  "grouped or",
			input: `(Name = a or Name = b) and Age < 10`,
			expected: And(
				Or(CompareWithValue("Name", OpEQ, "a"), CompareWithValue("Name", OpEQ, "b")),
				CompareWithValue("Age", OpLT, "10"),
			),
		},
		{
			name:     "doubled quotes inside literal",
			input:    `Name = "say ""hi"""`,
			expected: CompareWithValue("Name", OpEQ, `say "hi"`),
		},
		{
			name:     "keyword inside quoted literal",
			input:    `Name = "Tom AND Jerry"`,
			expected: CompareWithValue("Name", OpEQ, "Tom AND Jerry"),
		},
		{
			name:     "default operator for string column",
			input:    `name alice`,
			expected: CompareWithValue("Name", OpContains, "alice"),
		},
		{
			name:     "default operator for numeric column",
			input:    `Age 42`,
			expected: CompareWithValue("Age", OpEQ, "42"),
		},
		{
			name:     "longest column prefix wins",
			input:    `NameAlias = x`,
			expected: CompareWithValue("NameAlias", OpEQ, "x"),
		},
		{
			name:     "operator without spaces",
			input:    `Age<>7`,
			expected: CompareWithValue("Age", OpNE, "7"),
		},
		{
			name:     "text operators",
			input:    `Name ^ Al`,
			expected: CompareWithValue("Name", OpStarts, "Al"),
		},
		{
			name:     "column to column",
			input:    `Age > MinAge`,
			expected: CompareWithColumn("Age", OpGT, "MinAge"),
		},
		{
			name:     "quoted column name is a literal",
			input:    `Name = "Age"`,
			expected: CompareWithValue("Name", OpEQ, "Age"),
		},
		{
			name:     "empty value is null check",
			input:    `Name =`,
			expected: IsNull("Name"),
		},
		{
			name:     "empty value with not equal",
			input:    `Name !=`,
			expected: NotNull("Name"),
		},
		{
			name:     "quoted empty literal",
			input:    `Name = ""`,
			expected: CompareWithValue("Name", OpEQ, ""),
		},
		{
			name:     "id and version",
			input:    `id >= 10 AND version = 3`,
			expected: And(CompareID(OpGE, 10), CompareVersion(OpEQ, 3)),
		},
		{
			name:     "parentheses inside value",
			input:    `Name = f(x) AND Age = 1`,
			expected: And(CompareWithValue("Name", OpEQ, "f(x)"), CompareWithValue("Age", OpEQ, "1")),
		},
		{
			name:     "NOT without parenthesis is a word",
			input:    `Name = not`,
			expected: CompareWithValue("Name", OpEQ, "not"),
		},
		{
			name:     "unbalanced parentheses fall back to single clause",
			input:    `Name = (abc`,
			expected: CompareWithValue("Name", OpEQ, "(abc"),
		},
		{
			name:     "unterminated quote falls back to single clause",
			input:    `Name = O"Brien`,
			expected: CompareWithValue("Name", OpEQ, `O"Brien`),
		},
		{
			name:     "dangling AND falls back to single clause",
			input:    `Name = x AND`,
			expected: CompareWithValue("Name", OpEQ, "x AND"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestParser(t)
			assert.Equal(t, tt.expected, p.Parse(tt.input))
		})
	}
}

func TestParse_Nil(t *testing.T) {
	tests := []struct {
		name  string
		input string
		warns bool
	}{
		{name: "empty", input: "", warns: false},
		{name: "blank", input: "   ", warns: false},
		{name: "unknown column", input: "Salary > 5", warns: true},
		{name: "unknown column nulls compound", input: "Name = a AND Salary > 5", warns: true},
		{name: "unknown column inside not", input: "NOT(Salary = 1)", warns: true},
		{name: "column name must end at boundary", input: "Names = x", warns: true},
		{name: "non numeric id", input: "ID = abc", warns: true},
		{name: "empty value with ordering operator", input: "Age >", warns: true},
		{name: "numeric column without operator", input: "Age", warns: true},
		{name: "string column without operator", input: "Name", warns: true},
		{name: "bare column inside compound", input: `Name = a AND Age`, warns: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, logs := newTestParser(t)

			assert.Nil(t, p.Parse(tt.input))
			if tt.warns {
				assert.Contains(t, logs.String(), "Filter expression ignored")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestParseStrict_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   error
	}{
		{name: "unknown column", input: "Salary = 1", err: ErrUnknownColumn},
		{name: "unbalanced", input: "(Name = a", err: ErrSyntax},
		{name: "stray closing parenthesis", input: "Name = a)", err: ErrSyntax},
		{name: "unterminated quote", input: `Name = "abc`, err: ErrSyntax},
		{name: "empty group", input: "()", err: ErrSyntax},
		{name: "bad version", input: "Version = x", err: ErrInvalidValue},
		{name: "bare numeric column", input: "Age", err: ErrInvalidValue},
		{name: "bare string column", input: "Name", err: ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestParser(t)

			f, err := p.ParseStrict(tt.input)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, f)
		})
	}
}

func TestParseCondition_CustomNames(t *testing.T) {
	f := ParseCondition("PersonID = 7 AND Rev > 1", testColumns(), "PersonID", "Rev")
	assert.Equal(t, And(CompareID(OpEQ, 7), CompareVersion(OpGT, 1)), f)

	f = ParseCondition("ID = 7", testColumns(), "", "")
	assert.Equal(t, CompareID(OpEQ, 7), f)
}

func TestString_RoundTrip(t *testing.T) {
	filters := []Filter{
		CompareWithValue("Name", OpEQ, `quoted "value", with comma`),
		CompareWithValue("Age", OpLE, "5"),
		CompareWithValue("Name", OpContains, "AND"),
		CompareWithColumn("Age", OpNE, "MinAge"),
		IsNull("Name"),
		NotNull("Age"),
		CompareID(OpGT, 100),
		CompareVersion(OpEQ, 2),
		And(
			CompareWithValue("Name", OpEnds, "x"),
			Or(CompareWithValue("Age", OpEQ, "1"), IsNot(CompareWithValue("Status", OpEQ, "2"))),
		),
		Or(And(IsNull("Name"), CompareID(OpEQ, 1)), CompareWithValue("Active", OpEQ, "true")),
	}

	for _, f := range filters {
		t.Run(f.String(), func(t *testing.T) {
			p, _ := newTestParser(t)

			parsed, err := p.ParseStrict(f.String())
			require.NoError(t, err)
			assert.Equal(t, f, parsed)
		})
	}
}

func TestString(t *testing.T) {
	f := And(
		CompareWithValue("Name", OpEQ, "A, B"),
		Or(CompareWithValue("Age", OpGT, "5"), IsNull("Name")),
		IsNot(CompareID(OpEQ, 3)),
	)

	assert.Equal(t, `Name = "A, B" AND (Age > "5" OR Name =) AND NOT(ID = 3)`, f.String())
}

func TestConstructors(t *testing.T) {
	a := CompareWithValue("Name", OpEQ, "a")
	b := CompareWithValue("Name", OpEQ, "b")

	assert.Nil(t, And())
	assert.Nil(t, Or(nil, nil))
	assert.Nil(t, IsNot(nil))
	assert.Equal(t, a, And(nil, a))
	assert.Equal(t, a, Or(a))

	c, ok := And(a, nil, b).(CompoundFilter)
	require.True(t, ok)
	assert.Equal(t, CompoundAnd, c.Type())
	assert.Equal(t, []Filter{a, b}, c.Children())

	children := c.Children()
	children[0] = b
	assert.Equal(t, a, c.Children()[0], "children are copied")
}

func TestDetectOperator(t *testing.T) {
	tests := []struct {
		input string
		op    Operator
		n     int
	}{
		{input: ">= 5", op: OpGE, n: 2},
		{input: "> 5", op: OpGT, n: 1},
		{input: "<>5", op: OpNE, n: 2},
		{input: "!=", op: OpNE, n: 2},
		{input: "=x", op: OpEQ, n: 1},
		{input: "$x", op: OpEnds, n: 1},
		{input: "abc", op: "", n: 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			op, n := DetectOperator(tt.input)
			assert.Equal(t, tt.op, op)
			assert.Equal(t, tt.n, n)
		})
	}

	assert.Equal(t, "CONTAINS", OpContains.Name())
	assert.Equal(t, "GE", OpGE.Name())
}
