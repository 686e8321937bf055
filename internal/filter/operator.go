package filter

import "strings"

// Operator оператор сравнения. Значение совпадает с текстовой формой.
type Operator string

// Operator константы
const (
	OpEQ       Operator = "="
	OpNE       Operator = "!="
	OpLT       Operator = "<"
	OpLE       Operator = "<="
	OpGT       Operator = ">"
	OpGE       Operator = ">="
	OpContains Operator = "~"
	OpStarts   Operator = "^"
	OpEnds     Operator = "$"
)

// operatorTokens упорядочены так, чтобы длинные токены проверялись раньше их префиксов
var operatorTokens = []struct {
	token string
	op    Operator
}{
	{"!=", OpNE},
	{"<>", OpNE},
	{"<=", OpLE},
	{">=", OpGE},
	{"<", OpLT},
	{">", OpGT},
	{"=", OpEQ},
	{"~", OpContains},
	{"^", OpStarts},
	{"$", OpEnds},
}

// Name возвращает мнемоническое имя оператора (EQ, NE, ...)
func (o Operator) Name() string {
	switch o {
	case OpEQ:
		return "EQ"
	case OpNE:
		return "NE"
	case OpLT:
		return "LT"
	case OpLE:
		return "LE"
	case OpGT:
		return "GT"
	case OpGE:
		return "GE"
	case OpContains:
		return "CONTAINS"
	case OpStarts:
		return "STARTS"
	case OpEnds:
		return "ENDS"
	default:
		return string(o)
	}
}

// IsText сообщает, что оператор работает с подстроками, а не с порядком значений
func (o Operator) IsText() bool {
	return o == OpContains || o == OpStarts || o == OpEnds
}

// DetectOperator ищет оператор в начале строки.
// Возвращает оператор и длину найденного токена (0, если оператора нет).
func DetectOperator(s string) (Operator, int) {
	for _, t := range operatorTokens {
		if strings.HasPrefix(s, t.token) {
			return t.op, len(t.token)
		}
	}
	return "", 0
}
