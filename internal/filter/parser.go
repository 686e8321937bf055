package filter

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/iudanet/rowsync/internal/rows"
)

// Ошибки разбора
var (
	ErrSyntax        = errors.New("filter syntax error")
	ErrUnknownColumn = errors.New("unknown column")
	ErrInvalidValue  = errors.New("invalid filter value")
)

// Parser разбирает текстовые условия для набора колонок.
//
// Грамматика:
//
//	expression := or
//	or         := and ("OR" and)*
//	and        := primary ("AND" primary)*
//	primary    := "NOT" "(" expression ")" | "(" expression ")" | comparison
//	comparison := column [operator] value
type Parser struct {
	columns     []rows.Column
	idName      string
	versionName string
	logger      *slog.Logger
}

// Option настраивает Parser
type Option func(*Parser)

// WithIDName задает имя, под которым в выражениях доступен идентификатор строки
func WithIDName(name string) Option {
	return func(p *Parser) {
		if name != "" {
			p.idName = name
		}
	}
}

// WithVersionName задает имя, под которым в выражениях доступна версия строки
func WithVersionName(name string) Option {
	return func(p *Parser) {
		if name != "" {
			p.versionName = name
		}
	}
}

// NewParser создает парсер для колонок columns
func NewParser(columns []rows.Column, logger *slog.Logger, opts ...Option) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Parser{
		columns:     columns,
		idName:      DefaultIDName,
		versionName: DefaultVersionName,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseCondition разбирает выражение без возврата ошибок.
// Пустые idName и versionName означают имена по умолчанию.
func ParseCondition(input string, columns []rows.Column, idName, versionName string) Filter {
	return NewParser(columns, slog.Default(), WithIDName(idName), WithVersionName(versionName)).Parse(input)
}

// Parse разбирает выражение. Никогда не возвращает ошибку:
// выражение с нарушенной структурой разбирается как одно сравнение,
// а неразбираемое условие дает nil с предупреждением в лог.
func (p *Parser) Parse(input string) Filter {
	f, err := p.ParseStrict(input)
	if err == nil {
		return f
	}

	if errors.Is(err, ErrSyntax) {
		p.logger.Debug("Filter structure not recognized, parsing as single clause",
			"input", input, "error", err)
		f, err = p.comparison(strings.TrimSpace(input))
		if err == nil {
			return f
		}
	}

	p.logger.Warn("Filter expression ignored", "input", input, "error", err)
	return nil
}

// ParseStrict разбирает выражение и возвращает первую ошибку.
// Пустое выражение дает nil без ошибки.
func (p *Parser) ParseStrict(input string) (Filter, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}

	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}

	state := &parseState{parser: p, input: input, tokens: tokens}
	f, err := state.expression()
	if err != nil {
		return nil, err
	}
	if !state.done() {
		return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, state.peek().text, state.peek().start)
	}
	return f, nil
}

type parseState struct {
	parser *Parser
	input  string
	tokens []token
	pos    int
}

func (s *parseState) done() bool {
	return s.pos >= len(s.tokens)
}

func (s *parseState) peek() token {
	return s.tokens[s.pos]
}

func (s *parseState) is(kind tokenKind) bool {
	return !s.done() && s.tokens[s.pos].kind == kind
}

func (s *parseState) expression() (Filter, error) {
	return s.list(tokenOr, Or, s.and)
}

func (s *parseState) and() (Filter, error) {
	return s.list(tokenAnd, And, s.primary)
}

// list разбирает последовательность operand (sep operand)*
func (s *parseState) list(sep tokenKind, join func(...Filter) Filter, operand func() (Filter, error)) (Filter, error) {
	first, err := operand()
	if err != nil {
		return nil, err
	}

	items := []Filter{first}
	for s.is(sep) {
		s.pos++
		next, err := operand()
		if err != nil {
			return nil, err
		}
		items = append(items, next)
	}
	return join(items...), nil
}

func (s *parseState) primary() (Filter, error) {
	switch {
	case s.is(tokenNot):
		s.pos++
		f, err := s.group()
		if err != nil {
			return nil, err
		}
		return IsNot(f), nil
	case s.is(tokenLParen):
		return s.group()
	default:
		return s.clause()
	}
}

// group разбирает "(" expression ")"
func (s *parseState) group() (Filter, error) {
	if !s.is(tokenLParen) {
		return nil, fmt.Errorf("%w: expected '('", ErrSyntax)
	}
	s.pos++

	f, err := s.expression()
	if err != nil {
		return nil, err
	}

	if !s.is(tokenRParen) {
		return nil, fmt.Errorf("%w: expected ')'", ErrSyntax)
	}
	s.pos++
	return f, nil
}

// clause собирает токены сравнения до AND/OR или закрывающей скобки
// верхнего уровня. Скобки внутри значения допускаются.
func (s *parseState) clause() (Filter, error) {
	start := s.pos
	depth := 0

loop:
	for ; !s.done(); s.pos++ {
		switch s.peek().kind {
		case tokenAnd, tokenOr:
			if depth == 0 {
				break loop
			}
		case tokenLParen:
			depth++
		case tokenRParen:
			if depth == 0 {
				break loop
			}
			depth--
		}
	}

	if s.pos == start {
		if s.done() {
			return nil, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
		}
		return nil, fmt.Errorf("%w: empty condition at %d", ErrSyntax, s.peek().start)
	}

	text := s.input[s.tokens[start].start:s.tokens[s.pos-1].end]
	return s.parser.comparison(text)
}

type targetKind int

const (
	targetColumn targetKind = iota
	targetID
	targetVersion
)

// comparison разбирает одно сравнение: колонка, необязательный оператор, значение
func (p *Parser) comparison(text string) (Filter, error) {
	kind, column, rest, ok := p.detectColumn(text)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, text)
	}

	rest = strings.TrimLeft(rest, " \t\r\n")
	op, n := DetectOperator(rest)
	explicit := n > 0
	value := strings.TrimSpace(rest[n:])
	value, quoted := unquote(value)

	switch kind {
	case targetID, targetVersion:
		if !explicit {
			op = OpEQ
		}
		num, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, value)
		}
		if kind == targetID {
			return CompareID(op, num), nil
		}
		return CompareVersion(op, num), nil
	}

	if !explicit {
		if column.Type.IsString() {
			op = OpContains
		} else {
			op = OpEQ
		}
	}

	// пустое значение означает проверку на NULL только при явном операторе
	if value == "" && !quoted {
		if !explicit {
			return nil, fmt.Errorf("%w: no value for %s", ErrInvalidValue, column.ID)
		}
		switch op {
		case OpEQ:
			return IsNull(column.ID), nil
		case OpNE:
			return NotNull(column.ID), nil
		default:
			return nil, fmt.Errorf("%w: empty value for %s %s", ErrInvalidValue, column.ID, op)
		}
	}

	if explicit && !quoted {
		if idx := rows.ColumnIndex(p.columns, value); idx >= 0 {
			return CompareWithColumn(column.ID, op, p.columns[idx].ID), nil
		}
	}

	return CompareWithValue(column.ID, op, value), nil
}

// detectColumn находит самое длинное имя колонки (или служебного поля),
// с которого начинается text. Имя должно заканчиваться на границе идентификатора.
func (p *Parser) detectColumn(text string) (targetKind, rows.Column, string, bool) {
	var (
		bestKind   targetKind
		bestColumn rows.Column
		bestLen    int
	)

	try := func(kind targetKind, name string, col rows.Column) {
		if name == "" || len(name) <= bestLen || !hasNamePrefix(text, name) {
			return
		}
		bestKind, bestColumn, bestLen = kind, col, len(name)
	}

	// служебные поля выигрывают при совпадении длины
	try(targetID, p.idName, rows.Column{})
	try(targetVersion, p.versionName, rows.Column{})
	for _, col := range p.columns {
		try(targetColumn, col.ID, col)
	}

	if bestLen == 0 {
		return 0, rows.Column{}, "", false
	}
	return bestKind, bestColumn, text[bestLen:], true
}

func hasNamePrefix(text, name string) bool {
	if len(text) < len(name) || !strings.EqualFold(text[:len(name)], name) {
		return false
	}
	if len(text) == len(name) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[len(name):])
	return !isIdentRune(r)
}
