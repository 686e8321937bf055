package filter

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenString
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

// token хранит позицию в исходной строке: сравнения разбираются
// по исходному тексту, а не по списку токенов
type token struct {
	kind  tokenKind
	text  string
	start int
	end   int
}

// tokenize разбивает выражение на токены. Ошибка возвращается
// для незакрытой кавычки и несбалансированных скобок.
func tokenize(input string) ([]token, error) {
	var (
		tokens []token
		depth  int
	)

	for i := 0; i < len(input); {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", start: i, end: i + 1})
			depth++
			i++
		case c == ')':
			if depth == 0 {
				return nil, fmt.Errorf("%w: unexpected ')' at %d", ErrSyntax, i)
			}
			tokens = append(tokens, token{kind: tokenRParen, text: ")", start: i, end: i + 1})
			depth--
			i++
		case c == '"':
			end, ok := scanString(input, i)
			if !ok {
				return nil, fmt.Errorf("%w: unterminated quote at %d", ErrSyntax, i)
			}
			tokens = append(tokens, token{kind: tokenString, text: input[i:end], start: i, end: end})
			i = end
		default:
			start := i
			for i < len(input) && !isWordBreak(input[i]) {
				i++
			}
			word := input[start:i]
			tokens = append(tokens, token{kind: keywordKind(word), text: word, start: start, end: i})
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced parentheses", ErrSyntax)
	}

	// NOT является ключевым словом, только если за ним идет скобка
	for i := range tokens {
		if tokens[i].kind == tokenNot && (i+1 >= len(tokens) || tokens[i+1].kind != tokenLParen) {
			tokens[i].kind = tokenWord
		}
	}

	return tokens, nil
}

// scanString возвращает позицию за закрывающей кавычкой.
// Удвоенная кавычка внутри литерала не закрывает его.
func scanString(input string, start int) (int, bool) {
	for i := start + 1; i < len(input); i++ {
		if input[i] != '"' {
			continue
		}
		if i+1 < len(input) && input[i+1] == '"' {
			i++
			continue
		}
		return i + 1, true
	}
	return 0, false
}

func isWordBreak(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '(' || c == ')' || c == '"'
}

func keywordKind(word string) tokenKind {
	switch strings.ToUpper(word) {
	case "AND":
		return tokenAnd
	case "OR":
		return tokenOr
	case "NOT":
		return tokenNot
	default:
		return tokenWord
	}
}

// isIdentRune сообщает, может ли символ продолжать идентификатор колонки
func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
