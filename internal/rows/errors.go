package rows

import "errors"

// Common row model errors
var (
	// ErrMalformedPayload indicates that a serialized row or row set has wrong structure.
	// Это ошибка протокола (несовпадение версий клиента и сервера), а не пользовательского ввода.
	ErrMalformedPayload = errors.New("malformed serialized payload")

	// ErrColumnCount indicates that a row does not match the column arity of its row set
	ErrColumnCount = errors.New("row cell count does not match columns")
)
