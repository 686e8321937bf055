package codec

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

//go:generate moq -out codec_mock.go . Codec

// ErrInvalidPayload возвращается, если строку не удалось декодировать
var ErrInvalidPayload = errors.New("invalid codec payload")

// Codec определяет обратимое кодирование последовательности строк в одну строку.
// Декодирование обязано вернуть ту же последовательность, включая nil и пустые элементы.
type Codec interface {
	Encode(seq []*string) (string, error)
	Decode(s string) ([]*string, error)
}

// Msgpack кодирует последовательность как msgpack массив nullable строк,
// упакованный в base64 (чтобы результат можно было вкладывать в другие поля).
type Msgpack struct{}

// Default кодек, используемый пакетами rows и api
var Default Codec = Msgpack{}

// Encode кодирует последовательность строк
func (Msgpack) Encode(seq []*string) (string, error) {
	if seq == nil {
		seq = []*string{}
	}

	data, err := msgpack.Marshal(seq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal sequence: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode восстанавливает последовательность строк.
// Пустая строка декодируется в пустую последовательность.
func (Msgpack) Decode(s string) ([]*string, error) {
	if s == "" {
		return nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var seq []*string
	if err := msgpack.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return seq, nil
}

// Ptr возвращает указатель на копию строки
func Ptr(s string) *string {
	return &s
}

// Deref возвращает значение или пустую строку для nil
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Strings конвертирует обычные строки в nullable последовательность
func Strings(values ...string) []*string {
	seq := make([]*string, len(values))
	for i := range values {
		seq[i] = Ptr(values[i])
	}
	return seq
}
