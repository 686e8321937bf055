package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/iudanet/rowsync/internal/filter"
	"github.com/iudanet/rowsync/internal/rows"
)

// IdentifierPattern определяет допустимый формат имени view и идентификатора колонки.
// Буква или нижнее подчеркивание, затем буквы, цифры, нижнее подчеркивание.
// Такие имена однозначно распознаются в выражениях фильтра.
var IdentifierPattern = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)

// FilterNamePattern формат имени сохраненного фильтра
var FilterNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

const (
	// MaxIdentifierLen максимальная длина имени view или колонки
	MaxIdentifierLen = 64
	// MaxFilterNameLen максимальная длина имени фильтра
	MaxFilterNameLen = 32
)

// ValidateIdentifier проверяет имя view или идентификатор колонки
func ValidateIdentifier(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}

	if len([]rune(name)) > MaxIdentifierLen {
		return fmt.Errorf("%s must not exceed %d characters", kind, MaxIdentifierLen)
	}

	if !IdentifierPattern.MatchString(name) {
		return fmt.Errorf("%s %q can only contain letters, digits and underscores and must not start with a digit", kind, name)
	}

	return nil
}

// ValidateViewName проверяет имя view
func ValidateViewName(name string) error {
	return ValidateIdentifier("view name", name)
}

// ValidateColumns проверяет идентификаторы колонок: формат, уникальность без
// учета регистра и совпадение со служебными полями ID и Version
func ValidateColumns(columns []rows.Column) error {
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if err := ValidateIdentifier("column id", col.ID); err != nil {
			return err
		}

		key := strings.ToLower(col.ID)
		if key == strings.ToLower(filter.DefaultIDName) || key == strings.ToLower(filter.DefaultVersionName) {
			return fmt.Errorf("column id %q is reserved", col.ID)
		}
		if seen[key] {
			return fmt.Errorf("duplicate column id %q", col.ID)
		}
		seen[key] = true
	}
	return nil
}

// ValidateFilterName проверяет имя сохраненного фильтра
// Формат: латинские буквы, цифры, '_', '.', '-'. Длина: 1-32 символа
func ValidateFilterName(name string) error {
	if name == "" {
		return fmt.Errorf("filter name cannot be empty")
	}

	if len(name) > MaxFilterNameLen {
		return fmt.Errorf("filter name must not exceed %d characters", MaxFilterNameLen)
	}

	if !FilterNamePattern.MatchString(name) {
		return fmt.Errorf("filter name can only contain letters (a-z, A-Z), numbers (0-9), '_', '.' and '-'")
	}

	return nil
}
