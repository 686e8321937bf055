package cli

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/iudanet/rowsync/internal/rows"
)

const (
	nullText     = "NULL"
	minCellWidth = 6
	columnGap    = "  "
)

var (
	dirtyCell   = color.New(color.FgYellow, color.Bold)
	insertedRow = color.New(color.FgGreen)
	deletedRow  = color.New(color.FgRed, color.CrossedOut)
	headerCell  = color.New(color.Bold)
)

// stateMarker первая колонка таблицы: состояние строки
func stateMarker(row *rows.Row) string {
	switch row.State() {
	case rows.StateMarkedForInsert:
		return "+"
	case rows.StateMarkedForDelete:
		return "-"
	case rows.StateDirty:
		return "*"
	default:
		return " "
	}
}

func cellText(row *rows.Row, index int) string {
	return valueText(row.Value(index))
}

func valueText(v *string) string {
	if v == nil {
		return nullText
	}
	return strings.ReplaceAll(*v, "\n", " ")
}

// renderTable форматирует строки набора. width ограничивает ширину таблицы,
// 0 означает без ограничения. Измененные ячейки выделяются цветом.
func renderTable(columns []rows.Column, data []*rows.Row, width int) string {
	header := make([]string, 0, len(columns)+3)
	header = append(header, " ", "ID", "VER")
	for _, col := range columns {
		header = append(header, col.Label)
	}

	cells := make([][]string, len(data))
	for i, row := range data {
		line := make([]string, 0, len(header))
		line = append(line, stateMarker(row), strconv.FormatInt(row.ID(), 10), strconv.FormatInt(row.Version(), 10))
		for j := range columns {
			line = append(line, cellText(row, j))
		}
		cells[i] = line
	}

	widths := columnWidths(header, cells, width)

	var b strings.Builder
	for i, h := range header {
		b.WriteString(headerCell.Sprint(fit(h, widths[i], i == len(header)-1)))
		b.WriteString(separator(i, len(header)))
	}
	b.WriteString("\n")

	for r, line := range cells {
		row := data[r]
		for i, text := range line {
			cell := fit(text, widths[i], i == len(line)-1)
			switch {
			case row.State() == rows.StateMarkedForDelete:
				cell = deletedRow.Sprint(cell)
			case row.State() == rows.StateMarkedForInsert:
				cell = insertedRow.Sprint(cell)
			case i >= 3 && isDirty(row, i-3):
				cell = dirtyCell.Sprint(cell)
			}
			b.WriteString(cell)
			b.WriteString(separator(i, len(line)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func separator(i, n int) string {
	if i == n-1 {
		return ""
	}
	return columnGap
}

func isDirty(row *rows.Row, index int) bool {
	_, ok := row.ShadowString(index)
	return ok
}

// columnWidths считает ширину колонок по содержимому. Если таблица не
// помещается в limit, колонки данных сужаются равномерно.
func columnWidths(header []string, cells [][]string, limit int) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, line := range cells {
		for i, text := range line {
			widths[i] = max(widths[i], utf8.RuneCountInString(text))
		}
	}

	if limit <= 0 || len(header) <= 3 {
		return widths
	}

	total := len(columnGap) * (len(header) - 1)
	for _, w := range widths {
		total += w
	}
	if total <= limit {
		return widths
	}

	fixed := len(columnGap) * (len(header) - 1)
	for _, w := range widths[:3] {
		fixed += w
	}
	maxWidth := max(minCellWidth, (limit-fixed)/(len(header)-3))
	for i := 3; i < len(widths); i++ {
		widths[i] = min(widths[i], maxWidth)
	}
	return widths
}

// fit подгоняет текст под ширину колонки, последняя колонка не дополняется
func fit(text string, width int, last bool) string {
	if last {
		if utf8.RuneCountInString(text) > width {
			return pad(text, width)
		}
		return text
	}
	return pad(text, width)
}

// pad дополняет текст пробелами до width, длинный текст обрезается с многоточием
func pad(text string, width int) string {
	n := utf8.RuneCountInString(text)
	if n > width {
		r := []rune(text)
		return string(r[:width-1]) + "…"
	}
	return text + strings.Repeat(" ", width-n)
}
