// internal/export/export.go
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/soulparking/dashboard/internal/daterange"
)

const (
	CSVContentType  = "text/csv;charset=utf-8"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ErrNoRows is returned when there is nothing to export.
var ErrNoRows = errors.New("no data to export")

// Column is one named field of an exported row.
type Column[T any] struct {
	Name  string
	Value func(T) any
}

// Filename returns "<base>-<YYYY-MM-DD>.<ext>" for the given day.
func Filename(base string, now time.Time, ext string) string {
	return fmt.Sprintf("%s-%s.%s", base, now.Format(daterange.DateLayout), ext)
}

// ContentType returns the MIME type for an export format.
func ContentType(format string) (string, error) {
	switch format {
	case FormatCSV:
		return CSVContentType, nil
	case FormatXLSX:
		return XLSXContentType, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteCSV writes a header row of column names followed by one line per row.
// Values containing a comma are wrapped in double quotes; quotes inside values
// are written as-is. Lines are joined by "\n" with no trailing newline.
func WriteCSV[T any](w io.Writer, columns []Column[T], rows []T) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	var b strings.Builder
	for i, column := range columns {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(csvValue(column.Name))
	}
	for _, row := range rows {
		b.WriteByte('\n')
		for i, column := range columns {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(csvValue(column.Value(row)))
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func csvValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		if strings.Contains(v, ",") {
			return `"` + v + `"`
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}
