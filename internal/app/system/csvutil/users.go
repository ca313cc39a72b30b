// internal/app/system/csvutil/users.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dalemusser/votehub/internal/app/system/inputval"
	"github.com/dalemusser/votehub/internal/app/system/normalize"
)

var (
	// ErrTooManyRows is returned when the file has more data rows than allowed.
	ErrTooManyRows = errors.New("csv has too many rows")
	// ErrNoHeader is returned for an empty file.
	ErrNoHeader = errors.New("csv is empty (a header row is required)")
)

// UserRow is one data row of a user import, keyed by the header row.
type UserRow struct {
	Line      int // 1-based line in the file
	NIM       string
	Email     string
	Name      string
	YearClass *int
}

// RowError describes a rejected row.
type RowError struct {
	Line   int
	Reason string
	Raw    []string
}

// ParseError collects every RowError in a file. Any row error rejects the
// whole file.
type ParseError struct {
	Errors []RowError
}

func (e *ParseError) Error() string {
	if len(e.Errors) == 0 {
		return "csv parse error"
	}
	first := e.Errors[0]
	msg := first.Reason
	if first.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", first.Line, first.Reason)
	}
	if len(e.Errors) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(e.Errors)-1)
	}
	return "csv: " + msg
}

// ParseOptions configures ParseUsersCSV.
type ParseOptions struct {
	MaxRows int // 0 means unlimited
}

// column keys recognized in the header row, after canonicalization.
const (
	colNIM       = "nim"
	colEmail     = "email"
	colName      = "name"
	colYearClass = "yearclass"
)

var requiredColumns = []string{colNIM, colEmail, colName}

// ParseUsersCSV reads a header row and then one user per data row. Header
// names are matched case-insensitively ignoring spaces, '_' and '-', so
// "yearClass", "year_class" and "Year Class" all name the same column.
// Unknown columns are ignored. Blank lines are skipped.
//
// Returns a *ParseError listing every invalid row, ErrNoHeader for an empty
// file, or ErrTooManyRows when opts.MaxRows is exceeded. A failure of r
// itself is returned at once, wrapped.
func ParseUsersCSV(r io.Reader, opts ParseOptions) ([]UserRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows may be ragged
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		var pe *csv.ParseError
		if !errors.As(err, &pe) {
			return nil, fmt.Errorf("read csv header: %w", err)
		}
		return nil, &ParseError{Errors: []RowError{{Line: 1, Reason: err.Error()}}}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := canonicalColumn(h)
		if _, dup := cols[key]; !dup && key != "" {
			cols[key] = i
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{Errors: []RowError{{
			Line:   1,
			Reason: "header is missing required column(s): " + strings.Join(missing, ", "),
			Raw:    header,
		}}}
	}

	var rows []UserRow
	var rowErrs []RowError
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("read csv: %w", err)
			}
			if opts.MaxRows > 0 && len(rows)+len(rowErrs) >= opts.MaxRows {
				return nil, ErrTooManyRows
			}
			rowErrs = append(rowErrs, RowError{Line: pe.Line, Reason: err.Error()})
			continue
		}
		line, _ := reader.FieldPos(0)
		if isBlank(rec) {
			continue
		}
		if opts.MaxRows > 0 && len(rows)+len(rowErrs) >= opts.MaxRows {
			return nil, ErrTooManyRows
		}

		row, rowErr := parseUserRow(rec, cols, line)
		if rowErr != nil {
			rowErrs = append(rowErrs, *rowErr)
			continue
		}
		rows = append(rows, row)
	}

	if len(rowErrs) > 0 {
		return nil, &ParseError{Errors: rowErrs}
	}
	return rows, nil
}

// FindDuplicates reports rows whose NIM or email already appeared earlier in
// rows. Emails compare case-insensitively.
func FindDuplicates(rows []UserRow) []RowError {
	seenNIM := make(map[string]int)
	seenEmail := make(map[string]int)
	var dups []RowError

	for _, r := range rows {
		if first, ok := seenNIM[r.NIM]; ok {
			dups = append(dups, RowError{
				Line:   r.Line,
				Reason: fmt.Sprintf("duplicate nim %q (first appears on line %d)", r.NIM, first),
			})
		} else {
			seenNIM[r.NIM] = r.Line
		}

		email := normalize.Email(r.Email)
		if first, ok := seenEmail[email]; ok {
			dups = append(dups, RowError{
				Line:   r.Line,
				Reason: fmt.Sprintf("duplicate email %q (first appears on line %d)", email, first),
			})
		} else {
			seenEmail[email] = r.Line
		}
	}
	return dups
}

func parseUserRow(rec []string, cols map[string]int, line int) (UserRow, *RowError) {
	get := func(col string) string {
		i, ok := cols[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	fail := func(reason string) *RowError {
		return &RowError{Line: line, Reason: reason, Raw: rec}
	}

	row := UserRow{
		Line:  line,
		NIM:   normalize.NIM(get(colNIM)),
		Email: normalize.Email(get(colEmail)),
		Name:  normalize.Name(get(colName)),
	}

	switch {
	case row.NIM == "":
		return UserRow{}, fail("missing nim")
	case row.Email == "":
		return UserRow{}, fail("missing email")
	case row.Name == "":
		return UserRow{}, fail("missing name")
	}
	if !inputval.IsValidEmail(row.Email) {
		return UserRow{}, fail("invalid email format")
	}

	if yc := get(colYearClass); yc != "" {
		n, err := strconv.Atoi(yc)
		if err != nil {
			return UserRow{}, fail(fmt.Sprintf("yearClass %q is not a number", yc))
		}
		row.YearClass = &n
	}
	return row, nil
}

func canonicalColumn(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
