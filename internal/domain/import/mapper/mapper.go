// Package mapper assigns spreadsheet columns to semantic transaction fields.
package mapper

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Field is a semantic destination for one spreadsheet column
type Field string

const (
	FieldAmount   Field = "amount"
	FieldPayee    Field = "payee"
	FieldDate     Field = "date"
	FieldAccount  Field = "account"
	FieldCategory Field = "category"
	FieldNotes    Field = "notes"
	FieldSkip     Field = "skip"
)

// RequiredFields must all be mapped before an import may proceed
var RequiredFields = []Field{FieldAmount, FieldPayee, FieldDate}

var assignableFields = []Field{
	FieldAmount, FieldPayee, FieldDate, FieldAccount, FieldCategory, FieldNotes,
}

// Valid reports whether f is a known field, skip included
func (f Field) Valid() bool {
	if f == FieldSkip {
		return true
	}
	for _, known := range assignableFields {
		if f == known {
			return true
		}
	}
	return false
}

// Mapping holds the column-index to field assignment. Unassigned columns are
// implicitly skip.
type Mapping struct {
	columns map[int]Field
}

// New creates an empty mapping
func New() *Mapping {
	return &Mapping{columns: make(map[int]Field)}
}

// Assign maps a column to a field. A field may occupy at most one column, so
// assigning one that is already held elsewhere clears the earlier column
// first. Assigning skip clears the column.
func (m *Mapping) Assign(column int, field Field) {
	if field == FieldSkip {
		delete(m.columns, column)
		return
	}
	for col, existing := range m.columns {
		if existing == field && col != column {
			delete(m.columns, col)
		}
	}
	m.columns[column] = field
}

// Get returns the field assigned to a column, FieldSkip if none
func (m *Mapping) Get(column int) Field {
	if field, ok := m.columns[column]; ok {
		return field
	}
	return FieldSkip
}

// Columns returns a copy of the current non-skip assignments
func (m *Mapping) Columns() map[int]Field {
	out := make(map[int]Field, len(m.columns))
	for col, field := range m.columns {
		out[col] = field
	}
	return out
}

// Progress counts how many of the required fields are currently assigned.
// Optional fields never contribute.
func (m *Mapping) Progress() int {
	assigned := make(map[Field]bool, len(m.columns))
	for _, field := range m.columns {
		assigned[field] = true
	}

	count := 0
	for _, required := range RequiredFields {
		if assigned[required] {
			count++
		}
	}
	return count
}

// Complete reports whether every required field has a column
func (m *Mapping) Complete() bool {
	return m.Progress() == len(RequiredFields)
}

// FromColumns builds a mapping from a client-supplied column→field object,
// applying the same one-column-per-field rule in ascending column order.
func FromColumns(columns map[int]Field) *Mapping {
	m := New()
	max := -1
	for col := range columns {
		if col > max {
			max = col
		}
	}
	for col := 0; col <= max; col++ {
		if field, ok := columns[col]; ok {
			m.Assign(col, field)
		}
	}
	return m
}

// Suggest proposes an assignment for each header by fuzzy-matching the
// header text against the field names. An exact (case-insensitive) name
// always wins; otherwise the closest fuzzy rank wins, and headers that match
// nothing stay skip. One column per field holds here too, in header order.
func Suggest(headers []string) *Mapping {
	m := New()
	taken := make(map[Field]bool)

	for col, header := range headers {
		field := suggestField(header, taken)
		if field == FieldSkip {
			continue
		}
		m.Assign(col, field)
		taken[field] = true
	}
	return m
}

func suggestField(header string, taken map[Field]bool) Field {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return FieldSkip
	}

	for _, field := range assignableFields {
		if !taken[field] && h == string(field) {
			return field
		}
	}

	best := FieldSkip
	bestRank := -1
	for _, field := range assignableFields {
		if taken[field] {
			continue
		}
		rank := fuzzy.RankMatchNormalizedFold(string(field), h)
		if rank < 0 {
			continue
		}
		if bestRank == -1 || rank < bestRank {
			best = field
			bestRank = rank
		}
	}
	return best
}
