package ij

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MemTable is an in-memory results table. Its headings start with a blank
// row-label entry, the way the platform reports them.
type MemTable struct {
	store   *MemTableStore
	names   []string
	columns map[string][]float64
	rows    int
	Title   string
}

// NewMemTable returns an empty table not attached to a store
func NewMemTable() *MemTable {
	return &MemTable{columns: make(map[string][]float64)}
}

func (t *MemTable) ColumnHeadings() string {
	return " \t" + strings.Join(t.names, "\t")
}

func (t *MemTable) Column(i int) []float64 {
	if i < 0 || i >= len(t.names) {
		return nil
	}
	col := t.columns[t.names[i]]
	out := make([]float64, t.rows)
	copy(out, col)
	return out
}

func (t *MemTable) Size() int { return t.rows }

func (t *MemTable) SetValue(column string, row int, value float64) {
	if _, ok := t.columns[column]; !ok {
		t.names = append(t.names, column)
		t.columns[column] = make([]float64, t.rows)
	}
	if row >= t.rows {
		t.rows = row + 1
		for name, col := range t.columns {
			for len(col) < t.rows {
				col = append(col, 0)
			}
			t.columns[name] = col
		}
	}
	t.columns[column][row] = value
}

func (t *MemTable) Show(name string) {
	t.Title = name
	if t.store != nil {
		t.store.open[name] = t
	}
}

// Names returns the column names in order
func (t *MemTable) Names() []string {
	return append([]string(nil), t.names...)
}

// MemTableStore keeps the open tables by title
type MemTableStore struct {
	open   map[string]*MemTable
	Closed []string
}

// NewMemTableStore returns an empty store
func NewMemTableStore() *MemTableStore {
	return &MemTableStore{open: make(map[string]*MemTable)}
}

func (s *MemTableStore) Get(name string) Table {
	t, ok := s.open[name]
	if !ok {
		return nil
	}
	return t
}

func (s *MemTableStore) Create() Table {
	t := NewMemTable()
	t.store = s
	return t
}

func (s *MemTableStore) Close(name string) {
	if _, ok := s.open[name]; ok {
		delete(s.open, name)
		s.Closed = append(s.Closed, name)
	}
}

// Put registers a table under name, as if it had been shown
func (s *MemTableStore) Put(name string, t *MemTable) {
	t.store = s
	t.Show(name)
}

// ReadCSV reads a table with a header row of column names
func ReadCSV(r io.Reader) (*MemTable, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading table csv")
	}
	t := NewMemTable()
	if len(records) == 0 {
		return t, nil
	}
	header := records[0]
	for row, rec := range records[1:] {
		for i, cell := range rec {
			if i >= len(header) {
				break
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %q", row+1, header[i])
			}
			t.SetValue(strings.TrimSpace(header[i]), row, v)
		}
	}
	return t, nil
}

// WriteCSV writes the table with a header row
func WriteCSV(w io.Writer, t *MemTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.names); err != nil {
		return errors.Wrap(err, "writing table header")
	}
	for row := 0; row < t.rows; row++ {
		rec := make([]string, len(t.names))
		for i, name := range t.names {
			rec[i] = strconv.FormatFloat(t.columns[name][row], 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "writing table row %d", row)
		}
	}
	cw.Flush()
	return cw.Error()
}
