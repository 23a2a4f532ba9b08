package content

import "errors"

// ErrEmptyTable is returned when a table would contain no entries.
var ErrEmptyTable = errors.New("content table is empty")

// Entry is one (normal, target) pair. A round shows Normal on every card
// except one, which shows Target.
type Entry struct {
	Normal string `yaml:"normal" json:"normal"`
	Target string `yaml:"target" json:"target"`
}

// Identical reports whether the entry has no visible difference.
// Such entries are kept as-is; they make an unwinnable-by-sight round.
func (e Entry) Identical() bool {
	return e.Normal == e.Target
}

// Table is an ordered, immutable list of entries.
type Table struct {
	entries []Entry
}

// NewTable copies entries into a new Table.
func NewTable(entries []Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyTable
	}
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return &Table{entries: cp}, nil
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// At returns the entry at index i. It panics if i is out of range.
func (t *Table) At(i int) Entry {
	return t.entries[i]
}

// Entries returns a copy of all entries in order.
func (t *Table) Entries() []Entry {
	cp := make([]Entry, len(t.entries))
	copy(cp, t.entries)
	return cp
}
