package ast

import "sort"

// Pair is one column/value entry of a Data record.
type Pair struct {
	Column string
	Value  any
}

// Data is an ordered column/value record. Column order decides the order of
// placeholders in INSERT and SET clauses.
type Data struct {
	pairs []Pair
	index map[string]int
}

// NewData returns an empty record.
func NewData() *Data {
	return &Data{index: make(map[string]int)}
}

// DataFromMap builds a record from a map. Keys are sorted so the resulting
// order never depends on map iteration.
func DataFromMap(m map[string]any) *Data {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d := NewData()
	for _, k := range keys {
		d.Set(k, m[k])
	}
	return d
}

// Set assigns value to column. An existing column keeps its position.
func (d *Data) Set(column string, value any) *Data {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[column]; ok {
		d.pairs[i].Value = value
		return d
	}
	d.index[column] = len(d.pairs)
	d.pairs = append(d.pairs, Pair{Column: column, Value: value})
	return d
}

// Get returns the value stored for column.
func (d *Data) Get(column string) (any, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[column]
	if !ok {
		return nil, false
	}
	return d.pairs[i].Value, true
}

// Has reports whether column is set.
func (d *Data) Has(column string) bool {
	_, ok := d.Get(column)
	return ok
}

// Len returns the number of columns.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return len(d.pairs)
}

// Columns returns the column names in insertion order.
func (d *Data) Columns() []string {
	if d == nil {
		return nil
	}
	cols := make([]string, len(d.pairs))
	for i, p := range d.pairs {
		cols[i] = p.Column
	}
	return cols
}

// Pairs returns a copy of the pairs in insertion order.
func (d *Data) Pairs() []Pair {
	if d == nil {
		return nil
	}
	return append([]Pair(nil), d.pairs...)
}

// Clone returns an independent copy of the record.
func (d *Data) Clone() *Data {
	c := NewData()
	if d == nil {
		return c
	}
	for _, p := range d.pairs {
		c.Set(p.Column, p.Value)
	}
	return c
}
