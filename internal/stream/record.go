// Package stream decodes engine output into typed in-process records and
// encodes in-process records onto the engine's stdin. Decoded sequences are
// lazy, forward-only and not restartable; re-reading requires re-executing
// the transfer.
package stream

import "fmt"

// ColumnType is the primitive type of a column in batch transport.
type ColumnType string

const (
	TypeString    ColumnType = "string"
	TypeInt       ColumnType = "int"
	TypeFloat     ColumnType = "float"
	TypeBool      ColumnType = "bool"
	TypeTimestamp ColumnType = "timestamp"
)

// Column is a named, typed column in a batch schema.
type Column struct {
	Name string
	Type ColumnType
}

// Record is one row: an ordered mapping from column name to scalar value.
// Row transport carries values as text; batch transport preserves types.
type Record struct {
	Columns []string
	Values  map[string]interface{}
}

// Get returns the value for a column and whether the column exists.
func (r Record) Get(name string) (interface{}, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Batch is a columnar slice of the stream: all rows share one schema and
// each column keeps its declared primitive type.
type Batch struct {
	Columns []Column
	// Data holds one value slice per column, indexed like Columns.
	Data [][]interface{}
}

// NumRows returns the row count of the batch.
func (b *Batch) NumRows() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Records flattens the batch into row-wise records.
func (b *Batch) Records() []Record {
	cols := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		cols[i] = c.Name
	}
	out := make([]Record, 0, b.NumRows())
	for row := 0; row < b.NumRows(); row++ {
		values := make(map[string]interface{}, len(cols))
		for i, name := range cols {
			values[name] = b.Data[i][row]
		}
		out = append(out, Record{Columns: cols, Values: values})
	}
	return out
}

// DecodeError reports malformed or schema-mismatched data mid-stream. It
// aborts the sequence; records already yielded remain valid.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s stream: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
