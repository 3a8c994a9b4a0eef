package stream

import (
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/apache/arrow/go/arrow"
	"github.com/apache/arrow/go/arrow/array"
	"github.com/apache/arrow/go/arrow/ipc"
)

// DecodeBatches lazily parses an Arrow IPC stream into columnar batches.
// The schema preamble is read once; every batch shares it. Column types are
// preserved: a boolean column decodes to bool values, never to text.
func DecodeBatches(r io.Reader) iter.Seq2[*Batch, error] {
	return func(yield func(*Batch, error) bool) {
		rdr, err := ipc.NewReader(r)
		if err != nil {
			yield(nil, &DecodeError{Format: "arrow", Err: err})
			return
		}
		defer rdr.Release()

		for rdr.Next() {
			batch, err := batchFromArrow(rdr.Record())
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(batch, nil) {
				return
			}
		}
		if err := rdr.Err(); err != nil && err != io.EOF {
			yield(nil, &DecodeError{Format: "arrow", Err: err})
		}
	}
}

func batchFromArrow(rec array.Record) (*Batch, error) {
	schema := rec.Schema()
	nCols := int(rec.NumCols())
	nRows := int(rec.NumRows())

	batch := &Batch{
		Columns: make([]Column, nCols),
		Data:    make([][]interface{}, nCols),
	}
	for i := 0; i < nCols; i++ {
		field := schema.Field(i)
		colType, err := columnType(field.Type)
		if err != nil {
			return nil, &DecodeError{Format: "arrow", Err: fmt.Errorf("column %q: %w", field.Name, err)}
		}
		batch.Columns[i] = Column{Name: field.Name, Type: colType}

		values, err := columnValues(rec.Column(i), field.Type, nRows)
		if err != nil {
			return nil, &DecodeError{Format: "arrow", Err: fmt.Errorf("column %q: %w", field.Name, err)}
		}
		batch.Data[i] = values
	}
	return batch, nil
}

func columnType(dt arrow.DataType) (ColumnType, error) {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64:
		return TypeInt, nil
	case arrow.FLOAT32, arrow.FLOAT64:
		return TypeFloat, nil
	case arrow.BOOL:
		return TypeBool, nil
	case arrow.STRING:
		return TypeString, nil
	case arrow.TIMESTAMP:
		return TypeTimestamp, nil
	default:
		return "", fmt.Errorf("unsupported arrow type %s", dt.Name())
	}
}

func columnValues(col array.Interface, dt arrow.DataType, nRows int) ([]interface{}, error) {
	values := make([]interface{}, nRows)
	for row := 0; row < nRows; row++ {
		if col.IsNull(row) {
			values[row] = nil
			continue
		}
		switch arr := col.(type) {
		case *array.Int8:
			values[row] = int64(arr.Value(row))
		case *array.Int16:
			values[row] = int64(arr.Value(row))
		case *array.Int32:
			values[row] = int64(arr.Value(row))
		case *array.Int64:
			values[row] = arr.Value(row)
		case *array.Float32:
			values[row] = float64(arr.Value(row))
		case *array.Float64:
			values[row] = arr.Value(row)
		case *array.Boolean:
			values[row] = arr.Value(row)
		case *array.String:
			values[row] = arr.Value(row)
		case *array.Timestamp:
			tsType, ok := dt.(*arrow.TimestampType)
			if !ok {
				return nil, fmt.Errorf("timestamp column with type %s", dt.Name())
			}
			values[row] = timestampToTime(arr.Value(row), tsType.Unit)
		default:
			return nil, fmt.Errorf("unsupported arrow array %T", col)
		}
	}
	return values, nil
}

func timestampToTime(v arrow.Timestamp, unit arrow.TimeUnit) time.Time {
	switch unit {
	case arrow.Second:
		return time.Unix(int64(v), 0).UTC()
	case arrow.Millisecond:
		return time.Unix(0, int64(v)*int64(time.Millisecond)).UTC()
	case arrow.Microsecond:
		return time.Unix(0, int64(v)*int64(time.Microsecond)).UTC()
	default:
		return time.Unix(0, int64(v)).UTC()
	}
}
