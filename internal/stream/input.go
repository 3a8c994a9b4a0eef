package stream

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"sort"
	"time"

	"github.com/apache/arrow/go/arrow"
	"github.com/apache/arrow/go/arrow/array"
	"github.com/apache/arrow/go/arrow/ipc"
	"github.com/apache/arrow/go/arrow/memory"

	"github.com/ferrydata/ferry/pkg/models"
	"github.com/ferrydata/ferry/pkg/utils"
)

const defaultBatchRows = 1024

// Input describes an in-process record source destined for engine stdin.
type Input struct {
	// Columns pins the column order. When empty, the first record's keys
	// are used in sorted order.
	Columns []string
	// Format selects the stdin transport: csv (default), jsonlines or arrow.
	Format models.Format
	// BatchRows is the arrow batch size; zero means the default.
	BatchRows int
	Records   models.InputRecords
}

// Encode drains the input onto w one record at a time and returns the number
// of records written. Writes block on w, so backpressure comes from the pipe:
// no unbounded buffering happens here. The caller owns closing w, which is
// what signals end-of-stream to the engine.
func Encode(w io.Writer, in *Input) (int64, error) {
	next, stop := iter.Pull(in.Records)
	defer stop()

	first, ok := next()
	if !ok && len(in.Columns) == 0 {
		return 0, nil
	}

	columns := in.Columns
	if len(columns) == 0 {
		columns = make([]string, 0, len(first))
		for name := range first {
			columns = append(columns, name)
		}
		sort.Strings(columns)
	}

	switch in.Format {
	case models.FormatArrow:
		return encodeArrow(w, columns, first, ok, next, in.BatchRows)
	case models.FormatJSONLines:
		return encodeJSONLines(w, first, ok, next)
	default:
		return encodeCSV(w, columns, first, ok, next)
	}
}

func encodeCSV(w io.Writer, columns []string, first map[string]interface{}, ok bool, next func() (map[string]interface{}, bool)) (int64, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	var count int64
	row := make([]string, len(columns))
	for rec := first; ok; rec, ok = next() {
		for i, name := range columns {
			row[i] = utils.ToString(rec[name])
		}
		if err := cw.Write(row); err != nil {
			return count, fmt.Errorf("write csv record: %w", err)
		}
		count++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return count, fmt.Errorf("flush csv: %w", err)
	}
	return count, nil
}

func encodeJSONLines(w io.Writer, first map[string]interface{}, ok bool, next func() (map[string]interface{}, bool)) (int64, error) {
	enc := json.NewEncoder(w)
	var count int64
	for rec := first; ok; rec, ok = next() {
		if err := enc.Encode(rec); err != nil {
			return count, fmt.Errorf("write jsonlines record: %w", err)
		}
		count++
	}
	return count, nil
}

func encodeArrow(w io.Writer, columns []string, first map[string]interface{}, ok bool, next func() (map[string]interface{}, bool), batchRows int) (int64, error) {
	if batchRows <= 0 {
		batchRows = defaultBatchRows
	}

	// Schema is inferred from the first record; later records must coerce
	// to it or the encode fails.
	fields := make([]arrow.Field, len(columns))
	for i, name := range columns {
		fields[i] = arrow.Field{Name: name, Type: arrowType(first[name]), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	wr := ipc.NewWriter(w, ipc.WithSchema(schema))
	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	flush := func() error {
		rec := builder.NewRecord()
		defer rec.Release()
		return wr.Write(rec)
	}

	var count int64
	pending := 0
	for rec := first; ok; rec, ok = next() {
		for i, name := range columns {
			if err := appendValue(builder.Field(i), rec[name]); err != nil {
				return count, fmt.Errorf("column %q: %w", name, err)
			}
		}
		count++
		pending++
		if pending >= batchRows {
			if err := flush(); err != nil {
				return count, fmt.Errorf("write arrow batch: %w", err)
			}
			pending = 0
		}
	}
	if pending > 0 {
		if err := flush(); err != nil {
			return count, fmt.Errorf("write arrow batch: %w", err)
		}
	}
	if err := wr.Close(); err != nil {
		return count, fmt.Errorf("close arrow stream: %w", err)
	}
	return count, nil
}

func arrowType(v interface{}) arrow.DataType {
	switch v.(type) {
	case int, int32, int64:
		return arrow.PrimitiveTypes.Int64
	case float32, float64:
		return arrow.PrimitiveTypes.Float64
	case bool:
		return arrow.FixedWidthTypes.Boolean
	case time.Time:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

func appendValue(b array.Builder, v interface{}) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch fb := b.(type) {
	case *array.Int64Builder:
		n, err := utils.ToInt64(v)
		if err != nil {
			return err
		}
		fb.Append(n)
	case *array.Float64Builder:
		f, err := utils.ToFloat64(v)
		if err != nil {
			return err
		}
		fb.Append(f)
	case *array.BooleanBuilder:
		t, err := utils.ToBool(v)
		if err != nil {
			return err
		}
		fb.Append(t)
	case *array.TimestampBuilder:
		t, err := utils.ToTime(v)
		if err != nil {
			return err
		}
		fb.Append(arrow.Timestamp(t.UnixNano() / int64(time.Microsecond)))
	case *array.StringBuilder:
		fb.Append(utils.ToString(v))
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	return nil
}
