package stream

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"sort"

	"github.com/ferrydata/ferry/pkg/models"
)

// DecodeRows lazily parses a raw byte stream into records. CSV input
// consumes a header line once to establish column names; line-delimited
// JSON derives each record's columns from its own keys. A malformed unit
// aborts the sequence with a DecodeError.
func DecodeRows(r io.Reader, format models.Format) iter.Seq2[Record, error] {
	switch format {
	case models.FormatJSONLines, models.FormatJSON:
		return decodeJSONLines(r)
	default:
		return decodeCSV(r)
	}
}

func decodeCSV(r io.Reader) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		cr := csv.NewReader(r)
		cr.ReuseRecord = false

		header, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			yield(Record{}, &DecodeError{Format: "csv", Err: err})
			return
		}

		for {
			row, err := cr.Read()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(Record{}, &DecodeError{Format: "csv", Err: err})
				return
			}
			values := make(map[string]interface{}, len(header))
			for i, name := range header {
				values[name] = row[i]
			}
			if !yield(Record{Columns: header, Values: values}, nil) {
				return
			}
		}
	}
}

func decodeJSONLines(r io.Reader) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var values map[string]interface{}
			if err := json.Unmarshal(line, &values); err != nil {
				yield(Record{}, &DecodeError{Format: "jsonlines", Err: err})
				return
			}
			cols := make([]string, 0, len(values))
			for name := range values {
				cols = append(cols, name)
			}
			sort.Strings(cols)
			if !yield(Record{Columns: cols, Values: values}, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(Record{}, &DecodeError{Format: "jsonlines", Err: err})
		}
	}
}
