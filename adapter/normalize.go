package adapter

import (
	"encoding/json"
	"fmt"

	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
)

// Unwrap returns the payload of a response. Raw JSON bytes are decoded first,
// and an object carrying a non-nil "data" member is replaced by that member.
func Unwrap(raw any) (any, error) {
	switch v := raw.(type) {
	case []byte:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil, errors.WrapInvalid(err, "adapter", "Unwrap", "decode response")
		}
		raw = decoded
	case json.RawMessage:
		return Unwrap([]byte(v))
	}

	if obj, ok := raw.(map[string]any); ok {
		if data, has := obj["data"]; has && data != nil {
			return data, nil
		}
	}
	return raw, nil
}

// ToRecords converts a payload into rows. Two shapes are accepted: a list of
// objects, and an object whose members are equal-length arrays (one array per
// column). Columns of unequal length fail with errors.ErrRaggedColumns. A nil
// payload gives no rows. Row payloads are copied so callers may modify the
// result without touching a cached response.
func ToRecords(data any) ([]chain.Record, error) {
	switch v := data.(type) {
	case nil:
		return []chain.Record{}, nil
	case []chain.Record:
		return chain.CloneRecords(v), nil
	case []map[string]any:
		rows := make([]chain.Record, len(v))
		for i, r := range v {
			rows[i] = chain.Record(r).Clone()
		}
		return rows, nil
	case []any:
		rows := make([]chain.Record, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, errors.WrapInvalid(errors.ErrInvalidData, "adapter", "ToRecords",
					fmt.Sprintf("row %d is %T, not an object", i, item))
			}
			rows = append(rows, chain.Record(obj).Clone())
		}
		return rows, nil
	case map[string]any:
		return columnsToRecords(v)
	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "adapter", "ToRecords",
			fmt.Sprintf("unsupported payload type %T", data))
	}
}

func columnsToRecords(cols map[string]any) ([]chain.Record, error) {
	n := -1
	arrays := make(map[string][]any, len(cols))
	for name, col := range cols {
		arr, ok := col.([]any)
		if !ok {
			return nil, errors.WrapInvalid(errors.ErrInvalidData, "adapter", "ToRecords",
				fmt.Sprintf("column %q is %T, not an array", name, col))
		}
		if n == -1 {
			n = len(arr)
		} else if len(arr) != n {
			return nil, errors.WrapInvalid(errors.ErrRaggedColumns, "adapter", "ToRecords",
				fmt.Sprintf("column %q has %d values, expected %d", name, len(arr), n))
		}
		arrays[name] = arr
	}
	if n <= 0 {
		return []chain.Record{}, nil
	}

	rows := make([]chain.Record, n)
	for i := range rows {
		row := make(chain.Record, len(arrays))
		for name, arr := range arrays {
			row[name] = arr[i]
		}
		rows[i] = row
	}
	return rows, nil
}

// ExtractFields projects rows onto the requested fields. Each output row maps
// Outnames[i] to the row's Fields[i] value with Transforms[i] applied. A
// field missing from every row fails with errors.MissingFieldError; a field
// missing from only some rows is left out of those rows. No rows in means no
// rows out.
func ExtractFields(rows []chain.Record, req Request) ([]chain.Record, error) {
	if len(rows) == 0 {
		return []chain.Record{}, nil
	}

	for i, f := range req.Fields {
		if !anyHas(rows, f) {
			return nil, &errors.MissingFieldError{Field: f, Outname: outname(req, i)}
		}
	}

	out := make([]chain.Record, len(rows))
	for r, row := range rows {
		rec := make(chain.Record, len(req.Fields))
		for i, f := range req.Fields {
			v, ok := row[f]
			if !ok {
				continue
			}
			if i < len(req.Transforms) && req.Transforms[i] != nil {
				v = req.Transforms[i](v)
			}
			rec[outname(req, i)] = v
		}
		out[r] = rec
	}
	return out, nil
}

func anyHas(rows []chain.Record, field string) bool {
	for _, row := range rows {
		if _, ok := row[field]; ok {
			return true
		}
	}
	return false
}

func outname(req Request, i int) string {
	if i < len(req.Outnames) && req.Outnames[i] != "" {
		return req.Outnames[i]
	}
	return req.Fields[i]
}
