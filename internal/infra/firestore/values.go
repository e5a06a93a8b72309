// File: internal/infra/firestore/values.go
package firestore

import (
	"fmt"
	"strconv"
	"time"
)

// Value is the typed wire representation of one Firestore field. Exactly
// one member is set; the wire tag is what distinguishes an integer from a
// double on the way back.
type Value struct {
	NullValue      *string          `json:"nullValue,omitempty"`
	StringValue    *string          `json:"stringValue,omitempty"`
	IntegerValue   *string          `json:"integerValue,omitempty"`
	DoubleValue    *float64         `json:"doubleValue,omitempty"`
	BooleanValue   *bool            `json:"booleanValue,omitempty"`
	TimestampValue *string          `json:"timestampValue,omitempty"`
	ArrayValue     *ArrayValue      `json:"arrayValue,omitempty"`
	MapValue       *MapValue        `json:"mapValue,omitempty"`
}

type ArrayValue struct {
	Values []Value `json:"values,omitempty"`
}

type MapValue struct {
	Fields map[string]Value `json:"fields,omitempty"`
}

// Document is one stored document as the REST API returns it.
type Document struct {
	Name       string           `json:"name,omitempty"`
	Fields     map[string]Value `json:"fields,omitempty"`
	CreateTime string           `json:"createTime,omitempty"`
	UpdateTime string           `json:"updateTime,omitempty"`
}

// ID returns the last path segment of the document name.
func (d *Document) ID() string {
	for i := len(d.Name) - 1; i >= 0; i-- {
		if d.Name[i] == '/' {
			return d.Name[i+1:]
		}
	}
	return d.Name
}

// Encode converts a plain Go value into its tagged wire form. Supported:
// nil, string, bool, ints, float64, time.Time, []any, map[string]any.
func Encode(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		n := "NULL_VALUE"
		return Value{NullValue: &n}, nil
	case string:
		return Value{StringValue: &t}, nil
	case bool:
		return Value{BooleanValue: &t}, nil
	case int:
		s := strconv.FormatInt(int64(t), 10)
		return Value{IntegerValue: &s}, nil
	case int32:
		s := strconv.FormatInt(int64(t), 10)
		return Value{IntegerValue: &s}, nil
	case int64:
		s := strconv.FormatInt(t, 10)
		return Value{IntegerValue: &s}, nil
	case float64:
		return Value{DoubleValue: &t}, nil
	case time.Time:
		s := t.UTC().Format(time.RFC3339Nano)
		return Value{TimestampValue: &s}, nil
	case []any:
		vals := make([]Value, 0, len(t))
		for _, el := range t {
			ev, err := Encode(el)
			if err != nil {
				return Value{}, err
			}
			vals = append(vals, ev)
		}
		return Value{ArrayValue: &ArrayValue{Values: vals}}, nil
	case map[string]any:
		fields, err := EncodeFields(t)
		if err != nil {
			return Value{}, err
		}
		return Value{MapValue: &MapValue{Fields: fields}}, nil
	default:
		return Value{}, fmt.Errorf("firestore: unsupported field type %T", v)
	}
}

// Decode reverses Encode. Integers come back as int64, doubles as float64,
// timestamps as time.Time.
func Decode(v Value) (any, error) {
	switch {
	case v.NullValue != nil:
		return nil, nil
	case v.StringValue != nil:
		return *v.StringValue, nil
	case v.BooleanValue != nil:
		return *v.BooleanValue, nil
	case v.IntegerValue != nil:
		n, err := strconv.ParseInt(*v.IntegerValue, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("firestore: bad integerValue %q", *v.IntegerValue)
		}
		return n, nil
	case v.DoubleValue != nil:
		return *v.DoubleValue, nil
	case v.TimestampValue != nil:
		ts, err := time.Parse(time.RFC3339Nano, *v.TimestampValue)
		if err != nil {
			return nil, fmt.Errorf("firestore: bad timestampValue %q", *v.TimestampValue)
		}
		return ts, nil
	case v.ArrayValue != nil:
		out := make([]any, 0, len(v.ArrayValue.Values))
		for _, el := range v.ArrayValue.Values {
			dv, err := Decode(el)
			if err != nil {
				return nil, err
			}
			out = append(out, dv)
		}
		return out, nil
	case v.MapValue != nil:
		return DecodeFields(v.MapValue.Fields)
	default:
		return nil, fmt.Errorf("firestore: value with no recognized tag")
	}
}

func EncodeFields(m map[string]any) (map[string]Value, error) {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		ev, err := Encode(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = ev
	}
	return out, nil
}

func DecodeFields(fields map[string]Value) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		dv, err := Decode(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = dv
	}
	return out, nil
}
