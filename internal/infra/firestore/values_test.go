package firestore

import (
	"reflect"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	cases := map[string]any{
		"string":  "hello",
		"int":     int64(42),
		"float":   3.14,
		"bool":    true,
		"nil":     nil,
		"time":    ts,
		"array":   []any{"a", int64(1), false},
		"nested":  map[string]any{"inner": map[string]any{"k": "v"}, "n": int64(7)},
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			enc, err := Encode(in)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			out, err := Decode(enc)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(in, out) {
				t.Fatalf("round trip: got %#v, want %#v", out, in)
			}
		})
	}
}

func TestIntegerAndDoubleKeepDistinctTags(t *testing.T) {
	iv, err := Encode(int64(5))
	if err != nil {
		t.Fatal(err)
	}
	if iv.IntegerValue == nil || iv.DoubleValue != nil {
		t.Fatalf("int64 should carry integerValue: %+v", iv)
	}

	dv, err := Encode(5.0)
	if err != nil {
		t.Fatal(err)
	}
	if dv.DoubleValue == nil || dv.IntegerValue != nil {
		t.Fatalf("float64 should carry doubleValue: %+v", dv)
	}

	decoded, err := Decode(dv)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded.(float64); !ok {
		t.Fatalf("doubleValue must decode to float64, got %T", decoded)
	}
}

func TestEncodeUnsupportedType(t *testing.T) {
	if _, err := Encode(struct{}{}); err == nil {
		t.Fatal("want error for unsupported type")
	}
}

func TestDecodeBadInteger(t *testing.T) {
	bad := "not-a-number"
	if _, err := Decode(Value{IntegerValue: &bad}); err == nil {
		t.Fatal("want error for malformed integerValue")
	}
}

func TestDocumentID(t *testing.T) {
	d := &Document{Name: "projects/p/databases/(default)/documents/job_queue/abc123"}
	if got := d.ID(); got != "abc123" {
		t.Fatalf("ID() = %q", got)
	}
}
