package rows

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind enumerates the scalar kinds a cell can carry. Non-scalar payloads
// (nested objects, arrays) are JSON-encoded into KindText before they
// reach a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindReal
	KindText
	KindTime
)

// Value is a tagged scalar. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
}

func Null() Value               { return Value{} }
func Bool(v bool) Value         { return Value{kind: KindBool, b: v} }
func Int(v int64) Value         { return Value{kind: KindInt, i: v} }
func Real(v float64) Value      { return Value{kind: KindReal, f: v} }
func Text(v string) Value       { return Value{kind: KindText, s: v} }
func Timestamp(v time.Time) Value { return Value{kind: KindTime, t: v} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Arg returns the value in the shape database drivers expect.
func (v Value) Arg() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindReal:
		return v.f
	case KindTime:
		return v.t
	default:
		return v.s
	}
}

// Text returns the textual form of the value; null renders as "".
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindReal:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return v.s
	}
}

// FromAny converts a decoded JSON/YAML value into a Value. Nested maps
// and slices are JSON-encoded so they survive as text columns.
func FromAny(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(v)
	case int:
		return Int(int64(v))
	case int64:
		return Int(v)
	case float64:
		return Real(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Int(i)
		}
		if f, err := v.Float64(); err == nil {
			return Real(f)
		}
		return Text(v.String())
	case string:
		return Text(v)
	case time.Time:
		return Timestamp(v)
	default:
		enc, err := json.Marshal(v)
		if err != nil {
			return Text(fmt.Sprint(v))
		}
		return Text(string(enc))
	}
}
