package types

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind tags the variant held by a Value
type Kind int

const (
	KindNull Kind = iota
	KindInt       // Short, Long, Autoincrement
	KindFloat     // Number, Currency
	KindBool      // Logical
	KindDate      // days since 1970-01-01
	KindTime      // seconds since midnight
	KindTimestamp // seconds since 1970-01-01 UTC
	KindText      // Alpha, Memo, FmtMemo, BCD (recoded to UTF-8)
	KindBytes     // Bytes, Binary, Ole, Graphic
)

// Value is the neutral decoded form of one table cell
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Bytes []byte
}

// Days between 0001-01-01 and 1970-01-01 in the proleptic Gregorian
// calendar; Paradox date and timestamp cells count from year one.
const EpochShiftDays = 719163

func Null() Value                 { return Value{Kind: KindNull} }
func IntValue(v int64) Value      { return Value{Kind: KindInt, Int: v} }
func FloatValue(v float64) Value  { return Value{Kind: KindFloat, Float: v} }
func BoolValue(v bool) Value      { return Value{Kind: KindBool, Bool: v} }
func DateValue(days int64) Value  { return Value{Kind: KindDate, Int: days} }
func TimeValue(sec float64) Value { return Value{Kind: KindTime, Float: sec} }
func TextValue(s string) Value    { return Value{Kind: KindText, Str: s} }
func BytesValue(b []byte) Value   { return Value{Kind: KindBytes, Bytes: b} }

func TimestampValue(sec float64) Value {
	return Value{Kind: KindTimestamp, Float: sec}
}

// IsNull reports whether the value is the Null variant.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Date returns the date value as a UTC time.Time at midnight.
// Valid only for KindDate.
func (v Value) Date() time.Time {
	return time.Unix(v.Int*86400, 0).UTC()
}

// Timestamp returns the timestamp value as a UTC time.Time.
// Valid only for KindTimestamp.
func (v Value) Timestamp() time.Time {
	sec, frac := math.Modf(v.Float)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// Equal reports deep equality of two values.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindInt, KindDate:
		return v.Int == o.Int
	case KindFloat, KindTime, KindTimestamp:
		return v.Float == o.Float
	case KindBool:
		return v.Bool == o.Bool
	case KindText:
		return v.Str == o.Str
	case KindBytes:
		if len(v.Bytes) != len(o.Bytes) {
			return false
		}
		for i := range v.Bytes {
			if v.Bytes[i] != o.Bytes[i] {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the value for display and CSV export.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindDate:
		return v.Date().Format("2006-01-02")
	case KindTime:
		ms := int64(math.Round(v.Float * 1000))
		return fmt.Sprintf("%02d:%02d:%02d.%03d",
			ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
	case KindTimestamp:
		return v.Timestamp().Format("2006-01-02 15:04:05")
	case KindText:
		return v.Str
	case KindBytes:
		return hex.EncodeToString(v.Bytes)
	default:
		return fmt.Sprintf("VALUE_KIND_%d", int(v.Kind))
	}
}

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInt:
		return "INT"
	case KindFloat:
		return "FLOAT"
	case KindBool:
		return "BOOL"
	case KindDate:
		return "DATE"
	case KindTime:
		return "TIME"
	case KindTimestamp:
		return "TIMESTAMP"
	case KindText:
		return "TEXT"
	case KindBytes:
		return "BYTES"
	default:
		return fmt.Sprintf("KIND_%d", int(k))
	}
}
