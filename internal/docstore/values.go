package docstore

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// TimeLayout is the fixed-width UTC form times are stored in by backends
// without a native timestamp type. Equal width keeps lexical order equal to
// chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// EncodeTime renders t in TimeLayout.
func EncodeTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// encodeValue converts a value to the form stored in JSON documents.
func encodeValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return EncodeTime(val)
	case *time.Time:
		if val == nil {
			return nil
		}
		return EncodeTime(*val)
	default:
		return v
	}
}

func encodeDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = encodeValue(v)
	}
	return out
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// valuesEqual compares two document values the way an equality filter does.
func valuesEqual(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if isNumber(a) && isNumber(b) {
		return cast.ToFloat64(a) == cast.ToFloat64(b)
	}
	return a == b
}

// compareValues orders two document values. Missing values sort first.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	if isNumber(a) && isNumber(b) {
		fa, fb := cast.ToFloat64(a), cast.ToFloat64(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(cast.ToString(a), cast.ToString(b))
}
