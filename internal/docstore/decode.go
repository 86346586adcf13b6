package docstore

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

var ErrInvalidDocument = errors.New("invalid document")

// Decoder reads typed fields out of a Document. The first failure is kept
// and returned by Err; later reads return zero values.
//
//	d := docstore.NewDecoder(snap.Data)
//	v := Visit{UserID: d.RequiredString("userId"), Rating: d.Int("rating")}
//	if err := d.Err(); err != nil { ... }
type Decoder struct {
	doc Document
	err error
}

func NewDecoder(doc Document) *Decoder {
	return &Decoder{doc: doc}
}

func (d *Decoder) fail(key string, err error) {
	if d.err == nil {
		d.err = errors.Wrapf(ErrInvalidDocument, "field %q: %v", key, err)
	}
}

func (d *Decoder) value(key string) (any, bool) {
	if d.err != nil {
		return nil, false
	}
	v, ok := d.doc[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns an optional string field.
func (d *Decoder) String(key string) string {
	v, ok := d.value(key)
	if !ok {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		d.fail(key, err)
	}
	return s
}

// RequiredString fails when the field is missing or empty.
func (d *Decoder) RequiredString(key string) string {
	if d.err != nil {
		return ""
	}
	s := d.String(key)
	if s == "" && d.err == nil {
		d.fail(key, errors.New("required"))
	}
	return s
}

func (d *Decoder) Int(key string) int {
	v, ok := d.value(key)
	if !ok {
		return 0
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		d.fail(key, err)
	}
	return i
}

func (d *Decoder) Bool(key string) bool {
	v, ok := d.value(key)
	if !ok {
		return false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		d.fail(key, err)
	}
	return b
}

// Time accepts native timestamps and strings in any layout cast understands,
// TimeLayout included. Missing times decode as the zero time.
func (d *Decoder) Time(key string) time.Time {
	v, ok := d.value(key)
	if !ok {
		return time.Time{}
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		d.fail(key, err)
		return time.Time{}
	}
	return t.UTC()
}

func (d *Decoder) Err() error {
	return d.err
}
