package custom

import (
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Datetime represents a datetime. It is stored as an RFC3339 string in both JSON and BSON.
type Datetime time.Time

// Now returns the current time as a Datetime in UTC.
func Now() Datetime {
	return Datetime(time.Now().UTC())
}

// Time returns the underlying time.Time.
func (d Datetime) Time() time.Time {
	return time.Time(d)
}

// MarshalJSON implements the json.Marshaler interface.
func (d Datetime) MarshalJSON() ([]byte, error) {
	if time.Time(d).IsZero() {
		return []byte(`null`), nil
	}
	return []byte(strconv.Quote(time.Time(d).UTC().Format(time.RFC3339))), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Datetime) UnmarshalJSON(text []byte) error {
	if string(text) == `null` {
		return nil
	}

	got, err := strconv.Unquote(string(text))
	if err != nil {
		return fmt.Errorf("invalid datetime: %s", string(text))
	}

	t, err := time.Parse(time.RFC3339, got)
	if err != nil {
		return err
	}
	*d = Datetime(t)
	return nil
}

// MarshalBSONValue implements the bson.ValueMarshaler interface.
func (d Datetime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if time.Time(d).IsZero() {
		return bson.TypeNull, nil, nil
	}
	return bson.MarshalValue(time.Time(d).UTC().Format(time.RFC3339))
}

// UnmarshalBSONValue implements the bson.ValueUnmarshaler interface.
func (d *Datetime) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bson.TypeNull {
		return nil
	}

	rv := bson.RawValue{Type: t, Value: data}
	got, ok := rv.StringValueOK()
	if !ok {
		return fmt.Errorf("invalid scan, bson type %s not supported for %T", t, d)
	}

	parsed, err := time.Parse(time.RFC3339, got)
	if err != nil {
		return fmt.Errorf("invalid datetime: %s", got)
	}
	*d = Datetime(parsed)
	return nil
}

// String implements the fmt.Stringer interface.
func (d Datetime) String() string {
	return time.Time(d).Format(time.RFC3339)
}
