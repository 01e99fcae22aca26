package wire

import (
	"errors"
	"fmt"

	"github.com/pvmon/pvmon-go/pkg/pv"
)

// ErrValueType is returned when a wire value carries an unknown type.
var ErrValueType = errors.New("unsupported value type")

// Value is the wire form of pv.Value. Exactly one of the slices is
// populated, chosen by Type.
type Value struct {
	Type    int8      `cbor:"1,keyasint"`
	Strings []string  `cbor:"2,keyasint,omitempty"`
	Ints    []int64   `cbor:"3,keyasint,omitempty"`
	Floats  []float64 `cbor:"4,keyasint,omitempty"`
	Bytes   []byte    `cbor:"5,keyasint,omitempty"`
}

// ValueFrom converts a pv.Value into its wire form.
func ValueFrom(v pv.Value) Value {
	switch x := v.(type) {
	case pv.StringValue:
		return Value{Type: int8(pv.FieldTypeString), Strings: []string(x)}
	case pv.EnumValue:
		out := make([]int64, len(x))
		for i, e := range x {
			out[i] = int64(e)
		}
		return Value{Type: int8(pv.FieldTypeEnum), Ints: out}
	case pv.ShortValue:
		out := make([]int64, len(x))
		for i, e := range x {
			out[i] = int64(e)
		}
		return Value{Type: int8(pv.FieldTypeShort), Ints: out}
	case pv.LongValue:
		out := make([]int64, len(x))
		for i, e := range x {
			out[i] = int64(e)
		}
		return Value{Type: int8(pv.FieldTypeLong), Ints: out}
	case pv.CharValue:
		return Value{Type: int8(pv.FieldTypeChar), Bytes: []byte(x)}
	case pv.FloatValue:
		out := make([]float64, len(x))
		for i, e := range x {
			out[i] = float64(e)
		}
		return Value{Type: int8(pv.FieldTypeFloat), Floats: out}
	case pv.DoubleValue:
		return Value{Type: int8(pv.FieldTypeDouble), Floats: []float64(x)}
	default:
		return Value{Type: int8(pv.FieldTypeNotConnected)}
	}
}

// PV converts the wire form back into a pv.Value.
func (v Value) PV() (pv.Value, error) {
	switch pv.FieldType(v.Type) {
	case pv.FieldTypeString:
		return pv.StringValue(v.Strings), nil
	case pv.FieldTypeEnum:
		out := make(pv.EnumValue, len(v.Ints))
		for i, e := range v.Ints {
			out[i] = uint16(e)
		}
		return out, nil
	case pv.FieldTypeShort:
		out := make(pv.ShortValue, len(v.Ints))
		for i, e := range v.Ints {
			out[i] = int16(e)
		}
		return out, nil
	case pv.FieldTypeLong:
		out := make(pv.LongValue, len(v.Ints))
		for i, e := range v.Ints {
			out[i] = int32(e)
		}
		return out, nil
	case pv.FieldTypeChar:
		return pv.CharValue(v.Bytes), nil
	case pv.FieldTypeFloat:
		out := make(pv.FloatValue, len(v.Floats))
		for i, e := range v.Floats {
			out[i] = float32(e)
		}
		return out, nil
	case pv.FieldTypeDouble:
		return pv.DoubleValue(v.Floats), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrValueType, v.Type)
	}
}
