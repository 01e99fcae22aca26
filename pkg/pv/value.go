package pv

// Value is the decoded payload of an update. The set of implementations is
// closed; use a type switch over the variants below.
type Value interface {
	// Len returns the number of elements.
	Len() int

	// FieldType returns the element type.
	FieldType() FieldType

	isValue()
}

// StringValue holds string elements. Enum channels monitored as strings
// deliver their state names here.
type StringValue []string

// EnumValue holds enum indices.
type EnumValue []uint16

// ShortValue holds 16-bit integers.
type ShortValue []int16

// FloatValue holds 32-bit floats.
type FloatValue []float32

// CharValue holds unsigned bytes.
type CharValue []uint8

// LongValue holds 32-bit integers.
type LongValue []int32

// DoubleValue holds 64-bit floats.
type DoubleValue []float64

func (v StringValue) Len() int { return len(v) }
func (v EnumValue) Len() int   { return len(v) }
func (v ShortValue) Len() int  { return len(v) }
func (v FloatValue) Len() int  { return len(v) }
func (v CharValue) Len() int   { return len(v) }
func (v LongValue) Len() int   { return len(v) }
func (v DoubleValue) Len() int { return len(v) }

func (StringValue) FieldType() FieldType { return FieldTypeString }
func (EnumValue) FieldType() FieldType   { return FieldTypeEnum }
func (ShortValue) FieldType() FieldType  { return FieldTypeShort }
func (FloatValue) FieldType() FieldType  { return FieldTypeFloat }
func (CharValue) FieldType() FieldType   { return FieldTypeChar }
func (LongValue) FieldType() FieldType   { return FieldTypeLong }
func (DoubleValue) FieldType() FieldType { return FieldTypeDouble }

func (StringValue) isValue() {}
func (EnumValue) isValue()   {}
func (ShortValue) isValue()  {}
func (FloatValue) isValue()  {}
func (CharValue) isValue()   {}
func (LongValue) isValue()   {}
func (DoubleValue) isValue() {}

// Truncate returns v limited to n elements. A non-positive n returns v
// unchanged.
func Truncate(v Value, n int) Value {
	if n <= 0 || v == nil || v.Len() <= n {
		return v
	}
	switch x := v.(type) {
	case StringValue:
		return x[:n]
	case EnumValue:
		return x[:n]
	case ShortValue:
		return x[:n]
	case FloatValue:
		return x[:n]
	case CharValue:
		return x[:n]
	case LongValue:
		return x[:n]
	case DoubleValue:
		return x[:n]
	}
	return v
}

// Float64s returns the numeric elements of v widened to float64. String
// values yield nil.
func Float64s(v Value) []float64 {
	var out []float64
	switch x := v.(type) {
	case EnumValue:
		out = make([]float64, len(x))
		for i, e := range x {
			out[i] = float64(e)
		}
	case ShortValue:
		out = make([]float64, len(x))
		for i, e := range x {
			out[i] = float64(e)
		}
	case FloatValue:
		out = make([]float64, len(x))
		for i, e := range x {
			out[i] = float64(e)
		}
	case CharValue:
		out = make([]float64, len(x))
		for i, e := range x {
			out[i] = float64(e)
		}
	case LongValue:
		out = make([]float64, len(x))
		for i, e := range x {
			out[i] = float64(e)
		}
	case DoubleValue:
		out = append([]float64(nil), x...)
	}
	return out
}

// FromFloat64s builds a value of field type t from widened elements.
// String and unknown types yield nil.
func FromFloat64s(t FieldType, f []float64) Value {
	switch t {
	case FieldTypeEnum:
		out := make(EnumValue, len(f))
		for i, e := range f {
			out[i] = uint16(e)
		}
		return out
	case FieldTypeShort:
		out := make(ShortValue, len(f))
		for i, e := range f {
			out[i] = int16(e)
		}
		return out
	case FieldTypeFloat:
		out := make(FloatValue, len(f))
		for i, e := range f {
			out[i] = float32(e)
		}
		return out
	case FieldTypeChar:
		out := make(CharValue, len(f))
		for i, e := range f {
			out[i] = uint8(e)
		}
		return out
	case FieldTypeLong:
		out := make(LongValue, len(f))
		for i, e := range f {
			out[i] = int32(e)
		}
		return out
	case FieldTypeDouble:
		return DoubleValue(append([]float64(nil), f...))
	default:
		return nil
	}
}
