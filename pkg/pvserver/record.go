package pvserver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pvmon/pvmon-go/pkg/pv"
)

// Record errors.
var (
	ErrExists     = errors.New("process variable already exists")
	ErrUnknownPV  = errors.New("unknown process variable")
	ErrTypeChange = errors.New("value type does not match record")
	ErrConvert    = errors.New("value cannot be converted")
)

// Options describe a record beyond its value.
type Options struct {
	// Precision and Units are served as graphic metadata.
	Precision int16
	Units     string

	// NoMetadata makes metadata reads fail.
	NoMetadata bool

	// States names the enum values; enums are served as these names in
	// string requests.
	States []string

	DenyRead  bool
	DenyWrite bool
}

// record is one served PV. Fields are guarded by Server.mu.
type record struct {
	name     string
	value    pv.Value
	stamp    time.Time
	alarm    pv.AlarmStatus
	severity pv.AlarmSeverity
	access   pv.AccessRights
	opts     Options
}

func (r *record) fieldType() pv.FieldType {
	return r.value.FieldType()
}

// convert renders the record value in the representation of kind.
func convert(r *record, kind pv.RequestKind) (pv.Value, error) {
	target := kind.FieldType()
	if target == r.fieldType() {
		return r.value, nil
	}

	if target == pv.FieldTypeString {
		return toStrings(r), nil
	}

	if s, ok := r.value.(pv.StringValue); ok {
		nums := make([]float64, len(s))
		for i, e := range s {
			f, err := strconv.ParseFloat(strings.TrimSpace(e), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q to %s", ErrConvert, e, target)
			}
			nums[i] = f
		}
		return pv.FromFloat64s(target, nums), nil
	}

	v := pv.FromFloat64s(target, pv.Float64s(r.value))
	if v == nil {
		return nil, fmt.Errorf("%w: %s to %s", ErrConvert, r.fieldType(), target)
	}
	return v, nil
}

func toStrings(r *record) pv.StringValue {
	switch x := r.value.(type) {
	case pv.StringValue:
		return x
	case pv.EnumValue:
		out := make(pv.StringValue, len(x))
		for i, e := range x {
			if int(e) < len(r.opts.States) {
				out[i] = r.opts.States[e]
			} else {
				out[i] = strconv.Itoa(int(e))
			}
		}
		return out
	case pv.FloatValue:
		out := make(pv.StringValue, len(x))
		for i, e := range x {
			out[i] = strconv.FormatFloat(float64(e), 'f', int(r.opts.Precision), 32)
		}
		return out
	case pv.DoubleValue:
		out := make(pv.StringValue, len(x))
		for i, e := range x {
			out[i] = strconv.FormatFloat(e, 'f', int(r.opts.Precision), 64)
		}
		return out
	default:
		nums := pv.Float64s(r.value)
		out := make(pv.StringValue, len(nums))
		for i, e := range nums {
			out[i] = strconv.FormatInt(int64(e), 10)
		}
		return out
	}
}
