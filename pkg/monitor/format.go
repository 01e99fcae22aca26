package monitor

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pvmon/pvmon-go/pkg/pv"
)

// TimestampLayout renders update timestamps as fixed-width text.
const TimestampLayout = "01/02/06 15:04:05.000000000"

// elementsPerRow is the number of array elements printed per line.
const elementsPerRow = 10

// Formatter renders updates as monitor lines:
//
//	" <name padded to 30> <timestamp> <v0> <v1> ... [ <alarm> <severity>]\n"
//
// Arrays start every row of ten elements on a new line.
type Formatter struct {
	// TimeLayout overrides TimestampLayout when set.
	TimeLayout string
}

// Format writes the line for u to w. precision is the negotiated display
// precision, or NoPrecision. Nothing is written when an error is returned.
func (f Formatter) Format(w io.Writer, name string, u pv.Update, precision int) error {
	line, err := f.Line(name, u, precision)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, line)
	return err
}

// Line returns the rendered line including its trailing newline.
func (f Formatter) Line(name string, u pv.Update, precision int) (string, error) {
	if !u.Status.IsNormal() {
		return "", fmt.Errorf("%w for [%s]: %s", ErrUpdateFailed, name, u.Status)
	}

	layout := f.TimeLayout
	if layout == "" {
		layout = TimestampLayout
	}

	var b strings.Builder
	fmt.Fprintf(&b, " %-30s %s ", name, u.Timestamp.Format(layout))
	if err := renderValue(&b, u.Value, precision); err != nil {
		return "", fmt.Errorf("[%s]: %w", name, err)
	}
	if u.Severity != pv.SeverityNone {
		fmt.Fprintf(&b, " %s %s", u.Alarm, u.Severity)
	}
	b.WriteByte('\n')
	return b.String(), nil
}

func renderValue(b *strings.Builder, v pv.Value, precision int) error {
	switch x := v.(type) {
	case nil:
		return nil
	case pv.StringValue:
		renderElements(b, len(x), func(i int) string { return x[i] })
	case pv.EnumValue:
		renderElements(b, len(x), func(i int) string { return strconv.FormatUint(uint64(x[i]), 10) })
	case pv.ShortValue:
		renderElements(b, len(x), func(i int) string { return strconv.FormatInt(int64(x[i]), 10) })
	case pv.CharValue:
		renderElements(b, len(x), func(i int) string { return strconv.FormatUint(uint64(x[i]), 10) })
	case pv.LongValue:
		renderElements(b, len(x), func(i int) string { return strconv.FormatInt(int64(x[i]), 10) })
	case pv.FloatValue:
		if precision < 0 {
			return ErrNoPrecision
		}
		renderElements(b, len(x), func(i int) string { return strconv.FormatFloat(float64(x[i]), 'f', precision, 32) })
	case pv.DoubleValue:
		if precision < 0 {
			return ErrNoPrecision
		}
		renderElements(b, len(x), func(i int) string { return strconv.FormatFloat(x[i], 'f', precision, 64) })
	default:
		return fmt.Errorf("%w: %T", ErrUnknownValue, v)
	}
	return nil
}

func renderElements(b *strings.Builder, n int, elem func(int) string) {
	for i := range n {
		if n != 1 && i%elementsPerRow == 0 {
			b.WriteByte('\n')
		}
		b.WriteString(elem(i))
		b.WriteByte(' ')
	}
}

// ValueString renders v as a single string: elements joined by spaces.
// Floating values use precision, or the shortest representation when
// precision is NoPrecision.
func ValueString(v pv.Value, precision int) string {
	var parts []string
	switch x := v.(type) {
	case pv.StringValue:
		parts = x
	case pv.FloatValue:
		for _, e := range x {
			parts = append(parts, strconv.FormatFloat(float64(e), 'f', precision, 32))
		}
	case pv.DoubleValue:
		for _, e := range x {
			parts = append(parts, strconv.FormatFloat(e, 'f', precision, 64))
		}
	default:
		for _, e := range pv.Float64s(v) {
			parts = append(parts, strconv.FormatInt(int64(e), 10))
		}
	}
	return strings.Join(parts, " ")
}
