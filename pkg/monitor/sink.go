package monitor

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pvmon/pvmon-go/pkg/pv"
)

// Sink receives the user-visible outcome of channel events.
type Sink interface {
	// NotConnected reports a channel that is down or never came up.
	NotConnected(name string)

	// AccessRights reports the rights of a connected channel.
	AccessRights(name string, rights pv.AccessRights)

	// Update delivers a value. precision is NoPrecision unless negotiated.
	Update(name string, u pv.Update, precision int)
}

// PrintSink prints monitor lines to an output stream and diagnostics to an
// error stream. Every line is flushed as soon as it is complete.
type PrintSink struct {
	out       *bufio.Writer
	errw      io.Writer
	formatter Formatter
}

var _ Sink = (*PrintSink)(nil)

// NewPrintSink creates a sink writing updates to out and notices to errw.
func NewPrintSink(out, errw io.Writer, f Formatter) *PrintSink {
	return &PrintSink{out: bufio.NewWriter(out), errw: errw, formatter: f}
}

// NotConnected prints "[<name>] not connected".
func (s *PrintSink) NotConnected(name string) {
	fmt.Fprintf(s.out, "[%s] not connected\n", name)
	s.out.Flush()
}

// AccessRights prints a notice for every missing right.
func (s *PrintSink) AccessRights(name string, rights pv.AccessRights) {
	if !rights.Read {
		fmt.Fprintf(s.out, " %s  no read access\n", name)
	}
	if !rights.Write {
		fmt.Fprintf(s.out, " %s  no write access\n", name)
	}
	s.out.Flush()
}

// Update prints the formatted line, or an error notice when the update
// cannot be rendered.
func (s *PrintSink) Update(name string, u pv.Update, precision int) {
	if err := s.formatter.Format(s.out, name, u, precision); err != nil {
		fmt.Fprintln(s.errw, err)
		return
	}
	s.out.Flush()
}

// Flush writes any buffered output.
func (s *PrintSink) Flush() error {
	return s.out.Flush()
}
