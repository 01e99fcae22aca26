package action

import (
	"fmt"
	"io"

	"github.com/pvmon/pvmon-go/pkg/monitor"
	"github.com/pvmon/pvmon-go/pkg/pv"
)

// Sink feeds monitor updates to a Dispatcher and reports problems on an
// error stream.
type Sink struct {
	dispatcher *Dispatcher
	errw       io.Writer
}

var _ monitor.Sink = (*Sink)(nil)

// NewSink creates a sink for d writing notices to errw.
func NewSink(d *Dispatcher, errw io.Writer) *Sink {
	return &Sink{dispatcher: d, errw: errw}
}

// NotConnected prints "PV <name> not connected".
func (s *Sink) NotConnected(name string) {
	fmt.Fprintf(s.errw, "PV <%s> not connected\n", name)
}

// AccessRights is ignored.
func (s *Sink) AccessRights(string, pv.AccessRights) {}

// Update dispatches the value, or reports a failed update.
func (s *Sink) Update(name string, u pv.Update, precision int) {
	if !u.Status.IsNormal() {
		fmt.Fprintf(s.errw, "Event receive failure for <%s>\n", name)
		return
	}
	s.dispatcher.HandleUpdate(name, monitor.ValueString(u.Value, precision))
}
