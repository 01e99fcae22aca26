package monitor

import (
	"fmt"

	"github.com/pvmon/pvmon-go/pkg/log"
	"github.com/pvmon/pvmon-go/pkg/pv"
)

// negotiate reads the display precision of a float or double channel and
// subscribes once it is known. A failure leaves the channel Failed.
func (e *Engine) negotiate(ch *channel) {
	ch.state = StateMetadataPending
	err := e.transport.GetMetadata(ch.handle, func(_ pv.Handle, md pv.Metadata, err error) {
		e.handleMetadata(ch, md, err)
	})
	if err != nil {
		e.metadataFailed(ch, err)
	}
}

func (e *Engine) handleMetadata(ch *channel, md pv.Metadata, err error) {
	if ch.removed {
		return
	}
	if err != nil {
		e.metadataFailed(ch, err)
		return
	}

	ch.precision = max(int(md.Precision), 0)
	e.record(log.CategoryMetadata, ch, &log.MonitorEvent{
		FieldType: ch.fieldType.String(),
		Detail:    fmt.Sprintf("precision=%d units=%q", ch.precision, md.Units),
	})
	e.subscribe(ch)
}

func (e *Engine) metadataFailed(ch *channel, err error) {
	fmt.Fprintf(e.config.Err, "precision fetch failed on analog channel \"%s\" because \"%s\"\n", ch.name, err)
	fmt.Fprintln(e.config.Err, "Unable to monitor PV")
	ch.settle(StateFailed)
	e.metrics.MetadataFailed()
	e.record(log.CategoryMetadata, ch, &log.MonitorEvent{State: StateFailed.String(), Detail: err.Error()})
}
