package monitor

import (
	"context"
	"time"

	"github.com/pvmon/pvmon-go/pkg/pv"
)

// Transport is the pub/sub layer the engine drives. Implementations queue
// every callback and run it from PumpEvents on the caller's goroutine.
type Transport interface {
	// Connect starts resolving name and returns its handle. fn is called for
	// every connection change of the channel.
	Connect(name string, fn pv.ConnectionHandler) (pv.Handle, error)

	// Subscribe requests value updates of kind with count elements.
	Subscribe(h pv.Handle, kind pv.RequestKind, count int, fn pv.UpdateHandler) (pv.SubscriptionID, error)

	// GetMetadata reads the graphic metadata of a channel once.
	GetMetadata(h pv.Handle, fn pv.MetadataHandler) error

	// AccessRights returns the current rights of a channel.
	AccessRights(h pv.Handle) pv.AccessRights

	// OnAccessRightsChange replaces the access rights handler of a channel.
	OnAccessRightsChange(h pv.Handle, fn pv.AccessRightsHandler) error

	// Info describes a channel. ok is false for unknown handles.
	Info(h pv.Handle) (info pv.ChannelInfo, ok bool)

	// Clear cancels the subscriptions of a channel and forgets it.
	Clear(h pv.Handle) error

	// PumpEvents runs queued callbacks for at most timeout.
	PumpEvents(ctx context.Context, timeout time.Duration) error

	// Ready is signalled when callbacks are queued.
	Ready() <-chan struct{}

	// SetExceptionHandler replaces the exception handler. nil deregisters.
	SetExceptionHandler(fn pv.ExceptionHandler)
}
