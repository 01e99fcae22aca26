package monitor_test

import (
	"context"
	"errors"
	"time"

	"github.com/pvmon/pvmon-go/pkg/monitor"
	"github.com/pvmon/pvmon-go/pkg/pv"
)

type subscribeCall struct {
	handle pv.Handle
	kind   pv.RequestKind
	count  int
}

type fakeChannel struct {
	info     pv.ChannelInfo
	onConn   pv.ConnectionHandler
	onAccess pv.AccessRightsHandler
	onUpdate pv.UpdateHandler
}

// fakeTransport queues callbacks and runs them from PumpEvents, like the
// real client does.
type fakeTransport struct {
	// online channels connect on the next pump after Connect.
	online map[string]pv.ChannelInfo

	precision   int16
	metadataErr error

	next      pv.Handle
	channels  map[pv.Handle]*fakeChannel
	queue     []func()
	ready     chan struct{}
	exHandler pv.ExceptionHandler

	subscribes    []subscribeCall
	metadataCalls int
	cleared       []pv.Handle
}

var _ monitor.Transport = (*fakeTransport)(nil)

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		online:   make(map[string]pv.ChannelInfo),
		channels: make(map[pv.Handle]*fakeChannel),
		ready:    make(chan struct{}, 1),
	}
}

func (f *fakeTransport) setOnline(name string, ft pv.FieldType, count int) {
	f.online[name] = pv.ChannelInfo{
		Name:         name,
		FieldType:    ft,
		ElementCount: count,
		Host:         "fake:5075",
		Access:       pv.AccessRights{Read: true, Write: true},
	}
}

func (f *fakeTransport) enqueue(fn func()) {
	f.queue = append(f.queue, fn)
	select {
	case f.ready <- struct{}{}:
	default:
	}
}

func (f *fakeTransport) handleOf(name string) pv.Handle {
	for h, ch := range f.channels {
		if ch.info.Name == name {
			return h
		}
	}
	return pv.NoHandle
}

// connect queues a connection-up for name.
func (f *fakeTransport) connect(name string) {
	h := f.handleOf(name)
	ch := f.channels[h]
	info, ok := f.online[name]
	if !ok {
		info = ch.info
		info.FieldType = pv.FieldTypeLong
		info.ElementCount = 1
	}
	f.enqueue(func() {
		info.State = pv.ChannelConnected
		ch.info = info
		ch.onConn(pv.ConnectionEvent{Handle: h, Up: true})
	})
}

func (f *fakeTransport) disconnect(name string) {
	h := f.handleOf(name)
	ch := f.channels[h]
	f.enqueue(func() {
		ch.info.State = pv.ChannelDisconnected
		ch.onConn(pv.ConnectionEvent{Handle: h, Up: false})
	})
}

func (f *fakeTransport) post(name string, u pv.Update) {
	h := f.handleOf(name)
	ch := f.channels[h]
	f.enqueue(func() {
		if ch.onUpdate != nil {
			ch.onUpdate(h, u)
		}
	})
}

func (f *fakeTransport) raise(ex pv.Exception) {
	f.enqueue(func() {
		if f.exHandler != nil {
			f.exHandler(ex)
		}
	})
}

func (f *fakeTransport) Connect(name string, fn pv.ConnectionHandler) (pv.Handle, error) {
	if name == "" {
		return pv.NoHandle, errors.New("empty channel name")
	}
	f.next++
	h := f.next
	f.channels[h] = &fakeChannel{
		info:   pv.ChannelInfo{Name: name, FieldType: pv.FieldTypeNotConnected},
		onConn: fn,
	}
	if _, ok := f.online[name]; ok {
		f.connect(name)
	}
	return h, nil
}

func (f *fakeTransport) Subscribe(h pv.Handle, kind pv.RequestKind, count int, fn pv.UpdateHandler) (pv.SubscriptionID, error) {
	ch, ok := f.channels[h]
	if !ok {
		return 0, errors.New("unknown handle")
	}
	ch.onUpdate = fn
	f.subscribes = append(f.subscribes, subscribeCall{handle: h, kind: kind, count: count})
	return pv.SubscriptionID(len(f.subscribes)), nil
}

func (f *fakeTransport) GetMetadata(h pv.Handle, fn pv.MetadataHandler) error {
	f.metadataCalls++
	f.enqueue(func() {
		fn(h, pv.Metadata{Precision: f.precision}, f.metadataErr)
	})
	return nil
}

func (f *fakeTransport) AccessRights(h pv.Handle) pv.AccessRights {
	if ch, ok := f.channels[h]; ok {
		return ch.info.Access
	}
	return pv.AccessRights{}
}

func (f *fakeTransport) OnAccessRightsChange(h pv.Handle, fn pv.AccessRightsHandler) error {
	ch, ok := f.channels[h]
	if !ok {
		return errors.New("unknown handle")
	}
	ch.onAccess = fn
	return nil
}

func (f *fakeTransport) Info(h pv.Handle) (pv.ChannelInfo, bool) {
	ch, ok := f.channels[h]
	if !ok {
		return pv.ChannelInfo{}, false
	}
	return ch.info, true
}

func (f *fakeTransport) Clear(h pv.Handle) error {
	f.cleared = append(f.cleared, h)
	delete(f.channels, h)
	return nil
}

func (f *fakeTransport) PumpEvents(ctx context.Context, timeout time.Duration) error {
	if len(f.queue) == 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(timeout):
		}
		return nil
	}
	queue := f.queue
	f.queue = nil
	for _, fn := range queue {
		fn()
	}
	return nil
}

func (f *fakeTransport) Ready() <-chan struct{} {
	return f.ready
}

func (f *fakeTransport) SetExceptionHandler(fn pv.ExceptionHandler) {
	f.exHandler = fn
}
