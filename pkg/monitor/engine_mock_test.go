package monitor_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pvmon/pvmon-go/pkg/monitor"
	"github.com/pvmon/pvmon-go/pkg/monitor/mocks"
	"github.com/pvmon/pvmon-go/pkg/pv"
)

var _ monitor.Transport = (*mocks.MockTransport)(nil)

func TestConnectFailureIsReturned(t *testing.T) {
	transport := mocks.NewMockTransport(t)
	transport.EXPECT().SetExceptionHandler(mock.Anything).Return()
	transport.EXPECT().Connect("PV:BAD", mock.Anything).Return(pv.NoHandle, errors.New("bad name")).Once()

	e := monitor.NewEngine(transport, monitor.Config{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	err := e.AddMonitor("PV:BAD")
	require.Error(t, err)
	assert.Zero(t, e.Registry().Len())
	assert.Zero(t, e.ChannelCount())
}

func TestSynchronousMetadataErrorNeverSubscribes(t *testing.T) {
	var onConn pv.ConnectionHandler
	errw := &bytes.Buffer{}

	transport := mocks.NewMockTransport(t)
	transport.EXPECT().SetExceptionHandler(mock.Anything).Return()
	transport.EXPECT().Connect("PV:TEMP", mock.Anything).
		RunAndReturn(func(_ string, fn pv.ConnectionHandler) (pv.Handle, error) {
			onConn = fn
			return 7, nil
		}).Once()
	transport.EXPECT().Info(pv.Handle(7)).Return(pv.ChannelInfo{
		Name:         "PV:TEMP",
		FieldType:    pv.FieldTypeFloat,
		ElementCount: 1,
	}, true)
	transport.EXPECT().GetMetadata(pv.Handle(7), mock.Anything).Return(errors.New("channel busy")).Once()
	transport.EXPECT().OnAccessRightsChange(pv.Handle(7), mock.Anything).Return(nil).Once()
	transport.EXPECT().AccessRights(pv.Handle(7)).Return(pv.AccessRights{Read: true, Write: true})
	transport.EXPECT().Clear(pv.Handle(7)).Return(nil).Once()

	e := monitor.NewEngine(transport, monitor.Config{
		Out:            &bytes.Buffer{},
		Err:            errw,
		WaitForConnect: -1,
	})
	require.NoError(t, e.AddMonitor("PV:TEMP"))
	require.NotNil(t, onConn)

	onConn(pv.ConnectionEvent{Handle: 7, Up: true})

	state, ok := e.ChannelState("PV:TEMP")
	require.True(t, ok)
	assert.Equal(t, monitor.StateFailed, state)
	assert.Contains(t, errw.String(), "because \"channel busy\"")
	transport.AssertNotCalled(t, "Subscribe", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	require.NoError(t, e.Close())
}
