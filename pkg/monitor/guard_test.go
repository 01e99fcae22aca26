package monitor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pvmon/pvmon-go/pkg/pv"
)

func TestExceptionGuardSilencesAtLimit(t *testing.T) {
	var buf bytes.Buffer
	deregistered := 0
	g := NewExceptionGuard(DefaultExceptionLimit, &buf, nil, func() { deregistered++ })

	for i := 1; i <= 24; i++ {
		buf.Reset()
		if !g.Handle(pv.Exception{Status: pv.StatusServerError}) {
			t.Fatalf("exception %d not printed", i)
		}
		if !strings.Contains(buf.String(), "exception: status=server error") {
			t.Fatalf("exception %d output = %q", i, buf.String())
		}
	}

	buf.Reset()
	if !g.Handle(pv.Exception{}) {
		t.Fatal("25th exception printed nothing")
	}
	if got := buf.String(); got != "too many exceptions, suppressing further diagnostics\n" {
		t.Errorf("25th output = %q", got)
	}
	if !g.Silenced() || deregistered != 1 {
		t.Fatalf("silenced=%v deregistered=%d", g.Silenced(), deregistered)
	}

	buf.Reset()
	for range 5 {
		if g.Handle(pv.Exception{}) {
			t.Error("exception printed after silencing")
		}
	}
	if buf.Len() != 0 {
		t.Errorf("output after silencing: %q", buf.String())
	}
	if g.Count() != 30 {
		t.Errorf("Count = %d, want 30", g.Count())
	}
	if deregistered != 1 {
		t.Errorf("deregistered %d times, want 1", deregistered)
	}
}

func TestExceptionGuardChannelDetails(t *testing.T) {
	var buf bytes.Buffer
	describe := func(h pv.Handle) (pv.ChannelInfo, bool) {
		if h != 7 {
			return pv.ChannelInfo{}, false
		}
		return pv.ChannelInfo{
			Name:         "PV:TEMP",
			FieldType:    pv.FieldTypeDouble,
			ElementCount: 1,
			Host:         "ioc1:5075",
			Access:       pv.AccessRights{Read: true},
			State:        pv.ChannelConnected,
		}, true
	}
	g := NewExceptionGuard(0, &buf, describe, nil)

	g.Handle(pv.Exception{Handle: 7, Type: pv.RequestTimeDouble, Count: 1, Status: pv.StatusBadType})
	out := buf.String()
	for _, want := range []string{
		"exception: name=PV:TEMP",
		"exception: type=DOUBLE",
		"exception: host name=ioc1:5075",
		"exception: read access=true",
		"exception: write access=false",
		"exception: state=connected",
		"exception: type=TIME_DOUBLE",
		"exception: status=invalid request type",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}

	buf.Reset()
	g.Handle(pv.Exception{Status: pv.StatusTimeout})
	if got := strings.Count(buf.String(), "="+unavailable); got != 7 {
		t.Errorf("unavailable fields = %d, want 7\n%s", got, buf.String())
	}
}
