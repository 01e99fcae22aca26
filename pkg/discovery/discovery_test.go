package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestServerTXTRoundtrip(t *testing.T) {
	info := &ServerInfo{Version: "1.0", PVCount: 8, TLS: true, Description: "lab sim"}
	txt := TXTRecordsToStrings(EncodeServerTXT(info))

	want := []string{"desc=lab sim", "pvs=8", "tls=1", "ver=1.0"}
	if strings.Join(txt, ",") != strings.Join(want, ",") {
		t.Errorf("TXT = %v, want %v", txt, want)
	}

	var svc Service
	if err := DecodeServerTXT(StringsToTXTRecords(txt), &svc); err != nil {
		t.Fatalf("DecodeServerTXT: %v", err)
	}
	if svc.Version != "1.0" || svc.PVCount != 8 || !svc.TLS || svc.Description != "lab sim" {
		t.Errorf("decoded = %+v", svc)
	}
}

func TestServerTXTOptionalFields(t *testing.T) {
	txt := EncodeServerTXT(&ServerInfo{Version: "1.0"})
	if len(txt) != 1 {
		t.Errorf("TXT = %v, want version only", txt)
	}
}

func TestDecodeServerTXTErrors(t *testing.T) {
	tests := []struct {
		name string
		txt  []string
		want error
	}{
		{"missing version", []string{"pvs=1"}, ErrMissingRequired},
		{"empty version", []string{"ver="}, ErrMissingRequired},
		{"bad count", []string{"ver=1", "pvs=many"}, ErrInvalidTXT},
		{"negative count", []string{"ver=1", "pvs=-2"}, ErrInvalidTXT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var svc Service
			err := DecodeServerTXT(StringsToTXTRecords(tt.txt), &svc)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"a=1", "flag", "b=x=y", ""})
	if txt["a"] != "1" || txt["b"] != "x=y" {
		t.Errorf("txt = %v", txt)
	}
	if v, ok := txt["flag"]; !ok || v != "" {
		t.Errorf("flag = %q, %v", v, ok)
	}
	if len(txt) != 3 {
		t.Errorf("len = %d, want 3", len(txt))
	}
}

func TestValidateInstanceName(t *testing.T) {
	if err := ValidateInstanceName("pvd-sim"); err != nil {
		t.Errorf("valid name: %v", err)
	}
	if err := ValidateInstanceName(""); !errors.Is(err, ErrInvalidInstanceName) {
		t.Errorf("empty name: %v", err)
	}
	if err := ValidateInstanceName(strings.Repeat("x", 64)); !errors.Is(err, ErrInvalidInstanceName) {
		t.Errorf("long name: %v", err)
	}
}

func TestNewService(t *testing.T) {
	svc, err := newService("sim", "sim.local.", 5075, []string{"ver=1.0", "pvs=3"}, []string{"192.168.1.5", "fe80::1"})
	if err != nil {
		t.Fatalf("newService: %v", err)
	}
	if svc.Addr() != "192.168.1.5:5075" {
		t.Errorf("Addr = %q", svc.Addr())
	}
	if svc.PVCount != 3 {
		t.Errorf("PVCount = %d", svc.PVCount)
	}

	if _, err := newService("bad", "h", 1, nil, nil); !errors.Is(err, ErrMissingRequired) {
		t.Errorf("missing TXT = %v", err)
	}
}

func TestServiceAddrFallsBackToHost(t *testing.T) {
	svc := Service{Host: "sim.local.", Port: 5075}
	if got := svc.Addr(); got != "sim.local.:5075" {
		t.Errorf("Addr = %q", got)
	}
	v6 := Service{Addresses: []string{"fe80::1"}, Port: 1}
	if got := v6.Addr(); got != "[fe80::1]:1" {
		t.Errorf("Addr = %q", got)
	}
}

func TestAddressMerging(t *testing.T) {
	addrs := mergeAddresses([]string{"10.0.0.1"}, []string{"10.0.0.1", "10.0.0.2"})
	if len(addrs) != 2 {
		t.Fatalf("merged = %v", addrs)
	}
	addrs = removeAddresses(addrs, []string{"10.0.0.1"})
	if len(addrs) != 1 || addrs[0] != "10.0.0.2" {
		t.Errorf("after remove = %v", addrs)
	}
}

type fakeAdder struct {
	added []string
}

func (f *fakeAdder) AddServer(addr string) error {
	f.added = append(f.added, addr)
	return nil
}

func TestAdvertiserUpdateRequiresAdvertise(t *testing.T) {
	a := NewAdvertiser(AdvertiserConfig{})
	if err := a.Update(&ServerInfo{Version: "1"}); !errors.Is(err, ErrNotAdvertising) {
		t.Errorf("Update = %v, want ErrNotAdvertising", err)
	}
	a.Stop()
}

func TestWatchEndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var adder fakeAdder
	err := Watch(ctx, NewBrowser(BrowserConfig{}), &adder, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Watch = %v, want context.Canceled", err)
	}
}
