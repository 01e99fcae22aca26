package version

import (
	"strings"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		input string
		major uint16
		minor uint16
	}{
		{"1.0", 1, 0},
		{"1.1", 1, 1},
		{"2.0", 2, 0},
		{"10.23", 10, 23},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if v.Major != tt.major || v.Minor != tt.minor {
				t.Errorf("Parse(%q) = %v, want %d.%d", tt.input, v, tt.major, tt.minor)
			}
			if v.String() != tt.input {
				t.Errorf("String() = %q, want %q", v.String(), tt.input)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"", "1", "abc", "1.0.0", "1.x", "-1.0", ".1", "1."} {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse(input); err == nil {
				t.Errorf("Parse(%q) should return error", input)
			}
		})
	}
}

func TestCompatible(t *testing.T) {
	v1 := ProtocolVersion{Major: 1, Minor: 0}
	if !v1.Compatible(ProtocolVersion{Major: 1, Minor: 4}) {
		t.Error("1.0 should be compatible with 1.4")
	}
	if v1.Compatible(ProtocolVersion{Major: 2}) {
		t.Error("1.0 should not be compatible with 2.0")
	}
}

func TestALPN(t *testing.T) {
	if got := ALPNProtocol(1); got != "pvd/1" {
		t.Errorf("ALPNProtocol(1) = %q", got)
	}

	major, err := MajorFromALPN("pvd/3")
	if err != nil || major != 3 {
		t.Errorf("MajorFromALPN(pvd/3) = %d, %v", major, err)
	}
	for _, bad := range []string{"h2", "pvd/", "pvd/x"} {
		if _, err := MajorFromALPN(bad); err == nil {
			t.Errorf("MajorFromALPN(%q) should fail", bad)
		}
	}

	protos := SupportedALPNProtocols()
	if len(protos) != 1 || protos[0] != "pvd/1" {
		t.Errorf("SupportedALPNProtocols = %v", protos)
	}
}

func TestBanner(t *testing.T) {
	b := Banner("pvmon")
	if !strings.HasPrefix(b, "pvmon "+Release) || !strings.Contains(b, "protocol "+Protocol) {
		t.Errorf("Banner = %q", b)
	}
}
