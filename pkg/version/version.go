// Package version holds the program release and the PV data protocol
// version, with parsing, comparison and ALPN helpers.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Protocol is the PV data protocol version implemented by this module.
const Protocol = "1.0"

// Release is the program release. Overridden at build time with
// -ldflags "-X github.com/pvmon/pvmon-go/pkg/version.Release=...".
var Release = "1.0.0"

// alpnPrefix starts every ALPN protocol id of the PV data protocol.
const alpnPrefix = "pvd/"

// ProtocolVersion represents a parsed "major.minor" protocol version.
type ProtocolVersion struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (ProtocolVersion, error) {
	majorStr, minorStr, ok := strings.Cut(s, ".")
	if !ok || strings.Contains(minorStr, ".") {
		return ProtocolVersion{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(majorStr, 10, 16)
	if err != nil {
		return ProtocolVersion{}, fmt.Errorf("invalid version %q: bad major component", s)
	}
	minor, err := strconv.ParseUint(minorStr, 10, 16)
	if err != nil {
		return ProtocolVersion{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}
	return ProtocolVersion{Major: uint16(major), Minor: uint16(minor)}, nil
}

// Current returns the parsed Protocol.
func Current() ProtocolVersion {
	v, _ := Parse(Protocol)
	return v
}

// String returns the version as "major.minor".
func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible returns true if the other version has the same major version.
func (v ProtocolVersion) Compatible(other ProtocolVersion) bool {
	return v.Major == other.Major
}

// ALPNProtocol returns the ALPN protocol id for a major version: "pvd/N".
func ALPNProtocol(major uint16) string {
	return alpnPrefix + strconv.FormatUint(uint64(major), 10)
}

// MajorFromALPN extracts the major version from an ALPN protocol id.
func MajorFromALPN(alpn string) (uint16, error) {
	suffix, ok := strings.CutPrefix(alpn, alpnPrefix)
	if !ok {
		return 0, fmt.Errorf("not a PV data ALPN protocol: %q", alpn)
	}
	if suffix == "" {
		return 0, fmt.Errorf("empty major version in ALPN: %q", alpn)
	}
	major, err := strconv.ParseUint(suffix, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid major version in ALPN %q: %w", alpn, err)
	}
	return uint16(major), nil
}

// SupportedALPNProtocols returns the ALPN ids of all supported major
// versions.
func SupportedALPNProtocols() []string {
	return []string{ALPNProtocol(Current().Major)}
}

// Banner returns the version line printed by the binaries.
func Banner(program string) string {
	return fmt.Sprintf("%s %s (protocol %s)", program, Release, Protocol)
}
