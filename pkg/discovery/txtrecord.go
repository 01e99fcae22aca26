package discovery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeServerTXT creates the TXT records of a server.
func EncodeServerTXT(info *ServerInfo) TXTRecordMap {
	txt := TXTRecordMap{TXTKeyVersion: info.Version}
	if info.PVCount > 0 {
		txt[TXTKeyPVCount] = strconv.Itoa(info.PVCount)
	}
	if info.TLS {
		txt[TXTKeyTLS] = "1"
	}
	if info.Description != "" {
		txt[TXTKeyDescription] = info.Description
	}
	return txt
}

// DecodeServerTXT parses the TXT records of a server into s.
func DecodeServerTXT(txt TXTRecordMap, s *Service) error {
	ver, ok := txt[TXTKeyVersion]
	if !ok || ver == "" {
		return fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	s.Version = ver

	if v, ok := txt[TXTKeyPVCount]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidTXT, TXTKeyPVCount, v)
		}
		s.PVCount = n
	}
	s.TLS = txt[TXTKeyTLS] == "1"
	s.Description = txt[TXTKeyDescription]
	return nil
}

// TXTRecordsToStrings converts a TXTRecordMap to "key=value" strings,
// sorted by key.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, found := strings.Cut(s, "=")
		if found {
			txt[k] = v
		} else if k != "" {
			// Key without value (boolean flag)
			txt[k] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidInstanceName)
	}
	if len(name) > MaxInstanceNameLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidInstanceName, MaxInstanceNameLen)
	}
	return nil
}
