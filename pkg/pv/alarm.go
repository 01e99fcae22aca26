package pv

import "strconv"

// AlarmStatus is the alarm condition reported with an update.
type AlarmStatus uint16

const (
	AlarmNone AlarmStatus = iota
	AlarmRead
	AlarmWrite
	AlarmHiHi
	AlarmHigh
	AlarmLoLo
	AlarmLow
	AlarmState
	AlarmCOS
	AlarmComm
	AlarmTimeout
	AlarmHWLimit
	AlarmCalc
	AlarmScan
	AlarmLink
	AlarmSoft
	AlarmBadSub
	AlarmUDF
	AlarmDisable
	AlarmSimm
	AlarmReadAccess
	AlarmWriteAccess
)

var alarmStatusStrings = [...]string{
	"NO_ALARM",
	"READ",
	"WRITE",
	"HIHI",
	"HIGH",
	"LOLO",
	"LOW",
	"STATE",
	"COS",
	"COMM",
	"TIMEOUT",
	"HWLIMIT",
	"CALC",
	"SCAN",
	"LINK",
	"SOFT",
	"BAD_SUB",
	"UDF",
	"DISABLE",
	"SIMM",
	"READ_ACCESS",
	"WRITE_ACCESS",
}

// String returns the alarm status name.
func (s AlarmStatus) String() string {
	if int(s) < len(alarmStatusStrings) {
		return alarmStatusStrings[s]
	}
	return "UNKNOWN_" + strconv.Itoa(int(s))
}

// AlarmSeverity is the alarm severity reported with an update.
type AlarmSeverity uint16

const (
	SeverityNone AlarmSeverity = iota
	SeverityMinor
	SeverityMajor
	SeverityInvalid
)

var alarmSeverityStrings = [...]string{
	"NO_ALARM",
	"MINOR",
	"MAJOR",
	"INVALID",
}

// String returns the alarm severity name.
func (s AlarmSeverity) String() string {
	if int(s) < len(alarmSeverityStrings) {
		return alarmSeverityStrings[s]
	}
	return "UNKNOWN_" + strconv.Itoa(int(s))
}

// ParseAlarmStatus parses an alarm status name.
func ParseAlarmStatus(s string) (AlarmStatus, bool) {
	for i, name := range alarmStatusStrings {
		if name == s {
			return AlarmStatus(i), true
		}
	}
	return AlarmNone, false
}

// ParseAlarmSeverity parses an alarm severity name.
func ParseAlarmSeverity(s string) (AlarmSeverity, bool) {
	for i, name := range alarmSeverityStrings {
		if name == s {
			return AlarmSeverity(i), true
		}
	}
	return SeverityNone, false
}
