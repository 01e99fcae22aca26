// Package discovery finds PV data servers on the local network with
// mDNS/DNS-SD.
//
// Servers advertise the service type _pvd._tcp. The instance name is the
// server name; TXT records carry:
//
//	ver  protocol version (required)
//	pvs  number of served process variables (optional)
//	tls  "1" when the server expects TLS (optional)
//	desc free text description (optional)
//
// Clients browse for the service and dial every announced address; a
// channel is bound to whichever server answers for its name first.
package discovery
